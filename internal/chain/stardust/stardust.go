// Package stardust implements the UTXO-style Stardust chain signer
// (C9): BIP-44 key derivation, a bech32 address, UTXO-funded send, and
// node-indexed transaction history — the one chain family where
// ListRecentHashes actually has something to return (spec §4.10 step
// 3's "stardust only").
//
// Adapted from internal/chain/bsv's WhatsOnChain-shaped UTXO client:
// the same balance/UTXO-listing/fee-estimation/broadcast shape,
// generalized from a BSV-specific base58check address and a
// WhatsOnChain-specific REST surface to a bech32 address and a
// minimal node/indexer JSON API (no Stardust-family wire codec exists
// in this module's dependency set, so the transaction envelope here is
// a deliberately minimal JSON request/response shape, the same way the
// teacher's bsv package defines its own request/response structs for
// each WhatsOnChain endpoint it calls).
package stardust

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/internal/history"
	"github.com/etopay/sigilwallet/internal/network"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// ErrNotStardustNetwork indicates a non-Stardust network.Network was
// handed to NewClient.
var ErrNotStardustNetwork = errors.New("network is not a stardust network")

const (
	defaultTimeout = 30 * time.Second

	// inputOverhead/outputOverhead/txOverhead approximate a signed
	// envelope's marshalled size in bytes, mirroring
	// internal/chain/bsv/fee.go's P2PKHInputSize/P2PKHOutputSize/
	// TxOverhead constants (generalized from a fixed P2PKH script size
	// to this package's JSON envelope).
	inputOverhead  = 150
	outputOverhead = 40
	txOverhead     = 16

	// defaultFeeRate is the fallback fee rate (smallest units per byte)
	// when the node doesn't report one, mirroring bsv's DefaultFeeRate.
	defaultFeeRate = 1
)

// UTXO is an unspent output controlled by an address.
type UTXO struct {
	TxID   string `json:"tx_id"`
	Index  uint32 `json:"index"`
	Amount uint64 `json:"amount"`
}

// FeeEstimation is the UTXO-family fee estimate for a pending send:
// the node-suggested rate, the envelope's estimated size, and the
// resulting total fee.
type FeeEstimation struct {
	FeeRate       uint64
	EstimatedSize uint64
	TotalFee      uint64
}

// Client is a Stardust chain signer bound to one network, node, and
// wallet address. Unlike internal/chain/evm's Client, the controlled
// address is derived once at construction and cached — never the
// mnemonic or private key — so that ListRecentHashes can satisfy
// internal/history.Signer's no-mnemonic signature.
type Client struct {
	network    network.Network
	nodeURL    string
	address    string
	httpClient *http.Client
}

// NewClient derives mnemonic's address under net's coin type and binds
// a Client to it. net must be tagged ProtocolStardust with a non-empty
// Hrp.
func NewClient(nodeURL string, net network.Network, mnemonic string) (*Client, error) {
	if net.Protocol != network.ProtocolStardust {
		return nil, ErrNotStardustNetwork
	}
	if net.Hrp == "" {
		return nil, sigilerr.WithDetails(sigilerr.ErrInvalidTransaction, map[string]string{
			"field": "hrp",
			"value": "",
		})
	}

	key, err := derivePrivateKey(mnemonic, net.CoinType)
	if err != nil {
		return nil, err
	}
	defer zero(key)

	addr, err := deriveAddress(key, net.Hrp)
	if err != nil {
		return nil, sigilerr.Wrap(err, "deriving address")
	}

	return &Client{
		network:    net,
		nodeURL:    nodeURL,
		address:    addr,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Address returns the cached bech32 address this Client was
// constructed for.
func (c *Client) Address() string { return c.address }

// Close is a no-op; Client holds no persistent connection, matching
// internal/chain/bsv.Client's plain *http.Client.
func (c *Client) Close() {}

type balanceResponse struct {
	Confirmed uint64 `json:"confirmed"`
}

// Balance fetches the node's reported confirmed balance for the cached
// address, converting to a CryptoAmount at the network's decimals.
func (c *Client) Balance(ctx context.Context) (amount.CryptoAmount, error) {
	var resp balanceResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/addresses/%s/balance", c.address), &resp); err != nil {
		return amount.CryptoAmount{}, err
	}
	return amount.FromU256(new(big.Int).SetUint64(resp.Confirmed), c.network.Decimals)
}

// ListUTXOs fetches the cached address's unspent outputs.
func (c *Client) ListUTXOs(ctx context.Context) ([]UTXO, error) {
	var utxos []UTXO
	if err := c.getJSON(ctx, fmt.Sprintf("/addresses/%s/outputs", c.address), &utxos); err != nil {
		return nil, err
	}
	return utxos, nil
}

// ListRecentHashes satisfies internal/history.Signer: Stardust nodes
// index transactions per address, so this is a real call unlike EVM's
// ErrFeatureNotImplemented stub (spec §4.10 step 3).
func (c *Client) ListRecentHashes(ctx context.Context) ([]string, error) {
	var hashes []string
	if err := c.getJSON(ctx, fmt.Sprintf("/addresses/%s/transactions", c.address), &hashes); err != nil {
		return nil, err
	}
	return hashes, nil
}

// FetchTransaction satisfies internal/history.Signer by delegating to
// GetWalletTx.
func (c *Client) FetchTransaction(ctx context.Context, hash string) (history.WalletTransaction, error) {
	return c.GetWalletTx(ctx, hash)
}

type nodeTransaction struct {
	TxID      string `json:"tx_id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Amount    uint64 `json:"amount"`
	Fee       uint64 `json:"fee"`
	Status    string `json:"status"` // "pending", "confirmed", "conflicting"
	Timestamp int64  `json:"timestamp"`
	BlockHash string `json:"block_hash"`
}

// GetWalletTx fetches hash's current node-reported state and maps it
// to the core's WalletTransaction shape.
func (c *Client) GetWalletTx(ctx context.Context, hash string) (history.WalletTransaction, error) {
	var tx nodeTransaction
	err := c.getJSON(ctx, "/transactions/"+hash, &tx)
	if errors.Is(err, errNotFound) {
		return history.WalletTransaction{}, sigilerr.ErrTransactionNotFound
	}
	if err != nil {
		return history.WalletTransaction{}, err
	}

	wtx := history.WalletTransaction{
		TransactionHash: tx.TxID,
		Sender:          tx.Sender,
		Receiver:        tx.Receiver,
		NetworkKey:      c.network.Key,
		BlockNumberHash: tx.BlockHash,
		IsSender:        strings.EqualFold(tx.Sender, c.address),
	}
	if a, convErr := amount.FromU256(new(big.Int).SetUint64(tx.Amount), c.network.Decimals); convErr == nil {
		wtx.Amount = a.String()
	}
	if f, convErr := amount.FromU256(new(big.Int).SetUint64(tx.Fee), c.network.Decimals); convErr == nil {
		wtx.GasFee = f.String()
	}
	if tx.Timestamp > 0 {
		wtx.Date = time.Unix(tx.Timestamp, 0).UTC()
	}

	switch tx.Status {
	case "confirmed":
		wtx.Status = history.StatusConfirmed
	case "conflicting":
		wtx.Status = history.StatusConflicting
	default:
		wtx.Status = history.StatusPending
	}

	return wtx, nil
}

// EstimateFee selects UTXOs the same way internal/chain/bsv.SelectUTXOs
// does (largest-first, greedy) to size the envelope, then applies the
// node's suggested fee rate (or defaultFeeRate on failure).
func (c *Client) EstimateFee(ctx context.Context, sendAmount amount.CryptoAmount) (FeeEstimation, error) {
	wei, err := amount.ToU256(sendAmount, c.network.Decimals)
	if err != nil {
		return FeeEstimation{}, err
	}

	utxos, err := c.ListUTXOs(ctx)
	if err != nil {
		return FeeEstimation{}, err
	}

	rate := c.suggestFeeRate(ctx)
	selected, _, err := selectUTXOs(utxos, wei.Uint64(), rate)
	if err != nil {
		return FeeEstimation{}, err
	}

	size := uint64(txOverhead) + uint64(len(selected))*inputOverhead + 2*outputOverhead
	return FeeEstimation{
		FeeRate:       rate,
		EstimatedSize: size,
		TotalFee:      size * rate,
	}, nil
}

type feeRateResponse struct {
	FeeRate uint64 `json:"fee_rate"`
}

func (c *Client) suggestFeeRate(ctx context.Context) uint64 {
	var resp feeRateResponse
	if err := c.getJSON(ctx, "/fee-rate", &resp); err != nil || resp.FeeRate == 0 {
		return defaultFeeRate
	}
	return resp.FeeRate
}

// selectUTXOs greedily selects UTXOs largest-first until their sum
// covers target+estimatedFee, mirroring
// internal/chain/bsv.Client.SelectUTXOs.
func selectUTXOs(utxos []UTXO, target, feeRate uint64) (selected []UTXO, change uint64, err error) {
	if len(utxos) == 0 {
		return nil, 0, sigilerr.ErrInsufficientFunds
	}

	sorted := make([]UTXO, len(utxos))
	copy(sorted, utxos)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })

	estimatedFee := uint64(txOverhead+outputOverhead*2) * feeRate
	need := target + estimatedFee

	var total uint64
	for _, u := range sorted {
		selected = append(selected, u)
		total += u.Amount
		estimatedFee = uint64(txOverhead+outputOverhead*2+len(selected)*inputOverhead) * feeRate
		need = target + estimatedFee
		if total >= need {
			break
		}
	}

	if total < need {
		return nil, 0, sigilerr.ErrInsufficientFunds
	}
	return selected, total - need, nil
}

type signedEnvelope struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Amount    uint64 `json:"amount"`
	Fee       uint64 `json:"fee"`
	Inputs    []UTXO `json:"inputs"`
	Change    uint64 `json:"change"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// canonicalBytes returns the deterministic byte sequence the signature
// covers: every field but Signature itself, in a fixed order.
func (e signedEnvelope) canonicalBytes() []byte {
	buf, _ := json.Marshal(struct {
		Sender    string `json:"sender"`
		Receiver  string `json:"receiver"`
		Amount    uint64 `json:"amount"`
		Fee       uint64 `json:"fee"`
		Inputs    []UTXO `json:"inputs"`
		Change    uint64 `json:"change"`
		PublicKey string `json:"public_key"`
	}{e.Sender, e.Receiver, e.Amount, e.Fee, e.Inputs, e.Change, e.PublicKey})
	return buf
}

// Send funds a transfer of sendAmount to to from UTXOs controlled by
// mnemonic's key, signs the envelope, and broadcasts it.
func (c *Client) Send(ctx context.Context, mnemonic, to string, sendAmount amount.CryptoAmount) (string, error) {
	if _, err := decodeAddress(to, c.network.Hrp); err != nil {
		return "", err
	}

	fee, err := c.EstimateFee(ctx, sendAmount)
	if err != nil {
		return "", err
	}

	wei, err := amount.ToU256(sendAmount, c.network.Decimals)
	if err != nil {
		return "", err
	}

	utxos, err := c.ListUTXOs(ctx)
	if err != nil {
		return "", err
	}
	selected, change, err := selectUTXOs(utxos, wei.Uint64(), fee.FeeRate)
	if err != nil {
		return "", err
	}

	key, err := derivePrivateKey(mnemonic, c.network.CoinType)
	if err != nil {
		return "", err
	}
	defer zero(key)

	priv := secp256k1.PrivKeyFromBytes(key)
	defer priv.Zero()

	env := signedEnvelope{
		Sender:    c.address,
		Receiver:  to,
		Amount:    wei.Uint64(),
		Fee:       fee.TotalFee,
		Inputs:    selected,
		Change:    change,
		PublicKey: hex.EncodeToString(priv.PubKey().SerializeCompressed()),
	}

	digest := sha256.Sum256(env.canonicalBytes())
	sig := ecdsa.Sign(priv, digest[:])
	env.Signature = hex.EncodeToString(sig.Serialize())

	var resp struct {
		TxID string `json:"tx_id"`
	}
	if err := c.postJSON(ctx, "/transactions", env, &resp); err != nil {
		return "", err
	}
	return resp.TxID, nil
}

var errNotFound = errors.New("stardust: resource not found")

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.nodeURL+path, nil)
	if err != nil {
		return sigilerr.Wrap(err, "building request")
	}
	return c.doJSON(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return sigilerr.Wrap(err, "encoding request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL+path, bytes.NewReader(payload))
	if err != nil {
		return sigilerr.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sigilerr.Wrap(err, "calling stardust node")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return sigilerr.WithDetails(sigilerr.ErrBackend, map[string]string{
			"status": fmt.Sprintf("%d", resp.StatusCode),
		})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return sigilerr.Wrap(err, "decoding response")
	}
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
