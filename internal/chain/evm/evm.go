// Package evm implements the EVM-native chain signer (C7): BIP-44 key
// derivation, balance lookups, EIP-1559 gas estimation, transaction
// send, and transaction lookup against a JSON-RPC endpoint.
//
// Grounded on internal/chain/eth/client.go's Client/connect shape,
// generalized from a single hardcoded ETH chain to a config-driven
// internal/network.Network (so the same code serves any EVM chain ID),
// and on internal/chain/eth/tx.go's transaction-building style,
// generalized from LegacyTx+EIP155Signer to an EIP-1559 DynamicFeeTx
// per the wallet's fee-market requirement. The mnemonic is never
// cached on the Client: every operation that needs a signing key
// derives it fresh from the caller-supplied mnemonic and zeroes it
// before returning, mirroring internal/walletmanager's "reconstruct on
// demand, never persist the secret" discipline.
package evm

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/internal/chain/evm/ethcrypto"
	"github.com/etopay/sigilwallet/internal/history"
	"github.com/etopay/sigilwallet/internal/network"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// ErrNotEVMNetwork indicates a non-EVM network.Network was handed to
// this package's constructor.
var ErrNotEVMNetwork = errors.New("network is not an EVM network")

// TransactionIntent is a chain-agnostic transfer request: send Amount
// of the network's native unit to To, optionally carrying Data for a
// contract call.
type TransactionIntent struct {
	To     string
	Amount amount.CryptoAmount
	Data   []byte
}

// GasCostEstimation is the fee-market estimate for a pending send,
// spec §4.7's gas_limit/max_fee_per_gas/max_priority_fee_per_gas triple.
type GasCostEstimation struct {
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Client is an EVM-native chain signer bound to one network and RPC
// endpoint.
type Client struct {
	network network.Network
	rpcURL  string
	eth     *ethclient.Client
}

// NewClient builds a Client for net's chain, dialing rpcURL lazily on
// first use.
func NewClient(rpcURL string, net network.Network) (*Client, error) {
	if net.Protocol != network.ProtocolEvm {
		return nil, ErrNotEVMNetwork
	}
	return &Client{network: net, rpcURL: rpcURL}, nil
}

// Network returns the network this client is bound to.
func (c *Client) Network() network.Network { return c.network }

func (c *Client) connect(ctx context.Context) (*ethclient.Client, error) {
	if c.eth != nil {
		return c.eth, nil
	}

	cl, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, sigilerr.Wrap(err, "connecting to EVM RPC")
	}
	c.eth = cl
	return cl, nil
}

// Close releases the underlying RPC connection, if any.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
}

// Address derives and returns the lower-case 0x-prefixed EVM address
// controlled by mnemonic under this network's BIP-44 coin type.
func (c *Client) Address(mnemonic string) (string, error) {
	key, err := derivePrivateKey(mnemonic, c.network.CoinType)
	if err != nil {
		return "", err
	}
	defer zero(key)

	addrBytes, err := ethcrypto.DeriveAddress(key)
	if err != nil {
		return "", sigilerr.Wrap(err, "deriving address")
	}

	return strings.ToLower(common.BytesToAddress(addrBytes).Hex()), nil
}

// Balance returns the native-unit balance of mnemonic's address as a
// CryptoAmount at the network's configured decimals.
func (c *Client) Balance(ctx context.Context, mnemonic string) (amount.CryptoAmount, error) {
	addr, err := c.Address(mnemonic)
	if err != nil {
		return amount.CryptoAmount{}, err
	}

	eth, err := c.connect(ctx)
	if err != nil {
		return amount.CryptoAmount{}, err
	}

	wei, err := eth.BalanceAt(ctx, common.HexToAddress(addr), nil)
	if err != nil {
		return amount.CryptoAmount{}, sigilerr.Wrap(err, "fetching balance")
	}

	return amount.FromU256(wei, c.network.Decimals)
}

// ListRecentHashes satisfies internal/history.Signer. EVM chains have
// no node-indexed "list transactions for address" call; history is
// only ever refreshed by the reconciler re-fetching hashes it already
// knows (spec §4.10 step 3 treats this as "nothing new").
func (c *Client) ListRecentHashes(_ context.Context) ([]string, error) {
	return nil, sigilerr.ErrFeatureNotImplemented
}

// FetchTransaction delegates to GetWalletTx. ownerAddress is the
// wallet's own derived address, used to populate IsSender; the extra
// argument means *Client does not itself satisfy internal/history.Signer,
// and internal/sdk's adapter supplies the owner when it calls this.
func (c *Client) FetchTransaction(ctx context.Context, hash, ownerAddress string) (history.WalletTransaction, error) {
	return c.GetWalletTx(ctx, hash, ownerAddress)
}

// GetWalletTx fetches hash's current on-chain state and maps it to the
// core's WalletTransaction shape. ownerAddress is compared
// case-insensitively against the recovered sender to set IsSender per
// spec's is_sender = (from == my_address).
func (c *Client) GetWalletTx(ctx context.Context, hash, ownerAddress string) (history.WalletTransaction, error) {
	eth, err := c.connect(ctx)
	if err != nil {
		return history.WalletTransaction{}, err
	}

	txHash := common.HexToHash(hash)
	tx, isPending, err := eth.TransactionByHash(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return history.WalletTransaction{}, sigilerr.ErrTransactionNotFound
	}
	if err != nil {
		return history.WalletTransaction{}, sigilerr.Wrap(err, "fetching transaction")
	}

	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return history.WalletTransaction{}, sigilerr.Wrap(err, "recovering sender")
	}

	wtx := history.WalletTransaction{
		TransactionHash: tx.Hash().Hex(),
		Sender:          sender.Hex(),
		NetworkKey:      c.network.Key,
		Amount:          amount.Zero().String(),
		IsSender:        strings.EqualFold(sender.Hex(), ownerAddress),
	}
	if to := tx.To(); to != nil {
		wtx.Receiver = to.Hex()
	}
	if a, convErr := amount.FromU256(tx.Value(), c.network.Decimals); convErr == nil {
		wtx.Amount = a.String()
	}

	if isPending {
		wtx.Status = history.StatusPending
		return wtx, nil
	}

	receipt, err := eth.TransactionReceipt(ctx, txHash)
	if err != nil {
		wtx.Status = history.StatusPending
		return wtx, nil
	}

	if block, blockErr := eth.HeaderByHash(ctx, receipt.BlockHash); blockErr == nil {
		wtx.Date = blockTime(block)
		wtx.BlockNumberHash = receipt.BlockHash.Hex()
	}

	gasFee := new(big.Int).Mul(big.NewInt(int64(receipt.GasUsed)), receipt.EffectiveGasPrice)
	if fa, convErr := amount.FromU256(gasFee, c.network.Decimals); convErr == nil {
		wtx.GasFee = fa.String()
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		wtx.Status = history.StatusConfirmed
	} else {
		wtx.Status = history.StatusConflicting
	}

	return wtx, nil
}

// CallContract executes a read-only contract call against this
// client's connection. Exported so internal/chain/erc20 can implement
// token-specific calls (balanceOf) without dialing a second RPC
// connection to the same endpoint.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	eth, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	out, err := eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, sigilerr.Wrap(err, "calling contract")
	}
	return out, nil
}

// TransactionByHash fetches the raw transaction for hash. Exported so
// internal/chain/erc20 can recover a transfer call's calldata, which
// GetWalletTx's WalletTransaction projection doesn't carry.
func (c *Client) TransactionByHash(ctx context.Context, hash string) (*types.Transaction, bool, error) {
	eth, err := c.connect(ctx)
	if err != nil {
		return nil, false, err
	}

	tx, isPending, err := eth.TransactionByHash(ctx, common.HexToHash(hash))
	if errors.Is(err, ethereum.NotFound) {
		return nil, false, sigilerr.ErrTransactionNotFound
	}
	if err != nil {
		return nil, false, sigilerr.Wrap(err, "fetching transaction")
	}
	return tx, isPending, nil
}

func blockTime(h *types.Header) time.Time {
	return time.Unix(int64(h.Time), 0).UTC()
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func addressErr(field, value string) error {
	return sigilerr.WithDetails(sigilerr.ErrInvalidTransaction, map[string]string{
		"field": field,
		"value": value,
	})
}
