// Package erc20 implements the ERC-20 token signer (C8): it wraps
// internal/chain/evm's native-EVM client, replacing the transferred
// value with a transfer(address,uint256) call to the network's
// configured contract address. Every nonce/gas/signing concern is
// delegated unchanged to the embedded EVM client — only the calldata
// and the balance/history projections are token-specific.
//
// Grounded on internal/chain/eth/tx.go's BuildERC20TransferData/
// NewERC20TransferParams (manual ABI encoding of the transfer call) and
// internal/chain/eth/client.go's GetTokenBalance (manual balanceOf call
// construction).
package erc20

import (
	"context"
	"errors"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/internal/chain/evm"
	"github.com/etopay/sigilwallet/internal/history"
	"github.com/etopay/sigilwallet/internal/network"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// ErrNotERC20Network indicates a network.Network that isn't tagged
// ProtocolEvmERC20 was handed to NewClient.
var ErrNotERC20Network = errors.New("network is not an ERC-20 network")

// transferSelector is keccak256("transfer(address,uint256)")[0:4].
var transferSelector = [4]byte{0xa9, 0x05, 0x9c, 0xbb}

// balanceOfSelector is keccak256("balanceOf(address)")[0:4].
var balanceOfSelector = [4]byte{0x70, 0xa0, 0x82, 0x31}

// Logger is the narrow logging surface used to report a dropped Data
// payload on Send (a token transfer call can't carry an additional
// contract payload, so any caller-supplied data is ignored).
type Logger interface {
	Warn(format string, args ...any)
}

// Client is an ERC-20 token signer bound to one network (with
// ContractAddress set) and RPC endpoint.
type Client struct {
	network  network.Network
	contract common.Address
	evm      *evm.Client
	log      Logger
}

// NewClient builds a Client for net's token contract, delegating all
// signing/nonce/gas-envelope plumbing to an embedded native EVM client
// on the same chain.
func NewClient(rpcURL string, net network.Network, log Logger) (*Client, error) {
	if net.Protocol != network.ProtocolEvmERC20 {
		return nil, ErrNotERC20Network
	}
	if !common.IsHexAddress(net.ContractAddress) {
		return nil, sigilerr.WithDetails(sigilerr.ErrInvalidTransaction, map[string]string{
			"field": "contract_address",
			"value": net.ContractAddress,
		})
	}

	nativeNet := net
	nativeNet.Protocol = network.ProtocolEvm
	nativeNet.ContractAddress = ""

	evmClient, err := evm.NewClient(rpcURL, nativeNet)
	if err != nil {
		return nil, err
	}

	return &Client{
		network:  net,
		contract: common.HexToAddress(net.ContractAddress),
		evm:      evmClient,
		log:      log,
	}, nil
}

// Address derives and returns the lower-case EVM address controlled
// by mnemonic; it is shared with the chain's native signer since both
// derive from the same BIP-44 coin type.
func (c *Client) Address(mnemonic string) (string, error) {
	return c.evm.Address(mnemonic)
}

// Close releases the underlying RPC connection.
func (c *Client) Close() { c.evm.Close() }

// Balance returns the ERC-20 token balance of mnemonic's address as a
// CryptoAmount at the token's configured decimals.
func (c *Client) Balance(ctx context.Context, mnemonic string) (amount.CryptoAmount, error) {
	addr, err := c.evm.Address(mnemonic)
	if err != nil {
		return amount.CryptoAmount{}, err
	}

	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector[:]...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(addr).Bytes(), 32)...)

	out, err := c.evm.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data})
	if err != nil {
		return amount.CryptoAmount{}, err
	}
	if len(out) < 32 {
		return amount.FromU256(big.NewInt(0), c.network.Decimals)
	}

	return amount.FromU256(new(big.Int).SetBytes(out), c.network.Decimals)
}

// ListRecentHashes delegates to the embedded EVM client: ERC-20 token
// transfers share native transfers' "no node-indexed address history"
// gap, satisfying internal/history.Signer the same way.
func (c *Client) ListRecentHashes(ctx context.Context) ([]string, error) {
	return c.evm.ListRecentHashes(ctx)
}

// FetchTransaction delegates to GetWalletTx. Like evm.Client's, it takes
// the owner address as an extra argument, so internal/sdk's adapter (not
// *Client itself) is what satisfies internal/history.Signer.
func (c *Client) FetchTransaction(ctx context.Context, hash, ownerAddress string) (history.WalletTransaction, error) {
	return c.GetWalletTx(ctx, hash, ownerAddress)
}

// Send builds a transfer(address,uint256) call to the configured
// contract and broadcasts it through the embedded EVM client. data is
// dropped — a token transfer call already fully determines its own
// calldata — and logged rather than silently discarded.
func (c *Client) Send(ctx context.Context, mnemonic, to string, tokenAmount amount.CryptoAmount, data []byte) (string, error) {
	if len(data) > 0 && c.log != nil {
		c.log.Warn("erc20: dropping %d bytes of caller-supplied data; transfer(address,uint256) already determines calldata", len(data))
	}

	callData, err := c.transferCalldata(to, tokenAmount)
	if err != nil {
		return "", err
	}

	return c.evm.Send(ctx, mnemonic, evm.TransactionIntent{
		To:     c.network.ContractAddress,
		Amount: amount.Zero(),
		Data:   callData,
	})
}

// EstimateGas estimates the gas cost of a transfer(address,uint256)
// call, delegating the fee-market math to the embedded EVM client.
func (c *Client) EstimateGas(ctx context.Context, mnemonic, to string, tokenAmount amount.CryptoAmount) (evm.GasCostEstimation, error) {
	callData, err := c.transferCalldata(to, tokenAmount)
	if err != nil {
		return evm.GasCostEstimation{}, err
	}

	return c.evm.EstimateGas(ctx, mnemonic, evm.TransactionIntent{
		To:     c.network.ContractAddress,
		Amount: amount.Zero(),
		Data:   callData,
	})
}

func (c *Client) transferCalldata(to string, tokenAmount amount.CryptoAmount) ([]byte, error) {
	if !common.IsHexAddress(to) {
		return nil, sigilerr.WithDetails(sigilerr.ErrInvalidTransaction, map[string]string{
			"field": "to",
			"value": to,
		})
	}

	wei, err := amount.ToU256(tokenAmount, c.network.Decimals)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 4+32+32)
	copy(data[:4], transferSelector[:])
	copy(data[16:36], common.HexToAddress(to).Bytes())
	wei.FillBytes(data[36:68])
	return data, nil
}

// GetWalletTx fetches hash's current state via the embedded EVM client
// and, if its calldata is a transfer(address,uint256) call, overwrites
// the receiver/amount with the decoded token transfer instead of the
// contract-call envelope's native value (always zero).
func (c *Client) GetWalletTx(ctx context.Context, hash, ownerAddress string) (history.WalletTransaction, error) {
	wtx, err := c.evm.GetWalletTx(ctx, hash, ownerAddress)
	if err != nil {
		return history.WalletTransaction{}, err
	}

	tx, _, err := c.evm.TransactionByHash(ctx, hash)
	if err != nil {
		return wtx, nil //nolint:nilerr // best-effort decode; the native-leg projection is still valid
	}

	to, tokenAmount, ok := decodeTransferCall(tx.Data())
	if !ok {
		return wtx, nil
	}

	wtx.Receiver = to.Hex()
	if a, convErr := amount.FromU256(tokenAmount, c.network.Decimals); convErr == nil {
		wtx.Amount = a.String()
	}

	return wtx, nil
}

// decodeTransferCall decodes a transfer(address,uint256) call's
// arguments, reporting ok=false if data isn't that call.
func decodeTransferCall(data []byte) (to common.Address, tokenAmount *big.Int, ok bool) {
	if len(data) != 68 {
		return common.Address{}, nil, false
	}
	for i, b := range transferSelector {
		if data[i] != b {
			return common.Address{}, nil, false
		}
	}
	return common.BytesToAddress(data[4:36]), new(big.Int).SetBytes(data[36:68]), true
}
