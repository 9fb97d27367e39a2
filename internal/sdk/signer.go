// Package sdk implements C11: the single façade object a host
// application drives, threading the mutable state bag of spec §5
// ({config, active_user, active_network, access_token, repository})
// through one reader/writer lock and exposing §4.11's operation table.
// Grounded on the teacher's internal/service.Service — the same
// "one object, narrow dependencies, every method takes the state it
// needs explicitly" shape, generalized from a single fixed-chain CLI
// backend to a multi-protocol, multi-network façade over C1–C10.
package sdk

import (
	"context"
	"math/big"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/internal/chain/erc20"
	"github.com/etopay/sigilwallet/internal/chain/evm"
	"github.com/etopay/sigilwallet/internal/chain/stardust"
	"github.com/etopay/sigilwallet/internal/history"
	"github.com/etopay/sigilwallet/internal/network"
	"github.com/etopay/sigilwallet/internal/sdkconfig"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// GasCostEstimation is the façade's protocol-neutral projection of a
// pending send's fee cost: EVM/ERC-20 populate the fee-market triple,
// Stardust populates the fee-rate triple, per spec §4.7/§4.11.
type GasCostEstimation struct {
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int

	FeeRate       uint64
	EstimatedSize int
	TotalFee      amount.CryptoAmount
}

// Signer is the façade-internal view of a materialised chain signer
// (C7/C8/C9): every method already has its mnemonic closed over, so
// callers never pass one again after WalletBorrow returns it. It
// composes internal/history.Signer so the reconciler (C10) can use a
// Signer directly.
type Signer interface {
	history.Signer

	Address() (string, error)
	Balance(ctx context.Context) (amount.CryptoAmount, error)
	Send(ctx context.Context, to string, amt amount.CryptoAmount, data []byte) (string, error)
	EstimateGas(ctx context.Context, to string, amt amount.CryptoAmount, data []byte) (GasCostEstimation, error)
	GetWalletTx(ctx context.Context, hash string) (history.WalletTransaction, error)
	Close()
}

// WalletBorrow is a handle onto a signer scoped to the façade call that
// requested it (spec §4.12): it closes over the plaintext mnemonic
// used to build it, so it must not outlive that call or be stashed in
// background state. Every §4.11 operation that needs on-chain access
// materialises one, uses it, and lets it go out of scope.
type WalletBorrow struct {
	Signer
}

// materialize builds a WalletBorrow for netCfg's protocol from a
// reconstructed mnemonic, dispatching to the matching chain package
// (C7/C8/C9). EVM and ERC-20 clients take the mnemonic per call, so the
// adapter closes over it; Stardust derives its address at construction
// and its adapter keeps the mnemonic only for Send.
func materialize(netCfg sdkconfig.NetworkConfig, mnemonic string, log erc20.Logger) (*WalletBorrow, error) {
	switch netCfg.Protocol {
	case network.ProtocolEvm:
		c, err := evm.NewClient(netCfg.Endpoint, netCfg.Network)
		if err != nil {
			return nil, err
		}
		return &WalletBorrow{Signer: &evmSigner{client: c, mnemonic: mnemonic}}, nil

	case network.ProtocolEvmERC20:
		c, err := erc20.NewClient(netCfg.Endpoint, netCfg.Network, log)
		if err != nil {
			return nil, err
		}
		return &WalletBorrow{Signer: &erc20Signer{client: c, mnemonic: mnemonic}}, nil

	case network.ProtocolStardust:
		c, err := stardust.NewClient(netCfg.Endpoint, netCfg.Network, mnemonic)
		if err != nil {
			return nil, err
		}
		return &WalletBorrow{Signer: &stardustSigner{client: c, mnemonic: mnemonic, decimals: netCfg.Decimals}}, nil

	default:
		return nil, sigilerr.WithDetails(sigilerr.ErrMissingNetwork, map[string]string{"protocol": string(netCfg.Protocol)})
	}
}

// evmSigner adapts *evm.Client to Signer by closing over the mnemonic
// its per-call methods otherwise require.
type evmSigner struct {
	client   *evm.Client
	mnemonic string
}

func (s *evmSigner) Address() (string, error) { return s.client.Address(s.mnemonic) }

func (s *evmSigner) Balance(ctx context.Context) (amount.CryptoAmount, error) {
	return s.client.Balance(ctx, s.mnemonic)
}

func (s *evmSigner) Send(ctx context.Context, to string, amt amount.CryptoAmount, data []byte) (string, error) {
	return s.client.Send(ctx, s.mnemonic, evm.TransactionIntent{To: to, Amount: amt, Data: data})
}

func (s *evmSigner) EstimateGas(ctx context.Context, to string, amt amount.CryptoAmount, data []byte) (GasCostEstimation, error) {
	est, err := s.client.EstimateGas(ctx, s.mnemonic, evm.TransactionIntent{To: to, Amount: amt, Data: data})
	if err != nil {
		return GasCostEstimation{}, err
	}
	return GasCostEstimation{GasLimit: est.GasLimit, MaxFeePerGas: est.MaxFeePerGas, MaxPriorityFeePerGas: est.MaxPriorityFeePerGas}, nil
}

func (s *evmSigner) ListRecentHashes(ctx context.Context) ([]string, error) { return s.client.ListRecentHashes(ctx) }

func (s *evmSigner) FetchTransaction(ctx context.Context, hash string) (history.WalletTransaction, error) {
	owner, err := s.Address()
	if err != nil {
		return history.WalletTransaction{}, err
	}
	return s.client.FetchTransaction(ctx, hash, owner)
}

func (s *evmSigner) GetWalletTx(ctx context.Context, hash string) (history.WalletTransaction, error) {
	owner, err := s.Address()
	if err != nil {
		return history.WalletTransaction{}, err
	}
	return s.client.GetWalletTx(ctx, hash, owner)
}

func (s *evmSigner) Close() { s.client.Close() }

// erc20Signer adapts *erc20.Client the same way evmSigner adapts
// *evm.Client.
type erc20Signer struct {
	client   *erc20.Client
	mnemonic string
}

func (s *erc20Signer) Address() (string, error) { return s.client.Address(s.mnemonic) }

func (s *erc20Signer) Balance(ctx context.Context) (amount.CryptoAmount, error) {
	return s.client.Balance(ctx, s.mnemonic)
}

func (s *erc20Signer) Send(ctx context.Context, to string, amt amount.CryptoAmount, data []byte) (string, error) {
	return s.client.Send(ctx, s.mnemonic, to, amt, data)
}

func (s *erc20Signer) EstimateGas(ctx context.Context, to string, amt amount.CryptoAmount, _ []byte) (GasCostEstimation, error) {
	est, err := s.client.EstimateGas(ctx, s.mnemonic, to, amt)
	if err != nil {
		return GasCostEstimation{}, err
	}
	return GasCostEstimation{GasLimit: est.GasLimit, MaxFeePerGas: est.MaxFeePerGas, MaxPriorityFeePerGas: est.MaxPriorityFeePerGas}, nil
}

func (s *erc20Signer) ListRecentHashes(ctx context.Context) ([]string, error) { return s.client.ListRecentHashes(ctx) }

func (s *erc20Signer) FetchTransaction(ctx context.Context, hash string) (history.WalletTransaction, error) {
	owner, err := s.Address()
	if err != nil {
		return history.WalletTransaction{}, err
	}
	return s.client.FetchTransaction(ctx, hash, owner)
}

func (s *erc20Signer) GetWalletTx(ctx context.Context, hash string) (history.WalletTransaction, error) {
	owner, err := s.Address()
	if err != nil {
		return history.WalletTransaction{}, err
	}
	return s.client.GetWalletTx(ctx, hash, owner)
}

func (s *erc20Signer) Close() { s.client.Close() }

// stardustSigner adapts *stardust.Client, which already caches its
// derived address and needs no further mnemonic for any Signer method
// except Send.
type stardustSigner struct {
	client   *stardust.Client
	mnemonic string
	decimals int
}

func (s *stardustSigner) Address() (string, error) { return s.client.Address(), nil }

func (s *stardustSigner) Balance(ctx context.Context) (amount.CryptoAmount, error) {
	return s.client.Balance(ctx)
}

func (s *stardustSigner) Send(ctx context.Context, to string, amt amount.CryptoAmount, _ []byte) (string, error) {
	return s.client.Send(ctx, s.mnemonic, to, amt)
}

func (s *stardustSigner) EstimateGas(ctx context.Context, _ string, amt amount.CryptoAmount, _ []byte) (GasCostEstimation, error) {
	est, err := s.client.EstimateFee(ctx, amt)
	if err != nil {
		return GasCostEstimation{}, err
	}
	total, err := amount.FromU256(new(big.Int).SetUint64(est.TotalFee), s.decimals)
	if err != nil {
		return GasCostEstimation{}, err
	}
	return GasCostEstimation{FeeRate: est.FeeRate, EstimatedSize: int(est.EstimatedSize), TotalFee: total}, nil
}

func (s *stardustSigner) ListRecentHashes(ctx context.Context) ([]string, error) { return s.client.ListRecentHashes(ctx) }

func (s *stardustSigner) FetchTransaction(ctx context.Context, hash string) (history.WalletTransaction, error) {
	return s.client.FetchTransaction(ctx, hash)
}

func (s *stardustSigner) GetWalletTx(ctx context.Context, hash string) (history.WalletTransaction, error) {
	return s.client.GetWalletTx(ctx, hash)
}

func (s *stardustSigner) Close() { s.client.Close() }
