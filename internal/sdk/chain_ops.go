package sdk

import (
	"context"

	"github.com/etopay/sigilwallet/internal/amount"
	"github.com/etopay/sigilwallet/internal/history"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// GenerateNewAddress implements generate_new_address: materialise the
// active network's signer and return its address, uploading it to the
// backend first if the network is purchase-eligible.
func (s *SDK) GenerateNewAddress(ctx context.Context, pin []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.requireNetwork()
	if err != nil {
		return "", err
	}

	borrow, err := snap.borrowSigner(ctx, pin)
	if err != nil {
		return "", err
	}
	defer borrow.Close()

	addr, err := borrow.Address()
	if err != nil {
		return "", err
	}

	if snap.networkCfg.CanDoPurchases {
		if snap.accessToken == "" {
			return "", sigilerr.ErrMissingAccessToken
		}
		if err := snap.transport.UploadAddress(ctx, snap.accessToken, snap.networkKey, addr); err != nil {
			return "", err
		}
	}
	return addr, nil
}

// GetBalance implements get_balance: §4.7/4.8/4.9.
func (s *SDK) GetBalance(ctx context.Context, pin []byte) (amount.CryptoAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.requireNetwork()
	if err != nil {
		return amount.CryptoAmount{}, err
	}

	borrow, err := snap.borrowSigner(ctx, pin)
	if err != nil {
		return amount.CryptoAmount{}, err
	}
	defer borrow.Close()

	return borrow.Balance(ctx)
}

// SendAmount implements send_amount: §4.7/4.8. Per spec §5's ordering
// guarantee, this returns only after the underlying signer reports the
// transaction included (EVM) or accepted by the node (Stardust).
func (s *SDK) SendAmount(ctx context.Context, pin []byte, to string, amt amount.CryptoAmount, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.requireNetwork()
	if err != nil {
		return "", err
	}

	borrow, err := snap.borrowSigner(ctx, pin)
	if err != nil {
		return "", err
	}
	defer borrow.Close()

	return borrow.Send(ctx, to, amt, data)
}

// EstimateGas implements estimate_gas.
func (s *SDK) EstimateGas(ctx context.Context, pin []byte, to string, amt amount.CryptoAmount, data []byte) (GasCostEstimation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.requireNetwork()
	if err != nil {
		return GasCostEstimation{}, err
	}

	borrow, err := snap.borrowSigner(ctx, pin)
	if err != nil {
		return GasCostEstimation{}, err
	}
	defer borrow.Close()

	return borrow.EstimateGas(ctx, to, amt, data)
}

// GetWalletTxList implements get_wallet_tx_list: §4.10's reconciliation
// pipeline (C10), windowed to [start, start+limit).
func (s *SDK) GetWalletTxList(ctx context.Context, pin []byte, start, limit int) ([]history.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.requireNetwork()
	if err != nil {
		return nil, err
	}
	if err := verifyPin(snap, pin); err != nil {
		return nil, err
	}

	borrow, err := snap.borrowSigner(ctx, pin)
	if err != nil {
		return nil, err
	}
	defer borrow.Close()

	return history.Reconcile(ctx, snap.username, snap.networkKey, start, limit, borrow, snap.repo, snap.log)
}

// GetWalletTx implements get_wallet_tx: a direct signer call bypassing
// the reconciler's cache, per §4.11's table.
func (s *SDK) GetWalletTx(ctx context.Context, pin []byte, hash string) (history.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.requireNetwork()
	if err != nil {
		return history.WalletTransaction{}, err
	}

	borrow, err := snap.borrowSigner(ctx, pin)
	if err != nil {
		return history.WalletTransaction{}, err
	}
	defer borrow.Close()

	return borrow.GetWalletTx(ctx, hash)
}

// GetRecoveryShare implements get_recovery_share: read the in-memory
// recovery share held by C6 for the active user.
func (s *SDK) GetRecoveryShare(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return "", false, err
	}
	share, ok := snap.manager.GetRecoveryShare(snap.username)
	return share, ok, nil
}

// SetRecoveryShare implements set_recovery_share: the resolution path
// for a WalletNotInitialized{SetRecoveryShare} outcome — the caller
// pastes back a recovery share obtained out of band.
func (s *SDK) SetRecoveryShare(_ context.Context, recoveryShare string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return err
	}
	snap.manager.SetRecoveryShare(snap.username, recoveryShare)
	return nil
}

// requireNetwork assembles a snapshot and additionally demands an
// active network, for operations that touch a chain signer. Callers
// must already hold the lock (RLock or Lock) in the mode they need.
func (s *SDK) requireNetwork() (snapshot, error) {
	snap, err := s.buildSnapshot()
	if err != nil {
		return snapshot{}, err
	}
	if snap.networkKey == "" {
		return snapshot{}, sigilerr.ErrMissingNetwork
	}
	return snap, nil
}
