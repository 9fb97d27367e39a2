package sdk

import "context"

// CreateWalletFromNewMnemonic implements §4.11's create_wallet_from_new_mnemonic:
// generate a fresh BIP-39 mnemonic, split and upload it per §4.5, and
// return the mnemonic so the host can show it to the user exactly once.
func (s *SDK) CreateWalletFromNewMnemonic(ctx context.Context, pin []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return "", err
	}
	return snap.manager.CreateFromNewMnemonic(ctx, snap.username, pin, snap.accessToken)
}

// CreateWalletFromExistingMnemonic implements create_wallet_from_existing_mnemonic:
// the same create-and-upload path against a caller-supplied mnemonic.
func (s *SDK) CreateWalletFromExistingMnemonic(ctx context.Context, pin []byte, mnemonic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return err
	}
	return snap.manager.CreateFromExistingMnemonic(ctx, snap.username, pin, mnemonic, snap.accessToken)
}

// CreateWalletFromBackup implements create_wallet_from_backup: unlock a
// KDBX backup blob under backupPassword, then run the create-and-upload
// path against the mnemonic it carries.
func (s *SDK) CreateWalletFromBackup(ctx context.Context, pin []byte, backupBlob, backupPassword []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return err
	}
	return snap.manager.CreateFromBackup(ctx, snap.username, pin, backupBlob, backupPassword, snap.accessToken)
}

// CreateWalletBackup implements create_wallet_backup: reconstruct the
// mnemonic (§4.5) and lock it into a KDBX blob under backupPassword.
func (s *SDK) CreateWalletBackup(ctx context.Context, pin []byte, backupPassword []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return nil, err
	}
	return snap.manager.CreateBackup(ctx, snap.username, pin, backupPassword, snap.accessToken)
}

// VerifyMnemonic implements verify_mnemonic: reconstruct the mnemonic
// and string-compare it against candidate.
func (s *SDK) VerifyMnemonic(ctx context.Context, pin []byte, candidate string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return false, err
	}
	return snap.manager.VerifyMnemonic(ctx, snap.username, pin, candidate, snap.accessToken)
}

// DeleteWallet implements delete_wallet (§4.5's delete path), gated on
// a successful PIN verification so a caller cannot wipe shares with an
// unverified PIN.
func (s *SDK) DeleteWallet(ctx context.Context, pin []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return err
	}
	if err := verifyPin(snap, pin); err != nil {
		return err
	}
	return snap.manager.DeleteWallet(ctx, snap.username, snap.accessToken)
}
