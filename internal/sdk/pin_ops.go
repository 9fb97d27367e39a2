package sdk

import (
	"context"

	"github.com/etopay/sigilwallet/internal/secretcrypto"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// verifyPin implements verify_pin: decrypt-verify the wallet password
// under pin and discard the plaintext, the one authoritative PIN check
// (§4.6). A failed decryption surfaces as ErrWrongPinOrPassword; a user
// with no wallet password gets ErrMissingPassword, and a repository
// read error is returned as is.
func verifyPin(snap snapshot, pin []byte) error {
	user, err := snap.repo.Get(snap.username)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return sigilerr.ErrMissingPassword
	}
	password, err := secretcrypto.DecryptPin(user.EncryptedPassword, pin, user.Salt)
	if err != nil {
		return sigilerr.ErrWrongPinOrPassword
	}
	secretcrypto.ZeroBytes(password)
	return nil
}

// VerifyPin implements §4.11/§4.6's verify_pin.
func (s *SDK) VerifyPin(_ context.Context, pin []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return err
	}
	return verifyPin(snap, pin)
}

// IsWalletPasswordSet implements is_wallet_password_set.
func (s *SDK) IsWalletPasswordSet(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return false, err
	}
	user, err := snap.repo.Get(snap.username)
	if err != nil {
		return false, err
	}
	return user.HasPassword(), nil
}

// SetWalletPassword implements §4.6's set_wallet_password: if no
// password exists yet, derive a fresh salt and encrypt new under pin.
// If one exists, decrypt-verify the old PIN first, then delegate to
// C6's ChangeWalletPassword so any existing shares get rotated.
func (s *SDK) SetWalletPassword(ctx context.Context, pin, newPassword []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return err
	}

	user, err := snap.repo.Get(snap.username)
	if err != nil {
		return err
	}

	if !user.HasPassword() {
		salt, err := secretcrypto.NewSalt()
		if err != nil {
			return err
		}
		encrypted, err := secretcrypto.EncryptPin(newPassword, pin, salt)
		if err != nil {
			return err
		}
		return snap.repo.SetEncryptedPassword(snap.username, salt, encrypted)
	}

	if err := verifyPin(snap, pin); err != nil {
		return err
	}
	return snap.manager.ChangeWalletPassword(ctx, snap.username, pin, newPassword, snap.accessToken)
}

// ChangePin implements change_pin: decrypt the wallet password with
// old, re-encrypt it under new with a fresh salt, and persist.
func (s *SDK) ChangePin(_ context.Context, old, newPin []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.buildSnapshot()
	if err != nil {
		return err
	}

	user, err := snap.repo.Get(snap.username)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return sigilerr.ErrMissingPassword
	}

	password, err := secretcrypto.DecryptPin(user.EncryptedPassword, old, user.Salt)
	if err != nil {
		return sigilerr.ErrWrongPinOrPassword
	}
	defer secretcrypto.ZeroBytes(password)

	salt, err := secretcrypto.NewSalt()
	if err != nil {
		return err
	}
	encrypted, err := secretcrypto.EncryptPin(password, newPin, salt)
	if err != nil {
		return err
	}
	return snap.repo.SetEncryptedPassword(snap.username, salt, encrypted)
}
