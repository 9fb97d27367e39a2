// Package walletmanager implements C6: the orchestration of C1–C5 that
// creates, restores, backs up, and deletes a wallet, rotates its
// password, and enforces the share-reconstruction policy of spec §4.5.
// Grounded on the teacher's internal/service/wallet.Service — a
// narrow-interface orchestrator over storage/session/config — adapted
// from "load a local wallet file" to "reconstruct a mnemonic from
// distributed shares".
package walletmanager

import (
	"context"
	"errors"
	"sync"

	"github.com/tyler-smith/go-bip39"

	"github.com/etopay/sigilwallet/internal/kdbx"
	"github.com/etopay/sigilwallet/internal/secretcrypto"
	"github.com/etopay/sigilwallet/internal/share"
	"github.com/etopay/sigilwallet/internal/userrepo"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// dummyRegenerationPassword is the fixed password used to re-split a
// mnemonic recovered without its original local share (spec §4.5): the
// regenerated backup share is never uploaded on this path, so the
// password wrapping it is never exposed or checked again.
const dummyRegenerationPassword = "dummy-regen-password"

// newMnemonicEntropyBits is the BIP-39 entropy size for freshly
// generated mnemonics (128 bits → 12 words).
const newMnemonicEntropyBits = 128

// ShareTransport is the narrow slice of internal/sharetransport.Client
// the manager depends on.
type ShareTransport interface {
	UploadBackupShare(ctx context.Context, accessToken, share string) error
	UploadRecoveryShare(ctx context.Context, accessToken, share string) error
	DownloadBackupShare(ctx context.Context, accessToken string) (string, error)
	DownloadRecoveryShare(ctx context.Context, accessToken string) (string, error)
	DeleteAllShares(ctx context.Context, accessToken string) error
}

// Logger is the narrow logging surface used for non-fatal warnings
// (spec §4.5: "ignore storage failure with a warning; the wallet is
// still usable").
type Logger interface {
	Warn(format string, args ...any)
}

// Manager implements C6. It is safe for concurrent use by multiple
// goroutines acting on different usernames; per-username in-memory
// recovery shares are guarded by a mutex.
type Manager struct {
	repo      userrepo.Repository
	transport ShareTransport
	log       Logger

	mu             sync.Mutex
	recoveryShares map[string]string // username -> wire-form recovery Share
}

// New builds a Manager over repo and transport.
func New(repo userrepo.Repository, transport ShareTransport, log Logger) *Manager {
	return &Manager{
		repo:           repo,
		transport:      transport,
		log:            log,
		recoveryShares: make(map[string]string),
	}
}

// GetRecoveryShare returns the in-memory recovery share held for
// username, if any (§4.11's get_recovery_share).
func (m *Manager) GetRecoveryShare(username string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.recoveryShares[username]
	return s, ok
}

// SetRecoveryShare stores a recovery share the caller pastes back in,
// the resolution path for a WalletNotInitialized{SetRecoveryShare}
// outcome (§4.11's set_recovery_share).
func (m *Manager) SetRecoveryShare(username, recoveryShare string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveryShares[username] = recoveryShare
}

// CreateFromNewMnemonic generates a fresh BIP-39 mnemonic, runs the
// create-and-upload path, and returns the generated mnemonic so the
// caller can show it to the user exactly once.
func (m *Manager) CreateFromNewMnemonic(ctx context.Context, username string, pin []byte, accessToken string) (string, error) {
	entropy, err := bip39.NewEntropy(newMnemonicEntropyBits)
	if err != nil {
		return "", sigilerr.Wrap(sigilerr.ErrConversionError, "generating entropy")
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", sigilerr.Wrap(sigilerr.ErrConversionError, "generating mnemonic")
	}

	if err := m.createAndUpload(ctx, username, pin, secretcrypto.SecretFromString(mnemonic), accessToken); err != nil {
		return "", err
	}
	return mnemonic, nil
}

// CreateFromExistingMnemonic runs the create-and-upload path against a
// caller-supplied mnemonic.
func (m *Manager) CreateFromExistingMnemonic(ctx context.Context, username string, pin []byte, mnemonic string, accessToken string) error {
	return m.createAndUpload(ctx, username, pin, secretcrypto.SecretFromString(mnemonic), accessToken)
}

// CreateFromBackup unlocks a KDBX backup blob and runs the
// create-and-upload path against the mnemonic it carries.
func (m *Manager) CreateFromBackup(ctx context.Context, username string, pin []byte, backupBlob, backupPassword []byte, accessToken string) error {
	mnemonicSecret, err := kdbx.Load(backupBlob, backupPassword)
	if err != nil {
		return err
	}
	return m.createAndUpload(ctx, username, pin, mnemonicSecret, accessToken)
}

// createAndUpload implements §4.5's "Create-and-upload path".
func (m *Manager) createAndUpload(ctx context.Context, username string, pin []byte, mnemonicSecret *secretcrypto.Secret, accessToken string) error {
	user, err := m.repo.Get(username)
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
	defer secretcrypto.ZeroBytes(password)

	gen, err := share.Split(mnemonicSecret, password)
	if err != nil {
		return err
	}

	if err := m.repo.SetLocalShare(username, gen.Local.String()); err != nil {
		return err
	}
	m.SetRecoveryShare(username, gen.Recovery.String())

	if accessToken != "" {
		if err := m.transport.UploadBackupShare(ctx, accessToken, gen.Backup.String()); err != nil {
			return err
		}
		if err := m.transport.UploadRecoveryShare(ctx, accessToken, gen.Recovery.String()); err != nil {
			return err
		}
	}
	return nil
}

// CreateBackup reconstructs the mnemonic (§4.5) and locks it into a
// KDBX blob under backupPassword.
func (m *Manager) CreateBackup(ctx context.Context, username string, pin []byte, backupPassword []byte, accessToken string) ([]byte, error) {
	mnemonicSecret, err := m.Reconstruct(ctx, username, pin, accessToken)
	if err != nil {
		return nil, err
	}
	return kdbx.Store(mnemonicSecret, backupPassword)
}

// VerifyMnemonic reconstructs the mnemonic and string-compares it
// against candidate.
func (m *Manager) VerifyMnemonic(ctx context.Context, username string, pin []byte, candidate string, accessToken string) (bool, error) {
	mnemonicSecret, err := m.Reconstruct(ctx, username, pin, accessToken)
	if err != nil {
		return false, err
	}
	return string(mnemonicSecret.Bytes()) == candidate, nil
}

// DeleteWallet implements §4.5's delete path: clear the local share and
// the in-memory recovery share, and wipe the backend copies if an
// access token is available.
func (m *Manager) DeleteWallet(ctx context.Context, username string, accessToken string) error {
	if err := m.repo.ClearLocalShare(username); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.recoveryShares, username)
	m.mu.Unlock()

	if accessToken != "" {
		if err := m.transport.DeleteAllShares(ctx, accessToken); err != nil {
			return err
		}
	}
	return nil
}

// ChangeWalletPassword implements §4.6's change-password flow,
// delegated to C6 once an existing password has been PIN-verified by
// the caller: attempt reconstruction with the current PIN, then branch
// on the outcome per §4.5.
func (m *Manager) ChangeWalletPassword(ctx context.Context, username string, pin, newPassword []byte, accessToken string) error {
	mnemonicSecret, err := m.Reconstruct(ctx, username, pin, accessToken)
	switch {
	case err == nil:
		if err := m.rewrapPassword(username, pin, newPassword); err != nil {
			return err
		}
		gen, err := share.Split(mnemonicSecret, newPassword)
		if err != nil {
			return err
		}
		if err := m.repo.SetLocalShare(username, gen.Local.String()); err != nil {
			return err
		}
		m.SetRecoveryShare(username, gen.Recovery.String())
		if accessToken != "" {
			if err := m.transport.UploadBackupShare(ctx, accessToken, gen.Backup.String()); err != nil {
				return err
			}
			if err := m.transport.UploadRecoveryShare(ctx, accessToken, gen.Recovery.String()); err != nil {
				return err
			}
		}
		return nil

	case errors.Is(err, sigilerr.ErrUseMnemonic):
		// No shares exist yet to rotate; just update the local password record.
		return m.rewrapPassword(username, pin, newPassword)

	default:
		return err
	}
}

// rewrapPassword re-encrypts newPassword under pin with a fresh salt
// and persists it, the PIN-wrapping step common to both
// ChangeWalletPassword branches.
func (m *Manager) rewrapPassword(username string, pin, newPassword []byte) error {
	salt, err := secretcrypto.NewSalt()
	if err != nil {
		return err
	}
	encrypted, err := secretcrypto.EncryptPin(newPassword, pin, salt)
	if err != nil {
		return err
	}
	return m.repo.SetEncryptedPassword(username, salt, encrypted)
}

// Reconstruct implements §4.5's share-reconstruction decision algorithm.
// It is exported so the sdk façade can materialise a signer (try_get)
// without duplicating the policy.
func (m *Manager) Reconstruct(ctx context.Context, username string, pin []byte, accessToken string) (*secretcrypto.Secret, error) {
	user, err := m.repo.Get(username)
	if err != nil {
		return nil, err
	}

	var collected []share.Share
	localUsed := false
	backupUsed := false
	recoveryNotYetUploaded := false

	if user.HasLocalShare() {
		s, err := share.Parse(user.LocalShare)
		if err != nil {
			return nil, err
		}
		collected = append(collected, s)
		localUsed = true
	}

	if recoveryStr, ok := m.GetRecoveryShare(username); ok && recoveryStr != "" {
		s, err := share.Parse(recoveryStr)
		if err != nil {
			return nil, err
		}
		collected = append(collected, s)
	} else if accessToken != "" {
		remote, err := m.transport.DownloadRecoveryShare(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		if remote != "" {
			s, err := share.Parse(remote)
			if err != nil {
				return nil, err
			}
			collected = append(collected, s)
		} else {
			recoveryNotYetUploaded = true
		}
	}

	if len(collected) < 2 && accessToken != "" {
		remote, err := m.transport.DownloadBackupShare(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		if remote != "" {
			s, err := share.Parse(remote)
			if err != nil {
				return nil, err
			}
			collected = append(collected, s)
			backupUsed = true
		}
	}

	switch {
	case len(collected) >= 2:
		return m.finishReconstruction(username, user, pin, collected, localUsed, backupUsed)

	case len(collected) == 1 && recoveryNotYetUploaded:
		return nil, sigilerr.ErrSetRecoveryShare

	default:
		return nil, sigilerr.ErrUseMnemonic
	}
}

// finishReconstruction decrypts the wallet password if the collected
// shares require it, combines them, and — if the local share was not
// among the inputs — regenerates and persists a fresh local share.
func (m *Manager) finishReconstruction(username string, user userrepo.UserEntity, pin []byte, collected []share.Share, localUsed, passwordNeeded bool) (*secretcrypto.Secret, error) {
	var password []byte
	if passwordNeeded {
		if !user.HasPassword() {
			return nil, sigilerr.ErrMissingPassword
		}
		decrypted, err := secretcrypto.DecryptPin(user.EncryptedPassword, pin, user.Salt)
		if err != nil {
			return nil, sigilerr.ErrWrongPinOrPassword
		}
		password = decrypted
		defer secretcrypto.ZeroBytes(password)
	}

	mnemonicSecret, _, err := share.Reconstruct(collected, password)
	if err != nil {
		return nil, err
	}

	if !localUsed {
		gen, err := share.Split(mnemonicSecret, []byte(dummyRegenerationPassword))
		if err != nil {
			m.log.Warn("regenerating local share for %s: %v", username, err)
			return mnemonicSecret, nil
		}
		if err := m.repo.SetLocalShare(username, gen.Local.String()); err != nil {
			m.log.Warn("persisting regenerated local share for %s: %v", username, err)
		}
	}

	return mnemonicSecret, nil
}
