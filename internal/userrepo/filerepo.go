package userrepo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/etopay/sigilwallet/internal/history"
)

const (
	userFileExtension = ".user.json"
	userDirPerm       = 0o750
	userFilePerm      = 0o600
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// FileRepository is a filesystem-backed Repository: one JSON file per
// username under baseDir, guarded by an in-process mutex since the
// façade already serialises writers but a host may still share one
// FileRepository across goroutines that aren't going through it.
// Grounded on the teacher's internal/wallet/storage.go FileStorage —
// same one-file-per-entity layout, path-traversal guard on the
// validated name, and 0600/0750 permission split.
type FileRepository struct {
	mu      sync.Mutex
	baseDir string
}

// NewFileRepository returns a FileRepository rooted at baseDir,
// creating it if necessary.
func NewFileRepository(baseDir string) (*FileRepository, error) {
	if err := os.MkdirAll(baseDir, userDirPerm); err != nil {
		return nil, fmt.Errorf("creating user repository directory: %w", err)
	}
	return &FileRepository{baseDir: baseDir}, nil
}

func (r *FileRepository) userPath(username string) (string, error) {
	if !usernamePattern.MatchString(username) {
		return "", fmt.Errorf("invalid username %q", username)
	}
	path := filepath.Join(r.baseDir, username+userFileExtension)
	if filepath.Dir(path) != filepath.Clean(r.baseDir) {
		return "", fmt.Errorf("invalid username %q", username)
	}
	return path, nil
}

func (r *FileRepository) Get(username string) (UserEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, err := r.userPath(username)
	if err != nil {
		return UserEntity{}, err
	}

	// #nosec G304 -- path built from a validated username, not raw input
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return UserEntity{Username: username}, nil
	}
	if err != nil {
		return UserEntity{}, fmt.Errorf("reading user record: %w", err)
	}

	var user UserEntity
	if err := json.Unmarshal(data, &user); err != nil {
		return UserEntity{}, fmt.Errorf("parsing user record: %w", err)
	}
	return user, nil
}

func (r *FileRepository) Save(user UserEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeLocked(user)
}

func (r *FileRepository) SetEncryptedPassword(username string, salt, encryptedPassword []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.getLocked(username)
	if err != nil {
		return err
	}
	user.Salt = salt
	user.EncryptedPassword = encryptedPassword
	return r.writeLocked(user)
}

func (r *FileRepository) SetLocalShare(username, localShare string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.getLocked(username)
	if err != nil {
		return err
	}
	user.LocalShare = localShare
	return r.writeLocked(user)
}

func (r *FileRepository) ClearLocalShare(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.getLocked(username)
	if err != nil {
		return err
	}
	user.LocalShare = ""
	return r.writeLocked(user)
}

func (r *FileRepository) SaveTransactions(username string, txs []history.VersionedWalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.getLocked(username)
	if err != nil {
		return err
	}
	user.WalletTransactionsVersioned = txs
	return r.writeLocked(user)
}

func (r *FileRepository) LoadTransactions(username string) ([]history.VersionedWalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, err := r.getLocked(username)
	if err != nil {
		return nil, err
	}
	return user.WalletTransactionsVersioned, nil
}

// getLocked/writeLocked are the mutex-held counterparts of Get/Save,
// used internally so the single-field setters don't re-lock.
func (r *FileRepository) getLocked(username string) (UserEntity, error) {
	path, err := r.userPath(username)
	if err != nil {
		return UserEntity{}, err
	}

	// #nosec G304 -- path built from a validated username, not raw input
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return UserEntity{Username: username}, nil
	}
	if err != nil {
		return UserEntity{}, fmt.Errorf("reading user record: %w", err)
	}

	var user UserEntity
	if err := json.Unmarshal(data, &user); err != nil {
		return UserEntity{}, fmt.Errorf("parsing user record: %w", err)
	}
	return user, nil
}

func (r *FileRepository) writeLocked(user UserEntity) error {
	path, err := r.userPath(user.Username)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding user record: %w", err)
	}
	return os.WriteFile(path, data, userFilePerm)
}
