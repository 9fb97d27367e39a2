package walletmanager_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/history"
	"github.com/etopay/sigilwallet/internal/secretcrypto"
	"github.com/etopay/sigilwallet/internal/share"
	"github.com/etopay/sigilwallet/internal/userrepo"
	"github.com/etopay/sigilwallet/internal/walletmanager"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

type fakeRepo struct {
	users map[string]userrepo.UserEntity
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]userrepo.UserEntity)}
}

func (r *fakeRepo) Get(username string) (userrepo.UserEntity, error) {
	u, ok := r.users[username]
	if !ok {
		return userrepo.UserEntity{}, sigilerr.ErrUserNotInit
	}
	return u, nil
}

func (r *fakeRepo) Save(user userrepo.UserEntity) error {
	r.users[user.Username] = user
	return nil
}

func (r *fakeRepo) SetEncryptedPassword(username string, salt, encryptedPassword []byte) error {
	u := r.users[username]
	u.Username = username
	u.Salt = salt
	u.EncryptedPassword = encryptedPassword
	r.users[username] = u
	return nil
}

func (r *fakeRepo) SetLocalShare(username, localShare string) error {
	u := r.users[username]
	u.Username = username
	u.LocalShare = localShare
	r.users[username] = u
	return nil
}

func (r *fakeRepo) ClearLocalShare(username string) error {
	u := r.users[username]
	u.LocalShare = ""
	r.users[username] = u
	return nil
}

func (r *fakeRepo) SaveTransactions(username string, txs []history.VersionedWalletTransaction) error {
	u := r.users[username]
	u.WalletTransactionsVersioned = txs
	r.users[username] = u
	return nil
}

func (r *fakeRepo) LoadTransactions(username string) ([]history.VersionedWalletTransaction, error) {
	return r.users[username].WalletTransactionsVersioned, nil
}

type fakeTransport struct {
	backup, recovery map[string]string // accessToken -> share
	uploadErr        error
	deleted          map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{backup: map[string]string{}, recovery: map[string]string{}, deleted: map[string]bool{}}
}

func (t *fakeTransport) UploadBackupShare(_ context.Context, accessToken, s string) error {
	if t.uploadErr != nil {
		return t.uploadErr
	}
	t.backup[accessToken] = s
	return nil
}

func (t *fakeTransport) UploadRecoveryShare(_ context.Context, accessToken, s string) error {
	if t.uploadErr != nil {
		return t.uploadErr
	}
	t.recovery[accessToken] = s
	return nil
}

func (t *fakeTransport) DownloadBackupShare(_ context.Context, accessToken string) (string, error) {
	return t.backup[accessToken], nil
}

func (t *fakeTransport) DownloadRecoveryShare(_ context.Context, accessToken string) (string, error) {
	return t.recovery[accessToken], nil
}

func (t *fakeTransport) DeleteAllShares(_ context.Context, accessToken string) error {
	t.deleted[accessToken] = true
	delete(t.backup, accessToken)
	delete(t.recovery, accessToken)
	return nil
}

type fakeLogger struct{ warnings []string }

func (l *fakeLogger) Warn(format string, args ...any) {
	l.warnings = append(l.warnings, format)
}

func setupUserWithPassword(t *testing.T, repo *fakeRepo, username string, pin, password []byte) {
	t.Helper()
	salt, err := secretcrypto.NewSalt()
	require.NoError(t, err)
	encrypted, err := secretcrypto.EncryptPin(password, pin, salt)
	require.NoError(t, err)
	require.NoError(t, repo.SetEncryptedPassword(username, salt, encrypted))
}

func TestCreateFromNewMnemonicUploadsSharesAndPersistsLocal(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	transport := newFakeTransport()
	pin := []byte("1234")
	password := []byte("hunter2")
	setupUserWithPassword(t, repo, "alice", pin, password)

	m := walletmanager.New(repo, transport, &fakeLogger{})
	mnemonic, err := m.CreateFromNewMnemonic(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)
	assert.NotEmpty(t, mnemonic)

	user, err := repo.Get("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, user.LocalShare)
	assert.NotEmpty(t, transport.backup["tok"])
	assert.NotEmpty(t, transport.recovery["tok"])

	recoveryShare, ok := m.GetRecoveryShare("alice")
	assert.True(t, ok)
	assert.NotEmpty(t, recoveryShare)
}

func TestCreateRequiresPasswordSet(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	require.NoError(t, repo.Save(userrepo.UserEntity{Username: "bob"}))
	transport := newFakeTransport()

	m := walletmanager.New(repo, transport, &fakeLogger{})
	_, err := m.CreateFromNewMnemonic(context.Background(), "bob", []byte("1234"), "tok")
	require.ErrorIs(t, err, sigilerr.ErrMissingPassword)
}

func TestReconstructWithLocalAndInMemoryRecovery(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	transport := newFakeTransport()
	pin := []byte("1234")
	password := []byte("hunter2")
	setupUserWithPassword(t, repo, "alice", pin, password)

	m := walletmanager.New(repo, transport, &fakeLogger{})
	mnemonic, err := m.CreateFromNewMnemonic(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)

	got, err := m.Reconstruct(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)
	assert.Equal(t, mnemonic, string(got.Bytes()))
}

func TestReconstructFromRemoteRecoveryAndBackupRegeneratesLocal(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	transport := newFakeTransport()
	pin := []byte("1234")
	password := []byte("hunter2")
	setupUserWithPassword(t, repo, "alice", pin, password)

	m := walletmanager.New(repo, transport, &fakeLogger{})
	mnemonic, err := m.CreateFromNewMnemonic(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)

	// Simulate a fresh device: no local share, no in-memory recovery share,
	// only what's on the backend.
	require.NoError(t, repo.ClearLocalShare("alice"))
	m2 := walletmanager.New(repo, transport, &fakeLogger{})

	got, err := m2.Reconstruct(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)
	assert.Equal(t, mnemonic, string(got.Bytes()))

	user, err := repo.Get("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, user.LocalShare, "a fresh local share should be regenerated and persisted")
}

func TestReconstructFailsSetRecoveryShareWhenOnlyLocalPresentAndRecoveryNotUploaded(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	transport := newFakeTransport()
	pin := []byte("1234")
	password := []byte("hunter2")
	setupUserWithPassword(t, repo, "alice", pin, password)

	gen, err := share.Split(secretcrypto.SecretFromString("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"), password)
	require.NoError(t, err)
	require.NoError(t, repo.SetLocalShare("alice", gen.Local.String()))

	m := walletmanager.New(repo, transport, &fakeLogger{})
	_, err = m.Reconstruct(context.Background(), "alice", pin, "tok")
	require.ErrorIs(t, err, sigilerr.ErrSetRecoveryShare)
}

func TestReconstructFailsUseMnemonicWithNoSharesAnywhere(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	require.NoError(t, repo.Save(userrepo.UserEntity{Username: "carol"}))
	transport := newFakeTransport()

	m := walletmanager.New(repo, transport, &fakeLogger{})
	_, err := m.Reconstruct(context.Background(), "carol", []byte("1234"), "")
	require.ErrorIs(t, err, sigilerr.ErrUseMnemonic)
}

func TestChangeWalletPasswordRotatesSharesOnSuccess(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	transport := newFakeTransport()
	pin := []byte("1234")
	oldPassword := []byte("hunter2")
	setupUserWithPassword(t, repo, "alice", pin, oldPassword)

	m := walletmanager.New(repo, transport, &fakeLogger{})
	mnemonic, err := m.CreateFromNewMnemonic(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)

	newPassword := []byte("newpw")
	err = m.ChangeWalletPassword(context.Background(), "alice", pin, newPassword, "tok")
	require.NoError(t, err)

	got, err := m.Reconstruct(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)
	assert.Equal(t, mnemonic, string(got.Bytes()))
}

func TestChangeWalletPasswordWithNoSharesOnlyUpdatesRecord(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	require.NoError(t, repo.Save(userrepo.UserEntity{Username: "dave"}))
	transport := newFakeTransport()

	m := walletmanager.New(repo, transport, &fakeLogger{})
	err := m.ChangeWalletPassword(context.Background(), "dave", []byte("1234"), []byte("newpw"), "")
	require.NoError(t, err)

	user, err := repo.Get("dave")
	require.NoError(t, err)
	assert.True(t, user.HasPassword())
}

func TestDeleteWalletClearsLocalAndCallsBackend(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	transport := newFakeTransport()
	pin := []byte("1234")
	password := []byte("hunter2")
	setupUserWithPassword(t, repo, "alice", pin, password)

	m := walletmanager.New(repo, transport, &fakeLogger{})
	_, err := m.CreateFromNewMnemonic(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)

	err = m.DeleteWallet(context.Background(), "alice", "tok")
	require.NoError(t, err)

	user, err := repo.Get("alice")
	require.NoError(t, err)
	assert.Empty(t, user.LocalShare)
	assert.True(t, transport.deleted["tok"])

	_, ok := m.GetRecoveryShare("alice")
	assert.False(t, ok)
}

func TestReconstructWrongPinSurfacesWrongPinOrPassword(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	transport := newFakeTransport()
	pin := []byte("1234")
	password := []byte("hunter2")
	setupUserWithPassword(t, repo, "alice", pin, password)

	m := walletmanager.New(repo, transport, &fakeLogger{})
	_, err := m.CreateFromNewMnemonic(context.Background(), "alice", pin, "tok")
	require.NoError(t, err)

	// Force a reconstruction that requires the password (clear in-memory
	// recovery share and local share so only backend backup+recovery remain).
	require.NoError(t, repo.ClearLocalShare("alice"))
	m2 := walletmanager.New(repo, transport, &fakeLogger{})

	_, err = m2.Reconstruct(context.Background(), "alice", []byte("0000"), "tok")
	require.ErrorIs(t, err, sigilerr.ErrWrongPinOrPassword)
}
