package sdk_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/history"
	"github.com/etopay/sigilwallet/internal/network"
	"github.com/etopay/sigilwallet/internal/sdk"
	"github.com/etopay/sigilwallet/internal/sdkconfig"
	"github.com/etopay/sigilwallet/internal/userrepo"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

type fakeRepo struct {
	users map[string]userrepo.UserEntity
}

func newFakeRepo() *fakeRepo { return &fakeRepo{users: make(map[string]userrepo.UserEntity)} }

func (r *fakeRepo) Get(username string) (userrepo.UserEntity, error) {
	return r.users[username], nil
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

func sepoliaConfig() *sdkconfig.Config {
	return &sdkconfig.Config{
		Networks: map[string]sdkconfig.NetworkConfig{
			"sepolia": {
				Network: network.Network{
					Key: "sepolia", Protocol: network.ProtocolEvm,
					ChainID: 11155111, CoinType: 60, Decimals: 18,
				},
				Endpoint: "https://rpc.sepolia.example",
			},
		},
		Logging: sdkconfig.LoggingConfig{Level: "off"},
	}
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	t.Parallel()
	s := sdk.New(newFakeRepo(), nil)
	require.Error(t, s.SetConfig(sdkconfig.Defaults()))
}

func TestOperationsRequireConfigBeforeAnythingElse(t *testing.T) {
	t.Parallel()
	s := sdk.New(newFakeRepo(), nil)

	assert.ErrorIs(t, s.SetNetwork("sepolia"), sigilerr.ErrMissingConfig)
	assert.ErrorIs(t, s.InitUser(""), sigilerr.ErrUserNotInit)

	require.NoError(t, s.SetConfig(sepoliaConfig()))
	require.NoError(t, s.InitUser("alice"))

	_, err := s.GetBalance(context.Background(), []byte("1234"))
	assert.ErrorIs(t, err, sigilerr.ErrMissingNetwork)
}

func TestWalletLifecycleWithoutBackend(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	s := sdk.New(repo, nil)

	require.NoError(t, s.SetConfig(sepoliaConfig()))
	require.NoError(t, s.InitUser("alice"))
	require.NoError(t, s.SetNetwork("sepolia"))

	ctx := context.Background()
	pin := []byte("1234")

	ok, err := s.IsWalletPasswordSet(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetWalletPassword(ctx, pin, []byte("hunter2")))

	ok, err = s.IsWalletPasswordSet(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	mnemonic, err := s.CreateWalletFromNewMnemonic(ctx, pin)
	require.NoError(t, err)
	assert.NotEmpty(t, mnemonic)

	matches, err := s.VerifyMnemonic(ctx, pin, mnemonic)
	require.NoError(t, err)
	assert.True(t, matches)

	matches, err = s.VerifyMnemonic(ctx, pin, "wrong wrong wrong")
	require.NoError(t, err)
	assert.False(t, matches)

	recoveryShare, ok, err := s.GetRecoveryShare(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, recoveryShare)

	addr, err := s.GenerateNewAddress(ctx, pin)
	require.NoError(t, err)
	assert.Contains(t, addr, "0x")

	require.NoError(t, s.VerifyPin(ctx, pin))
	assert.ErrorIs(t, s.VerifyPin(ctx, []byte("0000")), sigilerr.ErrWrongPinOrPassword)

	require.NoError(t, s.DeleteWallet(ctx, pin))

	user, err := repo.Get("alice")
	require.NoError(t, err)
	assert.False(t, user.HasLocalShare())
}

func TestChangePinRewrapsPassword(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	s := sdk.New(repo, nil)
	require.NoError(t, s.SetConfig(sepoliaConfig()))
	require.NoError(t, s.InitUser("alice"))

	ctx := context.Background()
	require.NoError(t, s.SetWalletPassword(ctx, []byte("1234"), []byte("hunter2")))
	require.NoError(t, s.ChangePin(ctx, []byte("1234"), []byte("5678")))

	assert.ErrorIs(t, s.VerifyPin(ctx, []byte("1234")), sigilerr.ErrWrongPinOrPassword)
	require.NoError(t, s.VerifyPin(ctx, []byte("5678")))
}

func TestDeleteWalletWipesBackendShares(t *testing.T) {
	t.Parallel()

	var deleted bool
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/shares" && r.Method == http.MethodDelete {
			deleted = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer backend.Close()

	repo := newFakeRepo()
	s := sdk.New(repo, nil)

	cfg := sepoliaConfig()
	cfg.Backend = sdkconfig.BackendConfig{BaseURL: backend.URL, AppName: "sigilwallet"}
	require.NoError(t, s.SetConfig(cfg))
	require.NoError(t, s.InitUser("alice"))

	ctx := context.Background()
	require.NoError(t, s.SetWalletPassword(ctx, []byte("1234"), []byte("hunter2")))
	s.SetAccessToken("tok")

	require.NoError(t, s.DeleteWallet(ctx, []byte("1234")))
	assert.True(t, deleted)
}
