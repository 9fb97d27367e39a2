package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/history"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

type fakeSigner struct {
	recentHashes []string
	recentErr    error
	byHash       map[string]history.WalletTransaction
}

func (f *fakeSigner) ListRecentHashes(context.Context) ([]string, error) {
	return f.recentHashes, f.recentErr
}

func (f *fakeSigner) FetchTransaction(_ context.Context, hash string) (history.WalletTransaction, error) {
	tx, ok := f.byHash[hash]
	if !ok {
		return history.WalletTransaction{}, sigilerr.ErrTransactionNotFound
	}
	return tx, nil
}

type fakeRepo struct {
	txs []history.VersionedWalletTransaction
}

func (f *fakeRepo) LoadTransactions(string) ([]history.VersionedWalletTransaction, error) {
	return f.txs, nil
}

func (f *fakeRepo) SaveTransactions(_ string, txs []history.VersionedWalletTransaction) error {
	f.txs = txs
	return nil
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

func TestReconcileAppendsNewHashesAndDedupes(t *testing.T) {
	t.Parallel()
	now := time.Now()

	repo := &fakeRepo{txs: []history.VersionedWalletTransaction{
		{V2: &history.WalletTransaction{TransactionHash: "0xold", NetworkKey: "eth", Date: now.Add(-time.Hour), Status: history.StatusConfirmed}},
	}}
	signer := &fakeSigner{
		recentHashes: []string{"0xold", "0xnew"},
		byHash: map[string]history.WalletTransaction{
			"0xnew": {TransactionHash: "0xnew", NetworkKey: "eth", Date: now, Status: history.StatusConfirmed},
		},
	}

	out, err := history.Reconcile(context.Background(), "alice", "eth", 0, 10, signer, repo, noopLogger{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "0xnew", out[0].TransactionHash) // sorted descending by date
	assert.Equal(t, "0xold", out[1].TransactionHash)
	assert.Len(t, repo.txs, 2)
}

func TestReconcileTreatsFeatureNotImplementedAsNothingNew(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{}
	signer := &fakeSigner{recentErr: sigilerr.ErrFeatureNotImplemented}

	out, err := history.Reconcile(context.Background(), "alice", "eth", 0, 10, signer, repo, noopLogger{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReconcileFiltersByActiveNetworkKey(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := &fakeRepo{txs: []history.VersionedWalletTransaction{
		{V2: &history.WalletTransaction{TransactionHash: "0xeth", NetworkKey: "eth", Date: now, Status: history.StatusConfirmed}},
		{V2: &history.WalletTransaction{TransactionHash: "0xbsv", NetworkKey: "stardust", Date: now, Status: history.StatusConfirmed}},
	}}
	signer := &fakeSigner{}

	out, err := history.Reconcile(context.Background(), "alice", "eth", 0, 10, signer, repo, noopLogger{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "0xeth", out[0].TransactionHash)
}

func TestReconcilePromotesPendingToConfirmed(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := &fakeRepo{txs: []history.VersionedWalletTransaction{
		{V2: &history.WalletTransaction{TransactionHash: "0xpending", NetworkKey: "eth", Date: now, Status: history.StatusPending}},
	}}
	signer := &fakeSigner{byHash: map[string]history.WalletTransaction{
		"0xpending": {TransactionHash: "0xpending", NetworkKey: "eth", Date: now, Status: history.StatusConfirmed},
	}}

	out, err := history.Reconcile(context.Background(), "alice", "eth", 0, 10, signer, repo, noopLogger{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, history.StatusConfirmed, out[0].Status)
}

func TestReconcileMigratesLegacyRecordOnFetchSuccess(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := &fakeRepo{txs: []history.VersionedWalletTransaction{
		{V1: &history.LegacyWalletTransaction{TransactionHash: "0xlegacy", NetworkKey: "eth", Date: now, Confirmed: true}},
	}}
	signer := &fakeSigner{byHash: map[string]history.WalletTransaction{
		"0xlegacy": {TransactionHash: "0xlegacy", NetworkKey: "eth", Date: now, Status: history.StatusConfirmed},
	}}

	out, err := history.Reconcile(context.Background(), "alice", "eth", 0, 10, signer, repo, noopLogger{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, repo.txs[0].IsLegacy())
}

func TestReconcileLeavesRecordUnchangedOnFailedRefetch(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := &fakeRepo{txs: []history.VersionedWalletTransaction{
		{V2: &history.WalletTransaction{TransactionHash: "0xgone", NetworkKey: "eth", Date: now, Status: history.StatusPending}},
	}}
	signer := &fakeSigner{byHash: map[string]history.WalletTransaction{}}

	out, err := history.Reconcile(context.Background(), "alice", "eth", 0, 10, signer, repo, noopLogger{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, history.StatusPending, out[0].Status)
}

func TestReconcilePaginationIsStable(t *testing.T) {
	t.Parallel()
	now := time.Now()
	repo := &fakeRepo{txs: []history.VersionedWalletTransaction{
		{V2: &history.WalletTransaction{TransactionHash: "a", NetworkKey: "eth", Date: now, Status: history.StatusConfirmed}},
		{V2: &history.WalletTransaction{TransactionHash: "b", NetworkKey: "eth", Date: now.Add(-time.Minute), Status: history.StatusConfirmed}},
		{V2: &history.WalletTransaction{TransactionHash: "c", NetworkKey: "eth", Date: now.Add(-2 * time.Minute), Status: history.StatusConfirmed}},
	}}
	signer := &fakeSigner{}

	page1, err := history.Reconcile(context.Background(), "alice", "eth", 0, 2, signer, repo, noopLogger{})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, []string{"a", "b"}, []string{page1[0].TransactionHash, page1[1].TransactionHash})

	page2, err := history.Reconcile(context.Background(), "alice", "eth", 2, 2, signer, repo, noopLogger{})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "c", page2[0].TransactionHash)
}
