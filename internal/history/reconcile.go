package history

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// maxParallelFetches bounds how many per-hash detail fetches run at
// once, mirroring the teacher's rate-limited fan-out pattern elsewhere
// in the chain clients without needing a shared limiter here.
const maxParallelFetches = 8

// Reconcile implements §4.10's pipeline for one page of a user's
// transaction history on the active network. The caller (the SDK
// façade's GetWalletTxList) has already verified the PIN and
// materialised signer.
func Reconcile(ctx context.Context, username, activeNetworkKey string, start, limit int, signer Signer, repo Repository, log Logger) ([]WalletTransaction, error) {
	records, err := repo.LoadTransactions(username)
	if err != nil {
		return nil, err
	}

	records, err = appendNewlyObserved(ctx, records, activeNetworkKey, signer, log)
	if err != nil {
		return nil, err
	}

	// Step 5: sort the whole list (every network) by date descending,
	// before the per-record migrate/promote rewrite below.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].date().After(records[j].date())
	})

	windowed, windowIdx := windowForNetwork(records, activeNetworkKey, start, limit)

	result := make([]WalletTransaction, 0, len(windowed))
	for _, idx := range windowIdx {
		rec := records[idx]
		updated, v2 := promote(ctx, rec, signer)
		records[idx] = updated
		result = append(result, v2)
	}

	if saveErr := repo.SaveTransactions(username, records); saveErr != nil {
		log.Warn("persisting reconciled transaction history for %s: %v", username, saveErr)
	}

	return result, nil
}

// appendNewlyObserved asks the signer for recently seen hashes and
// fetches+appends any not already present under activeNetworkKey.
// ErrFeatureNotImplemented (EVM signers) is treated as "nothing new".
// Per-hash fetch failures are logged and skipped — one bad hash never
// fails the whole list.
func appendNewlyObserved(ctx context.Context, records []VersionedWalletTransaction, activeNetworkKey string, signer Signer, log Logger) ([]VersionedWalletTransaction, error) {
	hashes, err := signer.ListRecentHashes(ctx)
	if err != nil {
		if errors.Is(err, sigilerr.ErrFeatureNotImplemented) {
			return records, nil
		}
		return nil, err
	}

	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.networkKey() == activeNetworkKey {
			known[r.hash()] = struct{}{}
		}
	}

	var toFetch []string
	for _, h := range hashes {
		if _, ok := known[h]; !ok {
			toFetch = append(toFetch, h)
		}
	}
	if len(toFetch) == 0 {
		return records, nil
	}

	fetched := make([]*WalletTransaction, len(toFetch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, h := range toFetch {
		i, h := i, h
		g.Go(func() error {
			tx, fetchErr := signer.FetchTransaction(gctx, h)
			if fetchErr != nil {
				log.Warn("fetching transaction %s: %v", h, fetchErr)
				return nil
			}
			fetched[i] = &tx
			return nil
		})
	}
	_ = g.Wait() // per-hash errors are swallowed above; this only reports setup failures

	for _, tx := range fetched {
		if tx != nil {
			records = append(records, VersionedWalletTransaction{V2: tx})
		}
	}
	return records, nil
}

// windowForNetwork restricts the already-sorted full record list to
// activeNetworkKey, then applies skip(start).take(limit). It returns
// the windowed records alongside their indices into the original slice
// so the caller can write back any promoted/migrated record in place.
func windowForNetwork(records []VersionedWalletTransaction, activeNetworkKey string, start, limit int) ([]VersionedWalletTransaction, []int) {
	var filteredIdx []int
	for i, r := range records {
		if r.networkKey() == activeNetworkKey {
			filteredIdx = append(filteredIdx, i)
		}
	}

	if start >= len(filteredIdx) {
		return nil, nil
	}
	end := start + limit
	if end > len(filteredIdx) || limit <= 0 {
		end = len(filteredIdx)
	}

	windowIdx := filteredIdx[start:end]
	windowed := make([]VersionedWalletTransaction, len(windowIdx))
	for i, idx := range windowIdx {
		windowed[i] = records[idx]
	}
	return windowed, windowIdx
}

// promote applies §4.10 step 6's per-record rewrite: a V1 record always
// attempts an on-chain re-fetch; a V2 record only does so while
// Pending. A failed re-fetch leaves the record as-is and still emits
// its current V2 projection.
func promote(ctx context.Context, rec VersionedWalletTransaction, signer Signer) (VersionedWalletTransaction, WalletTransaction) {
	hash := rec.hash()

	needsRefetch := rec.IsLegacy() || (rec.V2 != nil && rec.V2.Status == StatusPending)
	if !needsRefetch || hash == "" {
		return rec, rec.AsV2()
	}

	fresh, err := signer.FetchTransaction(ctx, hash)
	if err != nil {
		return rec, rec.AsV2()
	}

	updated := VersionedWalletTransaction{V2: &fresh}
	return updated, fresh
}
