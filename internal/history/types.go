// Package history implements the per-user, per-network transaction
// cache: the versioned record types (spec §3) and the reconciliation
// pipeline that merges signer-observed hashes into them (C10, §4.10).
// Grounded on internal/service/transaction/types.go's request/result
// value-object style.
package history

import "time"

// Status is a V2 transaction's confirmation state.
type Status string

const (
	// StatusPending means the transaction has not yet been included in a block.
	StatusPending Status = "pending"
	// StatusConfirmed means the transaction succeeded on-chain.
	StatusConfirmed Status = "confirmed"
	// StatusConflicting means the transaction was included but reverted/failed.
	StatusConflicting Status = "conflicting"
)

// WalletTransaction is the current (V2) transaction record shape.
type WalletTransaction struct {
	Date            time.Time
	BlockNumberHash string // optional; empty if not yet included
	TransactionHash string
	Sender          string
	Receiver        string
	Amount          string // decimal string; see internal/amount.CryptoAmount
	NetworkKey      string
	Status          Status
	ExplorerURL     string // optional
	GasFee          string // optional, decimal string
	IsSender        bool
}

// Key returns the (transaction_hash, network_key) de-duplication key
// spec §4.10 mandates: the same hash on two chains is two records.
func (t WalletTransaction) Key() (string, string) {
	return t.TransactionHash, t.NetworkKey
}

// LegacyWalletTransaction is the V1 schema, retained only so old
// records can be upgraded in place. It comes from an earlier iteration
// of the wire format and has fewer fields than V2 (no status, gas fee,
// explorer URL, block reference or IsSender); its Confirmed bool maps to
// Status on migration and its Note has no V2 counterpart and is dropped.
type LegacyWalletTransaction struct {
	Date            time.Time
	TransactionHash string
	Sender          string
	Receiver        string
	Amount          string
	NetworkKey      string
	Confirmed       bool // V1 had no tri-state status, just a bool
	Note            string
}

// VersionedWalletTransaction is the tagged variant {V1, V2} persisted on
// the user record. Exactly one of V1/V2 is non-nil.
type VersionedWalletTransaction struct {
	V1 *LegacyWalletTransaction
	V2 *WalletTransaction
}

// IsLegacy reports whether this record still needs migration.
func (v VersionedWalletTransaction) IsLegacy() bool {
	return v.V1 != nil
}

// migrateLegacy upgrades a V1 record to V2 without an on-chain re-fetch, used
// as the fallback when the re-fetch attempt in the reconciliation
// pipeline fails (the record stays usable, just not refreshed).
func migrateLegacy(v1 LegacyWalletTransaction) WalletTransaction {
	status := StatusPending
	if v1.Confirmed {
		status = StatusConfirmed
	}
	return WalletTransaction{
		Date:            v1.Date,
		TransactionHash: v1.TransactionHash,
		Sender:          v1.Sender,
		Receiver:        v1.Receiver,
		Amount:          v1.Amount,
		NetworkKey:      v1.NetworkKey,
		Status:          status,
	}
}

// AsV2 returns the record's V2 projection, migrating a V1 record
// in-memory (without persisting) if needed.
func (v VersionedWalletTransaction) AsV2() WalletTransaction {
	if v.V2 != nil {
		return *v.V2
	}
	return migrateLegacy(*v.V1)
}

// networkKey returns the record's network key regardless of version.
func (v VersionedWalletTransaction) networkKey() string {
	if v.V2 != nil {
		return v.V2.NetworkKey
	}
	if v.V1 != nil {
		return v.V1.NetworkKey
	}
	return ""
}

// hash returns the record's transaction hash regardless of version.
func (v VersionedWalletTransaction) hash() string {
	if v.V2 != nil {
		return v.V2.TransactionHash
	}
	if v.V1 != nil {
		return v.V1.TransactionHash
	}
	return ""
}

// date returns the record's date regardless of version, used for the
// descending sort in the reconciliation pipeline.
func (v VersionedWalletTransaction) date() time.Time {
	if v.V2 != nil {
		return v.V2.Date
	}
	if v.V1 != nil {
		return v.V1.Date
	}
	return time.Time{}
}
