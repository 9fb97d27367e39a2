// Package userrepo defines the narrow external contract the wallet
// manager and façade read/write against a user-entity storage backend
// they do not own (spec §3, C5 — "used through a narrow interface").
// Grounded on internal/service/wallet/interfaces.go's StorageProvider
// shape: a handful of named methods, no ORM surface.
package userrepo

import (
	"github.com/etopay/sigilwallet/internal/history"
)

// UserEntity is the external contract's read/write surface: the fields
// the core reads/writes plus opaque passthrough fields it never
// interprets (spec §3).
type UserEntity struct {
	Username                   string
	Salt                       []byte
	EncryptedPassword          []byte // optional; nil until §4.6 sets it
	LocalShare                 string // optional; wire-form Share string
	WalletTransactionsVersioned []history.VersionedWalletTransaction

	// Passthrough holds fields the core only carries through untouched
	// (KYC status, purchase history, etc. — out of scope per spec §1).
	Passthrough map[string]any
}

// HasPassword reports whether the user record carries a PIN-encrypted
// wallet password yet.
func (u UserEntity) HasPassword() bool {
	return len(u.EncryptedPassword) > 0
}

// HasLocalShare reports whether the user record carries a local share.
func (u UserEntity) HasLocalShare() bool {
	return u.LocalShare != ""
}

// Repository is the narrow persistence contract the wallet manager and
// façade depend on. The core never owns a database connection; it
// receives an implementation of this interface from its host
// application (spec §1's "used through a repository interface").
type Repository interface {
	// Get loads the named user's record.
	Get(username string) (UserEntity, error)

	// Save persists the full user record.
	Save(user UserEntity) error

	// SetEncryptedPassword updates only the PIN-wrapped password and salt,
	// used by §4.6's PIN/password operations so they don't need to
	// round-trip the whole record (including the transaction list).
	SetEncryptedPassword(username string, salt, encryptedPassword []byte) error

	// SetLocalShare updates only the local share field, used by the
	// wallet-creation and share-regeneration paths (§4.5).
	SetLocalShare(username string, localShare string) error

	// ClearLocalShare removes the local share, used by wallet deletion (§4.5).
	ClearLocalShare(username string) error

	// SaveTransactions persists the full versioned transaction list,
	// satisfying internal/history.Repository.
	SaveTransactions(username string, txs []history.VersionedWalletTransaction) error

	// LoadTransactions loads the full versioned transaction list,
	// satisfying internal/history.Repository.
	LoadTransactions(username string) ([]history.VersionedWalletTransaction, error)
}
