// Package sigilerr provides the structured error taxonomy for the
// wallet-secret core: a single WalletError type plus a sentinel table
// covering pre-condition failures, the three WalletNotInitialized
// outcomes of the share-reconstruction decision, and the backend/chain
// failure classes.
package sigilerr

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes, mirrored onto any CLI embedding the core.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitInput      = 2
	ExitAuth       = 3
	ExitNotFound   = 4
	ExitPermission = 5
)

// WalletError is the structured error type returned by every core operation.
type WalletError struct {
	Code       string
	Message    string
	Details    map[string]string
	Suggestion string
	Cause      error
	ExitCode   int
}

func (e *WalletError) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *WalletError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is by comparing error codes, so a wrapped
// WalletError still matches its sentinel regardless of added context.
func (e *WalletError) Is(target error) bool {
	var t *WalletError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors matching spec §7's taxonomy.
var (
	ErrMissingConfig         = &WalletError{Code: "MISSING_CONFIG", Message: "configuration not set", ExitCode: ExitInput}
	ErrUserRepoNotInit       = &WalletError{Code: "USER_REPO_NOT_INITIALIZED", Message: "user repository not initialized", ExitCode: ExitGeneral}
	ErrUserNotInit           = &WalletError{Code: "USER_NOT_INITIALIZED", Message: "no active user", ExitCode: ExitInput}
	ErrMissingNetwork        = &WalletError{Code: "MISSING_NETWORK", Message: "no active network", ExitCode: ExitInput}
	ErrMissingAccessToken    = &WalletError{Code: "MISSING_ACCESS_TOKEN", Message: "no access token set", ExitCode: ExitAuth}
	ErrWrongPinOrPassword    = &WalletError{Code: "WRONG_PIN_OR_PASSWORD", Message: "wrong PIN or password", ExitCode: ExitAuth}
	ErrTransactionNotFound   = &WalletError{Code: "TRANSACTION_NOT_FOUND", Message: "transaction not found", ExitCode: ExitNotFound}
	ErrConversionError       = &WalletError{Code: "CONVERSION_ERROR", Message: "amount conversion failed", ExitCode: ExitInput}
	ErrFeatureNotImplemented = &WalletError{Code: "WALLET_FEATURE_NOT_IMPLEMENTED", Message: "feature not implemented for this network", ExitCode: ExitGeneral}
	ErrFeatureUnavailable    = &WalletError{Code: "FEATURE_UNAVAILABLE", Message: "feature not available in this core", ExitCode: ExitGeneral}

	// WalletNotInitialized kinds — the three distinct outcomes of §4.5's decision step.
	ErrMissingPassword  = &WalletError{Code: "WALLET_NOT_INITIALIZED_MISSING_PASSWORD", Message: "wallet password is required but unavailable", ExitCode: ExitAuth}
	ErrSetRecoveryShare = &WalletError{Code: "WALLET_NOT_INITIALIZED_SET_RECOVERY_SHARE", Message: "recovery share must be supplied to continue", ExitCode: ExitInput}
	ErrUseMnemonic      = &WalletError{Code: "WALLET_NOT_INITIALIZED_USE_MNEMONIC", Message: "wallet must be restored from mnemonic or backup", ExitCode: ExitInput}

	// Share(*) kinds — §4.2's reconstruction algebra failures.
	ErrNotEnoughShares      = &WalletError{Code: "SHARE_NOT_ENOUGH_SHARES", Message: "not enough shares to reconstruct secret", ExitCode: ExitInput}
	ErrIncompatibleShares   = &WalletError{Code: "SHARE_INCOMPATIBLE", Message: "shares disagree on payload type or encoding", ExitCode: ExitInput}
	ErrPasswordNotProvided = &WalletError{Code: "SHARE_PASSWORD_NOT_PROVIDED", Message: "password required to decrypt an encrypted share", ExitCode: ExitAuth}
	ErrShareMalformed       = &WalletError{Code: "SHARE_MALFORMED", Message: "malformed share string", ExitCode: ExitInput}
	ErrShareDecode          = &WalletError{Code: "SHARE_DECODE_FAILED", Message: "share decode failed", ExitCode: ExitInput}
	ErrShareReconstruction  = &WalletError{Code: "SHARE_RECONSTRUCTION_FAILED", Message: "share reconstruction failed", ExitCode: ExitInput}
	ErrDecryptionFailed     = &WalletError{Code: "DECRYPTION_FAILED", Message: "decryption failed", ExitCode: ExitAuth}

	// KdbxStorage(*) kinds.
	ErrKdbxUnlock   = &WalletError{Code: "KDBX_UNLOCK_FAILED", Message: "backup unlock failed", ExitCode: ExitAuth}
	ErrKdbxSerialize = &WalletError{Code: "KDBX_SERIALIZE_FAILED", Message: "backup serialization failed", ExitCode: ExitGeneral}

	// Backend(code, body).
	ErrBackend = &WalletError{Code: "BACKEND_ERROR", Message: "unexpected backend response", ExitCode: ExitGeneral}

	// Transaction validation (purchase confirmation / network mismatch).
	ErrInvalidTransaction = &WalletError{Code: "INVALID_TRANSACTION", Message: "invalid transaction", ExitCode: ExitInput}

	// UTXO funding (Stardust signer).
	ErrInsufficientFunds = &WalletError{Code: "INSUFFICIENT_FUNDS", Message: "insufficient UTXOs to fund transaction", ExitCode: ExitInput}
)

// New creates a new WalletError with the given code and message.
func New(code, message string) *WalletError {
	return &WalletError{Code: code, Message: message, ExitCode: ExitGeneral}
}

// Wrap adds a formatted prefix to err's message while preserving its
// code, details, suggestion, and exit code when err is a *WalletError.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    fmt.Sprintf("%s: %s", msg, we.Message),
			Details:    we.Details,
			Suggestion: we.Suggestion,
			Cause:      err,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{Code: "GENERAL_ERROR", Message: msg, Cause: err, ExitCode: ExitGeneral}
}

// WithSuggestion attaches a human-facing remediation hint to err, for
// CLI-level error display.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    we.Details,
			Suggestion: suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{Code: "GENERAL_ERROR", Message: err.Error(), Suggestion: suggestion, Cause: err, ExitCode: ExitGeneral}
}

// WithDetails attaches structured context to err.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var we *WalletError
	if errors.As(err, &we) {
		return &WalletError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    details,
			Suggestion: we.Suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WalletError{Code: "GENERAL_ERROR", Message: err.Error(), Details: details, Cause: err, ExitCode: ExitGeneral}
}

// WithBackendStatus builds a Backend(code, body) error, surfacing an
// unexpected HTTP status verbatim for observability (spec §7).
func WithBackendStatus(status int, body string) error {
	return &WalletError{
		Code:     "BACKEND_ERROR",
		Message:  "unexpected backend response",
		Details:  map[string]string{"status": fmt.Sprintf("%d", status), "body": body},
		ExitCode: ExitGeneral,
	}
}

// ExitCode returns the CLI exit code implied by err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var we *WalletError
	if errors.As(err, &we) {
		return we.ExitCode
	}
	return ExitGeneral
}

// Code returns the machine-readable error code for err.
func Code(err error) string {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool { return errors.Is(err, target) }

// As wraps errors.As for convenience.
func As(err error, target any) bool { return errors.As(err, target) }
