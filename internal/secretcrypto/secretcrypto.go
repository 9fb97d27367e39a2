// Package secretcrypto implements the secret primitives composed by the
// rest of the wallet-secret core (spec §4.1): AES-256-GCM wrap/unwrap
// keyed by Blake2b-256(password‖nonce), PIN-based wrapping of the wallet
// password, salt generation, and a zeroising, redacted secret container.
package secretcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

const (
	// NonceSize is the AES-GCM nonce length used for every seal/open.
	NonceSize = 12

	// SaltSize is the length of a freshly minted per-user salt.
	SaltSize = 16
)

// ErrDecryptionFailed is the single error surfaced for any AEAD failure.
// Per spec §4.1 it must never distinguish a wrong PIN from a wrong
// password or from corrupted ciphertext.
var ErrDecryptionFailed = errors.New("decryption failed")

// ErrCiphertextTooShort guards the nonce-split step; it is only ever
// returned before any AEAD call is attempted, so it cannot leak key info.
var ErrCiphertextTooShort = fmt.Errorf("%w: ciphertext shorter than nonce", ErrDecryptionFailed)

// RandomBytes draws n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return b, nil
}

// NewSalt mints a fresh per-user salt.
func NewSalt() ([]byte, error) {
	return RandomBytes(SaltSize)
}

// deriveKey computes Blake2b-256(key ‖ nonce), the KDF spec §4.1 requires
// for every wrap/unwrap in this package.
func deriveKey(key, nonce []byte) []byte {
	h := blake2b.Sum256(append(append([]byte{}, key...), nonce...))
	return h[:]
}

// Encrypt implements encrypt_with_password: draw a nonce, derive a key,
// seal, and return nonce‖ciphertext.
func Encrypt(data, key []byte) ([]byte, error) {
	nonce, err := RandomBytes(NonceSize)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(deriveKey(key, nonce))
	if err != nil {
		return nil, err
	}

	ct := gcm.Seal(nil, nonce, data, nil)
	return append(nonce, ct...), nil
}

// EncryptWithNonce is Encrypt with an explicit nonce instead of a fresh
// random draw. It exists solely for callers that must reproduce
// byte-identical ciphertext across invocations given the same inputs
// (the share codec's "etopay"-seeded reproducibility requirement,
// spec §3); general callers must use Encrypt.
func EncryptWithNonce(data, key, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrDecryptionFailed, NonceSize)
	}
	gcm, err := newGCM(deriveKey(key, nonce))
	if err != nil {
		return nil, err
	}
	ct := gcm.Seal(nil, nonce, data, nil)
	return append(append([]byte{}, nonce...), ct...), nil
}

// Decrypt implements decrypt_with_password: split nonce/ciphertext,
// re-derive the key, and open. Any failure — wrong key, wrong nonce, or
// corrupted ciphertext — surfaces as the single generic ErrDecryptionFailed.
func Decrypt(blob, key []byte) ([]byte, error) {
	if len(blob) <= NonceSize {
		return nil, ErrCiphertextTooShort
	}

	nonce, ct := blob[:NonceSize], blob[NonceSize:]

	gcm, err := newGCM(deriveKey(key, nonce))
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing cipher: %w", ErrDecryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: constructing gcm: %w", ErrDecryptionFailed, err)
	}
	return gcm, nil
}

// EncryptPin wraps the wallet password under key = pin ‖ salt, per §4.1's
// PIN-wrapping use of the same primitive.
func EncryptPin(password, pin, salt []byte) ([]byte, error) {
	return Encrypt(password, append(append([]byte{}, pin...), salt...))
}

// DecryptPin unwraps the wallet password under key = pin ‖ salt.
func DecryptPin(blob, pin, salt []byte) ([]byte, error) {
	return Decrypt(blob, append(append([]byte{}, pin...), salt...))
}
