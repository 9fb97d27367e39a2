// Package kdbx implements the password-protected single-entry backup
// container carrying a user's mnemonic (spec §4.4, §6). It is grounded
// on the teacher's backup manifest/checksum shape, with age's
// password-based envelope standing in for KDBX's own KDF+AEAD — the
// teacher's nearest real dependency for "lock an opaque blob under a
// password" (see DESIGN.md).
package kdbx

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"filippo.io/age"

	"github.com/etopay/sigilwallet/internal/secretcrypto"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// FormatVersion is the current container format version.
const FormatVersion = 1

// container is the on-disk/over-the-wire representation produced by
// Store and consumed by Load.
type container struct {
	Version       int    `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	EncryptedData []byte `json:"encrypted_data"`
	Checksum      string `json:"checksum"`
}

// Store produces a password-locked backup blob containing exactly one
// entry: the mnemonic string, locked with backupPassword.
func Store(mnemonic *secretcrypto.Secret, backupPassword []byte) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(string(backupPassword))
	if err != nil {
		return nil, sigilerr.Wrap(sigilerr.ErrKdbxSerialize, "creating recipient")
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, sigilerr.Wrap(sigilerr.ErrKdbxSerialize, "initializing encryption")
	}
	if _, err := w.Write(mnemonic.Bytes()); err != nil {
		return nil, sigilerr.Wrap(sigilerr.ErrKdbxSerialize, "writing entry")
	}
	if err := w.Close(); err != nil {
		return nil, sigilerr.Wrap(sigilerr.ErrKdbxSerialize, "finalizing")
	}

	c := container{
		Version:       FormatVersion,
		CreatedAt:     time.Now().UTC(),
		EncryptedData: buf.Bytes(),
	}
	c.Checksum = checksum(c.EncryptedData)

	out, err := json.Marshal(c)
	if err != nil {
		return nil, sigilerr.Wrap(sigilerr.ErrKdbxSerialize, "marshaling container")
	}
	return out, nil
}

// Load is Store's inverse: unlock bytes with backupPassword and return
// the mnemonic it carries. A tag mismatch surfaces as ErrKdbxUnlock.
func Load(blob []byte, backupPassword []byte) (*secretcrypto.Secret, error) {
	var c container
	if err := json.Unmarshal(blob, &c); err != nil {
		return nil, sigilerr.Wrap(sigilerr.ErrKdbxUnlock, "invalid container")
	}
	if c.Version != FormatVersion {
		return nil, sigilerr.WithDetails(sigilerr.ErrKdbxUnlock, map[string]string{"version": fmt.Sprintf("%d", c.Version)})
	}
	if checksum(c.EncryptedData) != c.Checksum {
		return nil, sigilerr.Wrap(sigilerr.ErrKdbxUnlock, "checksum mismatch")
	}

	identity, err := age.NewScryptIdentity(string(backupPassword))
	if err != nil {
		return nil, sigilerr.Wrap(sigilerr.ErrKdbxUnlock, "creating identity")
	}

	r, err := age.Decrypt(bytes.NewReader(c.EncryptedData), identity)
	if err != nil {
		return nil, sigilerr.ErrKdbxUnlock
	}

	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, sigilerr.ErrKdbxUnlock
	}
	defer secretcrypto.ZeroBytes(plain)

	return secretcrypto.NewSecret(plain), nil
}

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
