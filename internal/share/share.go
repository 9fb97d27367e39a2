// Package share implements the secret-share subsystem: the wire codec
// for a Share (spec §4.2, §6), Shamir split/combine of mnemonic entropy
// at a fixed (k=2, n=3) threshold, and per-share optional AES-GCM
// encryption via internal/secretcrypto.
package share

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/etopay/sigilwallet/internal/secretcrypto"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// PayloadType identifies what the reconstructed bytes mean.
type PayloadType string

// MnemonicEntropy is the only payload type carried today.
const MnemonicEntropy PayloadType = "ME"

// Encoding identifies the secret-sharing scheme used.
type Encoding string

// RustySecrets is the (only) SSS scheme this codec speaks.
const RustySecrets Encoding = "RS"

// Encryption identifies whether Share.Data is AES-GCM wrapped.
type Encryption string

const (
	// EncryptionNone means Data is the raw share bytes.
	EncryptionNone Encryption = "N"
	// EncryptionAesGcm means Data is nonce‖AES-256-GCM(k,nonce,share).
	EncryptionAesGcm Encryption = "AesGcm"
)

// Share is a single piece of a split secret, in its wire form
// "{PayloadType}-{Encoding}-{Encryption}-{base64(Data)}".
type Share struct {
	PayloadType PayloadType
	Encoding    Encoding
	Encryption  Encryption
	Data        []byte
}

// String renders the wire form.
func (s Share) String() string {
	return fmt.Sprintf("%s-%s-%s-%s", s.PayloadType, s.Encoding, s.Encryption, base64.StdEncoding.EncodeToString(s.Data))
}

// GoString redacts the payload so fmt's %#v / debug printers never leak
// share bytes (spec §3's zeroise-and-redact invariant).
func (s Share) GoString() string {
	return fmt.Sprintf("Share{PayloadType:%s Encoding:%s Encryption:%s Data:<redacted %d bytes>}",
		s.PayloadType, s.Encoding, s.Encryption, len(s.Data))
}

// Parse decodes the wire form, rejecting any token it does not recognise.
func Parse(s string) (Share, error) {
	parts := strings.SplitN(s, "-", 4)
	if len(parts) != 4 {
		return Share{}, sigilerr.WithDetails(sigilerr.ErrShareMalformed, map[string]string{"share": redactedPreview(s)})
	}

	pt := PayloadType(parts[0])
	if pt != MnemonicEntropy {
		return Share{}, sigilerr.WithDetails(sigilerr.ErrShareMalformed, map[string]string{"payload_type": parts[0]})
	}

	en := Encoding(parts[1])
	if en != RustySecrets {
		return Share{}, sigilerr.WithDetails(sigilerr.ErrShareMalformed, map[string]string{"encoding": parts[1]})
	}

	ec := Encryption(parts[2])
	if ec != EncryptionNone && ec != EncryptionAesGcm {
		return Share{}, sigilerr.WithDetails(sigilerr.ErrShareMalformed, map[string]string{"encryption": parts[2]})
	}

	data, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return Share{}, sigilerr.Wrap(sigilerr.ErrShareDecode, "invalid base64 payload")
	}

	return Share{PayloadType: pt, Encoding: en, Encryption: ec, Data: data}, nil
}

func redactedPreview(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}

// GeneratedShares is the triple produced by Split: exactly one (Backup) is
// AES-GCM wrapped; Recovery and Local are plaintext.
type GeneratedShares struct {
	Recovery Share
	Local    Share
	Backup   Share
}

// Split divides mnemonic's entropy into the fixed (k=2, n=3) threshold
// scheme and encrypts the backup share's data with password, per §4.2.
func Split(mnemonic *secretcrypto.Secret, password []byte) (GeneratedShares, error) {
	entropy, err := bip39.EntropyFromMnemonic(string(mnemonic.Bytes()))
	if err != nil {
		return GeneratedShares{}, sigilerr.Wrap(sigilerr.ErrShareReconstruction, "invalid mnemonic")
	}

	rawShares, err := splitShamir(entropy, 3, 2)
	if err != nil {
		return GeneratedShares{}, sigilerr.Wrap(sigilerr.ErrShareReconstruction, "split failed")
	}

	// Deterministic iteration order: index 1 = recovery, 2 = local, 3 = backup.
	recovery := wireShare(1, rawShares[0])
	local := wireShare(2, rawShares[1])

	nonce, err := backupNonce(entropy)
	if err != nil {
		return GeneratedShares{}, err
	}
	encBackup, err := secretcrypto.EncryptWithNonce(rawShares[2], password, nonce)
	if err != nil {
		return GeneratedShares{}, sigilerr.Wrap(sigilerr.ErrShareReconstruction, "encrypting backup share")
	}
	backup := Share{PayloadType: MnemonicEntropy, Encoding: RustySecrets, Encryption: EncryptionAesGcm, Data: append([]byte{3}, encBackup...)}

	return GeneratedShares{Recovery: recovery, Local: local, Backup: backup}, nil
}

func wireShare(index byte, value []byte) Share {
	return Share{PayloadType: MnemonicEntropy, Encoding: RustySecrets, Encryption: EncryptionNone, Data: append([]byte{index}, value...)}
}

// backupNonce derives a fixed-per-secret nonce so the backup share's
// ciphertext is byte-identical across Split invocations on the same
// (mnemonic, password) pair (spec §3/§8 reproducibility property).
func backupNonce(entropy []byte) ([]byte, error) {
	coeffs, err := deterministicCoefficients(append(entropy, 'n'), secretcrypto.NonceSize)
	if err != nil {
		return nil, err
	}
	return coeffs, nil
}

// Reconstruct implements §4.2's reconstruction algorithm: require at
// least 2 compatible shares, decrypt any AesGcm ones, combine, and map
// MnemonicEntropy payloads back to BIP-39 words.
func Reconstruct(shares []Share, password []byte) (*secretcrypto.Secret, PayloadType, error) {
	if len(shares) < 2 {
		return nil, "", sigilerr.ErrNotEnoughShares
	}

	payloadType := shares[0].PayloadType
	encoding := shares[0].Encoding
	for _, s := range shares {
		if s.PayloadType != payloadType || s.Encoding != encoding {
			return nil, "", sigilerr.ErrIncompatibleShares
		}
	}

	parsed := make([]shamirShare, 0, len(shares))
	for _, s := range shares {
		raw := s.Data
		if s.Encryption == EncryptionAesGcm {
			if len(password) == 0 {
				return nil, "", sigilerr.ErrPasswordNotProvided
			}
			plain, err := secretcrypto.Decrypt(s.Data[1:], password)
			if err != nil {
				return nil, "", sigilerr.Wrap(sigilerr.ErrDecryptionFailed, "decrypting share")
			}
			raw = append([]byte{s.Data[0]}, plain...)
		}
		if len(raw) < 2 {
			return nil, "", sigilerr.ErrShareMalformed
		}
		parsed = append(parsed, shamirShare{index: raw[0], value: raw[1:]})
	}

	entropy, err := combineShamir(parsed)
	if err != nil {
		return nil, "", sigilerr.Wrap(sigilerr.ErrShareReconstruction, "combine failed")
	}
	defer secretcrypto.ZeroBytes(entropy)

	switch payloadType {
	case MnemonicEntropy:
		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			return nil, "", sigilerr.Wrap(sigilerr.ErrShareReconstruction, "entropy to mnemonic")
		}
		return secretcrypto.SecretFromString(mnemonic), payloadType, nil
	default:
		return nil, "", sigilerr.WithDetails(sigilerr.ErrIncompatibleShares, map[string]string{"payload_type": string(payloadType)})
	}
}
