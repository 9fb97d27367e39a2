// Package ethcrypto provides the secp256k1 primitives the EVM signer
// needs on top of a raw BIP-44 private key: public key recovery, the
// Ethereum address hash, and EIP-1559 signature production. Adapted
// from internal/chain/eth/crypto's ecdsa.go/keccak.go, trimmed to what
// internal/chain/evm needs — address/checksum formatting is left to
// go-ethereum's common.Address, which the tx-building side already
// depends on.
package ethcrypto

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

var (
	// ErrInvalidPrivateKey indicates the private key is invalid.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInvalidSignature indicates the signature is invalid.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidHashLength indicates the hash length is not 32 bytes.
	ErrInvalidHashLength = errors.New("hash must be 32 bytes")

	// ErrInvalidPublicKeyPrefix indicates an invalid public key prefix.
	ErrInvalidPublicKeyPrefix = errors.New("invalid public key prefix")

	// ErrInvalidPublicKeyLength indicates an invalid public key length.
	ErrInvalidPublicKeyLength = errors.New("invalid public key length")
)

// Keccak256 computes the Keccak-256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	for _, b := range data {
		hasher.Write(b)
	}
	return hasher.Sum(nil)
}

// Sign signs a 32-byte hash with a raw secp256k1 private key and returns
// a 65-byte [R || S || V] signature, V in {0,1}, matching what
// go-ethereum's types.Signer.SignatureValues expects.
func Sign(hash, privateKey []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, ErrInvalidHashLength
	}
	if len(privateKey) != 32 {
		return nil, ErrInvalidPrivateKey
	}

	privKey := secp256k1.PrivKeyFromBytes(privateKey)
	if privKey == nil {
		return nil, ErrInvalidPrivateKey
	}

	sig := ecdsa.SignCompact(privKey, hash, false)
	if len(sig) != 65 {
		return nil, ErrInvalidSignature
	}

	// SignCompact returns [V || R || S] with V = recovery_id + 27.
	v := sig[0] - 27
	result := make([]byte, 65)
	copy(result[0:32], sig[1:33])
	copy(result[32:64], sig[33:65])
	result[64] = v

	return result, nil
}

// PrivateKeyToPublicKey derives the uncompressed public key (65 bytes:
// 0x04 || X || Y) from a raw 32-byte private key.
func PrivateKeyToPublicKey(privateKey []byte) ([]byte, error) {
	if len(privateKey) != 32 {
		return nil, ErrInvalidPrivateKey
	}

	privKey := secp256k1.PrivKeyFromBytes(privateKey)
	if privKey == nil {
		return nil, ErrInvalidPrivateKey
	}

	return privKey.PubKey().SerializeUncompressed(), nil
}

// PublicKeyToAddress derives the 20-byte Ethereum address from an
// uncompressed (65-byte) or bare (64-byte) public key.
func PublicKeyToAddress(publicKey []byte) ([]byte, error) {
	var pubKeyBytes []byte

	switch len(publicKey) {
	case 65:
		if publicKey[0] != 0x04 {
			return nil, ErrInvalidPublicKeyPrefix
		}
		pubKeyBytes = publicKey[1:]
	case 64:
		pubKeyBytes = publicKey
	default:
		return nil, ErrInvalidPublicKeyLength
	}

	hash := Keccak256(pubKeyBytes)
	return hash[12:], nil
}

// DeriveAddress derives the 20-byte Ethereum address from a raw
// private key.
func DeriveAddress(privateKey []byte) ([]byte, error) {
	pubKey, err := PrivateKeyToPublicKey(privateKey)
	if err != nil {
		return nil, err
	}
	return PublicKeyToAddress(pubKey)
}
