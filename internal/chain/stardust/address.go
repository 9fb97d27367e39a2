package stardust

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/etopay/sigilwallet/internal/wallet/bitcoin"
)

// addressVersion is the single witness-program version this signer
// emits/accepts, analogous to BSV's P2PKH version byte in
// internal/chain/bsv/address.go's EncodeBase58Check — generalized from
// a base58check version byte to a bech32 witness-program version.
const addressVersion = 0

var (
	// ErrInvalidAddress mirrors internal/chain/bsv's sentinel of the
	// same name, generalized to bech32 decode/version/length failures.
	ErrInvalidAddress = errors.New("invalid stardust address")
)

// deriveAddress returns the bech32 address (hrp per network) for the
// given 32-byte secp256k1 private key: compressed pubkey → hash160 →
// witness-version-0 program → bech32.
func deriveAddress(privateKey []byte, hrp string) (string, error) {
	priv := secp256k1.PrivKeyFromBytes(privateKey)
	defer priv.Zero()

	program := bitcoin.Hash160(priv.PubKey().SerializeCompressed())
	return encodeAddress(hrp, program)
}

// encodeAddress bech32-encodes a witness program under hrp, prefixing
// it with addressVersion the way a segwit witness program prefixes its
// version nibble before 5-bit regrouping.
func encodeAddress(hrp string, program []byte) (string, error) {
	data := append([]byte{addressVersion}, program...)

	converted, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	addr, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return addr, nil
}

// decodeAddress reverses encodeAddress, validating hrp and the version
// byte and returning the 20-byte hash160 program.
func decodeAddress(address, wantHrp string) ([]byte, error) {
	hrp, converted, err := bech32.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if hrp != wantHrp {
		return nil, fmt.Errorf("%w: hrp %q does not match network %q", ErrInvalidAddress, hrp, wantHrp)
	}

	data, err := bech32.ConvertBits(converted, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(data) != 1+hash160Len {
		return nil, fmt.Errorf("%w: unexpected program length %d", ErrInvalidAddress, len(data))
	}
	if data[0] != addressVersion {
		return nil, fmt.Errorf("%w: unsupported witness version %d", ErrInvalidAddress, data[0])
	}

	return data[1:], nil
}

const hash160Len = 20
