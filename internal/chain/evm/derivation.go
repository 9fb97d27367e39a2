package evm

import (
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/etopay/sigilwallet/internal/network"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// derivationPath delegates to network.Network.DerivationPath so every
// chain package derives the same m/44'/coinType'/0'/0/0 path from one
// canonical source: the core hands out a single receive address per
// network (spec §4.7/§4.11's "generate_new_address" is really "derive
// and return the one canonical address"), so account/change/index
// never vary.
func derivationPath(coinType uint32) string {
	return network.Network{CoinType: coinType}.DerivationPath()
}

// derivePrivateKey walks mnemonic -> BIP-39 seed -> BIP-44 key tree
// along derivationPath(coinType) and returns the raw 32-byte secp256k1
// private key at the resulting leaf.
//
// Grounded on internal/wallet/derivation.go's deriveBIP44Key, with the
// BIP-32 engine swapped from the teacher's decred/dcrd/hdkeychain to
// tyler-smith/go-bip32 (the library actually present in go.mod and
// already used for Stardust derivation) — same path structure, same
// hardened/non-hardened step layout, different tree implementation.
func derivePrivateKey(mnemonic string, coinType uint32) ([]byte, error) {
	seed := bip39.NewSeed(mnemonic, "")

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, sigilerr.Wrap(err, "deriving master key")
	}

	key, err := walkDerivationPath(master, derivationPath(coinType))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 32)
	copy(out, key.Key)
	return out, nil
}

// walkDerivationPath descends master along a BIP-44 path string of the
// form "m/44'/60'/0'/0/0", treating a trailing "'" as a hardened step.
func walkDerivationPath(master *bip32.Key, path string) (*bip32.Key, error) {
	segments := strings.Split(path, "/")
	key := master
	for _, seg := range segments[1:] {
		hardened := strings.HasSuffix(seg, "'")
		seg = strings.TrimSuffix(seg, "'")

		parsed, err := strconv.ParseUint(seg, 10, 32)
		if err != nil {
			return nil, sigilerr.Wrap(err, "parsing derivation path segment "+seg)
		}
		idx := uint32(parsed)
		if hardened {
			idx += bip32.FirstHardenedChild
		}

		key, err = key.NewChildKey(idx)
		if err != nil {
			return nil, sigilerr.Wrap(err, "deriving child key at segment "+seg)
		}
	}
	return key, nil
}
