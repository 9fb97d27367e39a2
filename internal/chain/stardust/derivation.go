package stardust

import (
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	"github.com/etopay/sigilwallet/internal/network"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// derivationPath mirrors internal/chain/evm's derivationPath: both
// delegate to network.Network.DerivationPath so every chain package
// derives the same account-level BIP-44 path from one canonical
// source, generalized from internal/wallet/derivation.go's
// deriveBIP44Key tree walk (decred/dcrd/hdkeychain there,
// tyler-smith/go-bip32 here since hdkeychain isn't wired into this
// module).
func derivationPath(coinType uint32) string {
	return network.Network{CoinType: coinType}.DerivationPath()
}

// derivePrivateKey walks mnemonic -> BIP-39 seed -> BIP-44 key tree
// along derivationPath(coinType), yielding a 32-byte secp256k1 signing
// key under the network's coin type.
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

	out := make([]byte, len(key.Key))
	copy(out, key.Key)
	return out, nil
}

// walkDerivationPath descends master along a BIP-44 path string of the
// form "m/44'/4218'/0'/0/0", treating a trailing "'" as a hardened step.
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
