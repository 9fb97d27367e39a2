package evm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestDerivationPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "m/44'/60'/0'/0/0", derivationPath(60))
	assert.Equal(t, "m/44'/1'/0'/0/0", derivationPath(1))
}

func TestDerivePrivateKeyIsDeterministic(t *testing.T) {
	t.Parallel()
	key1, err := derivePrivateKey(testMnemonic, 60)
	require.NoError(t, err)
	key2, err := derivePrivateKey(testMnemonic, 60)
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 32)
}

func TestDerivePrivateKeyDiffersByCoinType(t *testing.T) {
	t.Parallel()
	ethKey, err := derivePrivateKey(testMnemonic, 60)
	require.NoError(t, err)
	otherKey, err := derivePrivateKey(testMnemonic, 1)
	require.NoError(t, err)

	assert.NotEqual(t, ethKey, otherKey)
}
