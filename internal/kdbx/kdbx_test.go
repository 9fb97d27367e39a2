package kdbx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/kdbx"
	"github.com/etopay/sigilwallet/internal/secretcrypto"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	t.Parallel()
	mnemonic := secretcrypto.SecretFromString("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")

	blob, err := kdbx.Store(mnemonic, []byte("backup-password"))
	require.NoError(t, err)

	loaded, err := kdbx.Load(blob, []byte("backup-password"))
	require.NoError(t, err)
	assert.Equal(t, string(mnemonic.Bytes()), string(loaded.Bytes()))
}

func TestLoadWrongPasswordFails(t *testing.T) {
	t.Parallel()
	mnemonic := secretcrypto.SecretFromString("test mnemonic phrase")

	blob, err := kdbx.Store(mnemonic, []byte("correct"))
	require.NoError(t, err)

	_, err = kdbx.Load(blob, []byte("wrong"))
	require.ErrorIs(t, err, sigilerr.ErrKdbxUnlock)
}
