package secretcrypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etopay/sigilwallet/internal/secretcrypto"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()
	key := []byte("correct-key")
	plain := []byte("top secret mnemonic entropy")

	ct, err := secretcrypto.Encrypt(plain, key)
	require.NoError(t, err)

	got, err := secretcrypto.Decrypt(ct, key)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	t.Parallel()
	ct, err := secretcrypto.Encrypt([]byte("data"), []byte("key-a"))
	require.NoError(t, err)

	_, err = secretcrypto.Decrypt(ct, []byte("key-b"))
	require.ErrorIs(t, err, secretcrypto.ErrDecryptionFailed)
}

func TestDecryptShortBlobFailsWithoutAEADCall(t *testing.T) {
	t.Parallel()
	_, err := secretcrypto.Decrypt(make([]byte, secretcrypto.NonceSize), []byte("key"))
	require.ErrorIs(t, err, secretcrypto.ErrDecryptionFailed)
}

func TestEncryptionIsNonDeterministicPerNonce(t *testing.T) {
	t.Parallel()
	key := []byte("key")
	a, err := secretcrypto.Encrypt([]byte("same"), key)
	require.NoError(t, err)
	b, err := secretcrypto.Encrypt([]byte("same"), key)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh random nonce must vary ciphertext")
}

func TestPinWrappingRoundTrip(t *testing.T) {
	t.Parallel()
	pin := []byte("123456")
	salt, err := secretcrypto.NewSalt()
	require.NoError(t, err)

	wrapped, err := secretcrypto.EncryptPin([]byte("StrongP@55w0rd"), pin, salt)
	require.NoError(t, err)

	got, err := secretcrypto.DecryptPin(wrapped, pin, salt)
	require.NoError(t, err)
	assert.Equal(t, "StrongP@55w0rd", string(got))

	_, err = secretcrypto.DecryptPin(wrapped, []byte("000000"), salt)
	require.ErrorIs(t, err, secretcrypto.ErrDecryptionFailed)
}

func TestSecretRedactsPayload(t *testing.T) {
	t.Parallel()
	s := secretcrypto.SecretFromString("abandon abandon abandon")
	assert.Equal(t, "Secret(redacted)", s.String())
	assert.NotContains(t, s.String(), "abandon")

	s.Destroy()
	assert.Equal(t, []byte(nil), s.Bytes())
}
