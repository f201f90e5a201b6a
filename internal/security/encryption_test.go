package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldEncryptorRoundTrip(t *testing.T) {
	keys := NewKeyManager("db-key-passphrase-for-testing-only!!", "app-key-passphrase-for-testing-only!", "backup-key-passphrase-for-testing!!!")

	fe, err := NewFieldEncryptor(keys.AppKey())
	require.NoError(t, err)

	plaintext := "Preheat the oven to 180C and whisk the eggs with the sugar."
	ciphertext, err := fe.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := fe.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestFieldEncryptorWrongKey(t *testing.T) {
	keysA := NewKeyManager("a", "app-key-a", "b")
	keysB := NewKeyManager("a", "app-key-b", "b")

	feA, err := NewFieldEncryptor(keysA.AppKey())
	require.NoError(t, err)
	feB, err := NewFieldEncryptor(keysB.AppKey())
	require.NoError(t, err)

	ciphertext, err := feA.Encrypt("some instructions")
	require.NoError(t, err)

	_, err = feB.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestFieldEncryptorRejectsBadKeyLength(t *testing.T) {
	_, err := NewFieldEncryptor([]byte("short"))
	assert.Error(t, err)
}

func TestFieldEncryptorEmptyString(t *testing.T) {
	keys := NewKeyManager("a", "app-key", "b")
	fe, err := NewFieldEncryptor(keys.AppKey())
	require.NoError(t, err)

	ciphertext, err := fe.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", ciphertext)

	decrypted, err := fe.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", decrypted)
}
