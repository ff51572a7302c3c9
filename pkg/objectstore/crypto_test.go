package objectstore

import (
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) string {
	t.Helper()
	var k fernet.Key
	require.NoError(t, k.Generate())
	return k.Encode()
}

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey(t))
	require.NoError(t, err)

	plaintext := []byte(`{"trip_id":"abc","distance":42}`)
	ciphertext, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	got, err := c.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestCipherDecryptWrongKeyFails(t *testing.T) {
	c1, err := NewCipher(testKey(t))
	require.NoError(t, err)
	c2, err := NewCipher(testKey(t))
	require.NoError(t, err)

	ciphertext, err := c1.Encrypt([]byte("payload"))
	require.NoError(t, err)

	_, err = c2.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestIsEncryptedMatchesFernetTokenShape(t *testing.T) {
	c, err := NewCipher(testKey(t))
	require.NoError(t, err)

	token, err := c.Encrypt([]byte("hello"))
	require.NoError(t, err)

	assert.True(t, IsEncrypted(token))
	assert.Equal(t, "AAAAA", string(token[1:6]))
}

func TestIsEncryptedRejectsPlainJSON(t *testing.T) {
	assert.False(t, IsEncrypted([]byte(`{"trip_id":"abc"}`)))
	assert.False(t, IsEncrypted([]byte("x")))
}
