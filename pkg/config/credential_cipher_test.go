package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialCipher_EncryptDecryptRoundTrips(t *testing.T) {
	c, err := newCredentialCipher("a-test-secret-key", "travelclick-property-credentials")
	require.NoError(t, err)

	encrypted, err := c.encrypt("s3cret-pw")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pw", encrypted)

	plaintext, err := c.decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "s3cret-pw", plaintext)
}

func TestCredentialCipher_DifferentSecretsProduceDifferentCiphertext(t *testing.T) {
	c1, err := newCredentialCipher("secret-one", "salt")
	require.NoError(t, err)
	c2, err := newCredentialCipher("secret-two", "salt")
	require.NoError(t, err)

	enc1, err := c1.encrypt("same-password")
	require.NoError(t, err)

	_, err = c2.decrypt(enc1)
	assert.Error(t, err)
}

func TestNewCredentialCipher_RejectsEmptySecret(t *testing.T) {
	_, err := newCredentialCipher("", "salt")
	assert.Error(t, err)
}
