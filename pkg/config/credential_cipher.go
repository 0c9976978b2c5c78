package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	credentialKDFIterations = 100_000
	credentialKeyLen        = 32
)

// credentialCipher encrypts property passwords before they are cached in
// Redis (spec.md §4.1's CREDENTIALS scope), using a PBKDF2-derived key so
// a leaked Redis snapshot alone does not expose plaintext credentials.
// The same PBKDF2 parameters pkg/auth.HashPassword uses for the inbound
// WSSE digest are reused here for the outbound, reversible case.
type credentialCipher struct {
	key []byte
}

func newCredentialCipher(secret, salt string) (*credentialCipher, error) {
	if secret == "" {
		return nil, errors.New("config: CREDENTIAL_ENCRYPTION_KEY is not configured")
	}
	key := pbkdf2.Key([]byte(secret), []byte(salt), credentialKDFIterations, credentialKeyLen, sha256.New)
	return &credentialCipher{key: key}, nil
}

func (c *credentialCipher) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("config: building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("config: building GCM mode: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("config: generating nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *credentialCipher) decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("config: decoding ciphertext: %w", err)
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("config: building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("config: building GCM mode: %w", err)
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("config: ciphertext too short")
	}
	nonce, body := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("config: decrypting credential: %w", err)
	}
	return string(plaintext), nil
}
