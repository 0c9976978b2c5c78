package auth_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roli854/travelclick-htng-gateway/pkg/auth"
)

type fakeStore map[string]auth.Credential

func (f fakeStore) Lookup(_ context.Context, username string) (auth.Credential, error) {
	c, ok := f[username]
	if !ok {
		return auth.Credential{}, assertNotFound{}
	}
	return c, nil
}

type assertNotFound struct{}

func (assertNotFound) Error() string { return "not found" }

func newStore(t *testing.T, propertyID, username, password string) fakeStore {
	t.Helper()
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	require.NoError(t, err)
	return fakeStore{
		username: {
			PropertyID:   propertyID,
			Username:     username,
			PasswordHash: auth.HashPassword(password, salt),
			Salt:         salt,
		},
	}
}

func TestVerify_Success(t *testing.T) {
	store := newStore(t, "HOTEL001", "crsuser", "s3cret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	principal, errKind := auth.Verify(context.Background(), store, auth.NewNonceCache(), auth.UsernameToken{
		Username: "crsuser",
		Password: "s3cret",
		Nonce:    "nonce-1",
		Created:  now,
	}, now)

	require.Nil(t, errKind)
	assert.Equal(t, "HOTEL001", principal.GetPropertyID())
}

func TestVerify_WrongPassword(t *testing.T) {
	store := newStore(t, "HOTEL001", "crsuser", "s3cret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	_, errKind := auth.Verify(context.Background(), store, auth.NewNonceCache(), auth.UsernameToken{
		Username: "crsuser",
		Password: "wrong",
		Nonce:    "nonce-2",
		Created:  now,
	}, now)

	require.NotNil(t, errKind)
	assert.False(t, errKind.Retryable())
}

func TestVerify_StaleTimestampRejected(t *testing.T) {
	store := newStore(t, "HOTEL001", "crsuser", "s3cret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	_, errKind := auth.Verify(context.Background(), store, auth.NewNonceCache(), auth.UsernameToken{
		Username: "crsuser",
		Password: "s3cret",
		Nonce:    "nonce-3",
		Created:  now.Add(-10 * time.Minute),
	}, now)

	require.NotNil(t, errKind)
}

func TestVerify_NonceReplayRejected(t *testing.T) {
	store := newStore(t, "HOTEL001", "crsuser", "s3cret")
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	nonces := auth.NewNonceCache()
	tok := auth.UsernameToken{Username: "crsuser", Password: "s3cret", Nonce: "dup", Created: now}

	_, errKind := auth.Verify(context.Background(), store, nonces, tok, now)
	require.Nil(t, errKind)

	_, errKind = auth.Verify(context.Background(), store, nonces, tok, now.Add(time.Second))
	require.NotNil(t, errKind)
}
