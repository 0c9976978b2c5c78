package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

// UsernameToken is the decoded wsse:UsernameToken from an inbound SOAP
// Security header (PasswordText profile): plaintext password protected by
// the transport, with a nonce and timestamp guarding against replay.
type UsernameToken struct {
	Username  string
	Password  string
	Nonce     string
	Created   time.Time
}

// CredentialStore resolves the credential registered for a username,
// scoped to the property that owns the endpoint being called.
type CredentialStore interface {
	Lookup(ctx context.Context, username string) (Credential, error)
}

const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 32
	nonceWindow      = 5 * time.Minute
)

// NonceCache rejects a (username, nonce) pair seen twice within the replay
// window, per the WSSE UsernameToken profile's replay-protection
// requirement.
type NonceCache struct {
	mu    sync.Mutex
	seen  map[string]time.Time
}

func NewNonceCache() *NonceCache {
	return &NonceCache{seen: make(map[string]time.Time)}
}

// Check records the nonce and reports false if it was already used within
// the window.
func (c *NonceCache) Check(username, nonce string, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := username + ":" + nonce
	if last, ok := c.seen[key]; ok && at.Sub(last) < nonceWindow {
		return false
	}
	c.seen[key] = at

	for k, t := range c.seen {
		if at.Sub(t) > nonceWindow {
			delete(c.seen, k)
		}
	}
	return true
}

// HashPassword derives the at-rest digest for a plaintext password using
// PBKDF2-HMAC-SHA256; Verify compares it against Credential.PasswordHash.
func HashPassword(password string, salt []byte) string {
	digest := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("%x", digest)
}

// Verify authenticates a UsernameToken against the CredentialStore,
// enforcing timestamp freshness and nonce replay protection, and returns
// the resulting Principal on success.
func Verify(ctx context.Context, store CredentialStore, nonces *NonceCache, tok UsernameToken, now time.Time) (*BasePrincipal, *domain.ErrorKind) {
	if tok.Username == "" || tok.Password == "" {
		return nil, domain.NewErrorKind(domain.ErrorKindAuthentication, "missing username or password in WSSE UsernameToken", nil)
	}
	if now.Sub(tok.Created) > nonceWindow || tok.Created.After(now.Add(time.Minute)) {
		return nil, domain.NewErrorKind(domain.ErrorKindAuthentication, "WSSE timestamp outside acceptable skew", nil)
	}
	if nonces != nil && !nonces.Check(tok.Username, tok.Nonce, now) {
		return nil, domain.NewErrorKind(domain.ErrorKindAuthentication, "WSSE nonce replay detected", nil)
	}

	cred, err := store.Lookup(ctx, tok.Username)
	if err != nil {
		return nil, domain.NewErrorKind(domain.ErrorKindAuthentication, "unknown WSSE username", err)
	}

	candidate := HashPassword(tok.Password, cred.Salt)
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(cred.PasswordHash)) != 1 {
		return nil, domain.NewErrorKind(domain.ErrorKindAuthentication, "WSSE password mismatch", nil)
	}

	return &BasePrincipal{PropertyID: cred.PropertyID, Username: cred.Username}, nil
}
