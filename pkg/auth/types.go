package auth

import "time"

// Credential is a property or endpoint-scoped WSSE UsernameToken credential
// pair, as a CredentialStore returns it to Verify.
type Credential struct {
	PropertyID   string
	Username     string
	PasswordHash string // PBKDF2 digest, never the plaintext password
	Salt         []byte
	RotatedAt    time.Time
}

// Principal is the authenticated identity attached to a request context
// with WithPrincipal once a WSSE UsernameToken is accepted (by Verify, or
// by pkg/inbound's own credential check).
type Principal interface {
	GetPropertyID() string
	GetUsername() string
}

// BasePrincipal is the concrete Principal built from a validated
// UsernameToken.
type BasePrincipal struct {
	PropertyID string
	Username   string
}

func (b *BasePrincipal) GetPropertyID() string { return b.PropertyID }
func (b *BasePrincipal) GetUsername() string   { return b.Username }
