package ports

import "github.com/storefront/catalog-api/internal/core/domain"

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(identity domain.Identity) (string, error)
	// Verify returns the identity encoded in token. Failures wrap
	// domain.ErrTokenInvalid.
	Verify(token string) (domain.Identity, error)
}

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
