package ports

import (
	"context"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// RegisterInput carries the fields needed to open an account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, identity domain.Identity) (*domain.User, error)
}
