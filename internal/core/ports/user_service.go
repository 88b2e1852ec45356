package ports

import (
	"context"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// UpdateUserInput holds the optional profile changes. Nil fields are left untouched.
type UpdateUserInput struct {
	Email    *string
	Password *string
	FullName *string
}

// UserService manages accounts. Update and Delete check that the target
// exists before checking that actor owns it.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, input RegisterInput) (*domain.User, error)
	Update(ctx context.Context, actor domain.Identity, id int64, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Identity, id int64) error
}
