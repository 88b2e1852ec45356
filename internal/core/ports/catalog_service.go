package ports

import (
	"context"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// CategoryInput is used for both create and update; nil fields are ignored on update.
type CategoryInput struct {
	Name        *string
	Description *string
}

type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id int64) (*domain.Category, error)
	Create(ctx context.Context, input CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id int64, input CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type TagService interface {
	List(ctx context.Context) ([]*domain.Tag, error)
	Get(ctx context.Context, id int64) (*domain.Tag, error)
	Create(ctx context.Context, name string) (*domain.Tag, error)
	Update(ctx context.Context, id int64, name *string) (*domain.Tag, error)
	Delete(ctx context.Context, id int64) error
}
