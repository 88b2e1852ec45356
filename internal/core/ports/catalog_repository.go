package ports

import (
	"context"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// CategoryRepository defines persistence operations for categories.
// Deleting a category detaches its products rather than deleting them.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

// TagRepository defines persistence operations for tags.
// Deleting a tag removes its product associations.
type TagRepository interface {
	Create(ctx context.Context, t *domain.Tag) (*domain.Tag, error)
	FindByID(ctx context.Context, id int64) (*domain.Tag, error)
	// FindByIDs returns the tags that exist among ids, ordered by id.
	FindByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error)
	List(ctx context.Context) ([]*domain.Tag, error)
	Update(ctx context.Context, t *domain.Tag) (*domain.Tag, error)
	Delete(ctx context.Context, id int64) error
}
