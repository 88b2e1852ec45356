package ports

import (
	"context"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// SlugLookup lists slugs already in use that could collide with a base slug.
type SlugLookup interface {
	// SlugsLike returns every stored slug equal to base or of the form
	// base-<suffix>, skipping the product with id excludeID (0 = none).
	SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error)
}

// ProductRepository defines persistence operations for products and their
// tag associations. Returned products have Category and Tags hydrated.
type ProductRepository interface {
	SlugLookup

	// Create inserts p and associates it with tagIDs.
	Create(ctx context.Context, p *domain.Product, tagIDs []int64) (*domain.Product, error)
	// Update persists p. A nil tagIDs keeps the current associations; a
	// non-nil slice replaces them.
	Update(ctx context.Context, p *domain.Product, tagIDs []int64) (*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	// Search returns the page of products matching filter, ordered by id, and
	// the total number of distinct matches.
	Search(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
}
