package ports

import (
	"context"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// ProductInput carries product fields from the transport layer. On create,
// Name and Price are required; on update, nil fields are left untouched and
// a nil TagIDs keeps the current tags. ClearCategory detaches the product
// from its category and wins over CategoryID.
type ProductInput struct {
	Name          *string
	Description   *string
	Price         *domain.Money
	Stock         *int
	Brand         *string
	Size          *string
	Color         *string
	SKU           *string
	CategoryID    *int64
	ClearCategory bool
	TagIDs        []int64
}

// ResolvedProduct is the outcome of a public path lookup. RedirectTo is set
// when the requested slug is stale.
type ResolvedProduct struct {
	Product    *domain.Product
	RedirectTo string
}

type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	// Resolve looks up a "<id>-<slug>" path segment.
	Resolve(ctx context.Context, idSlug string) (*ResolvedProduct, error)
}
