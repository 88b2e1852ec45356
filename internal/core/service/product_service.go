package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/api/metrics"
	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
	"github.com/storefront/catalog-api/internal/core/slug"
)

var idSlugPattern = regexp.MustCompile(`^(\d+)-(.+)$`)

// ProductService owns product writes, slug assignment and public path
// resolution.
type ProductService struct {
	products   ports.ProductRepository
	categories ports.CategoryRepository
	tags       ports.TagRepository
	log        zerolog.Logger
}

func NewProductService(products ports.ProductRepository, categories ports.CategoryRepository, tags ports.TagRepository, log zerolog.Logger) *ProductService {
	return &ProductService{products: products, categories: categories, tags: tags, log: log}
}

func (s *ProductService) Create(ctx context.Context, input ports.ProductInput) (*domain.Product, error) {
	name := trimmed(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if input.Price == nil {
		return nil, domain.NewValidationError("price is required")
	}

	now := time.Now().UTC()
	p := &domain.Product{
		Name:      name,
		Price:     *input.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductFields(p, input)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input); err != nil {
		return nil, err
	}

	p.Slug = s.assignSlug(ctx, p.Name, 0)

	created, err := s.products.Create(ctx, p, dedupeIDs(input.TagIDs))
	if err != nil {
		return nil, err
	}
	metrics.ProductWritesTotal.WithLabelValues("create").Inc()
	s.log.Info().Int64("product_id", created.ID).Str("slug", created.Slug).Msg("product created")
	return created, nil
}

// Update applies the non-nil fields of input. The slug is regenerated when the
// name changes or the stored slug is empty.
func (s *ProductService) Update(ctx context.Context, id int64, input ports.ProductInput) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nameChanged := false
	if name := trimmed(input.Name); name != "" && name != p.Name {
		p.Name = name
		nameChanged = true
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	applyProductFields(p, input)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input); err != nil {
		return nil, err
	}

	if nameChanged || p.Slug == "" {
		p.Slug = s.assignSlug(ctx, p.Name, p.ID)
	}
	p.UpdatedAt = time.Now().UTC()

	updated, err := s.products.Update(ctx, p, dedupeIDs(input.TagIDs))
	if err != nil {
		return nil, err
	}
	metrics.ProductWritesTotal.WithLabelValues("update").Inc()
	s.log.Info().Int64("product_id", id).Str("slug", updated.Slug).Msg("product updated")
	return updated, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ProductWritesTotal.WithLabelValues("delete").Inc()
	s.log.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

func (s *ProductService) Search(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	return s.products.Search(ctx, filter)
}

// Resolve looks up "<id>-<slug>". When the slug is stale the product is
// returned together with its canonical path.
func (s *ProductService) Resolve(ctx context.Context, idSlug string) (*ports.ResolvedProduct, error) {
	m := idSlugPattern.FindStringSubmatch(idSlug)
	if m == nil {
		return nil, domain.NewValidationError("bad format: expected /p/<id>-<slug>")
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.NewValidationError("bad format: invalid product id")
	}

	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resolved := &ports.ResolvedProduct{Product: p}
	if m[2] != p.Slug {
		resolved.RedirectTo = p.CanonicalPath()
		metrics.SlugRedirectsTotal.Inc()
	}
	return resolved, nil
}

// assignSlug never fails: when the collision lookup errors the base slug is
// used and the unique index decides.
func (s *ProductService) assignSlug(ctx context.Context, name string, excludeID int64) string {
	base := slug.Derive(name)
	unique, err := slug.EnsureUnique(ctx, s.products, base, excludeID)
	if err != nil {
		s.log.Warn().Err(err).Str("slug", base).Msg("slug lookup failed, using base slug")
		return base
	}
	if unique != base {
		metrics.SlugCollisionsTotal.Inc()
	}
	return unique
}

func (s *ProductService) checkReferences(ctx context.Context, input ports.ProductInput) error {
	if input.CategoryID != nil && !input.ClearCategory {
		if _, err := s.categories.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return domain.NewValidationError("categoryId " + strconv.FormatInt(*input.CategoryID, 10) + " does not exist")
			}
			return err
		}
	}
	if len(input.TagIDs) == 0 {
		return nil
	}

	ids := dedupeIDs(input.TagIDs)
	found, err := s.tags.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return domain.NewValidationError("tagIds contains unknown tags")
	}
	return nil
}

func applyProductFields(p *domain.Product, input ports.ProductInput) {
	if input.Description != nil {
		p.Description = nonEmpty(input.Description)
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.Brand != nil {
		p.Brand = nonEmpty(input.Brand)
	}
	if input.Size != nil {
		p.Size = nonEmpty(input.Size)
	}
	if input.Color != nil {
		p.Color = nonEmpty(input.Color)
	}
	if input.SKU != nil {
		p.SKU = nonEmpty(input.SKU)
	}
	switch {
	case input.ClearCategory:
		p.CategoryID = nil
		p.Category = nil
	case input.CategoryID != nil:
		id := *input.CategoryID
		p.CategoryID = &id
	}
}

func validateProduct(p *domain.Product) error {
	if p.Price < 0 {
		return domain.NewValidationError("price must be non-negative")
	}
	if p.Stock < 0 {
		return domain.NewValidationError("stock must be non-negative")
	}
	return nil
}

// dedupeIDs keeps first occurrences and preserves nil.
func dedupeIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

