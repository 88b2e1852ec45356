// Package query turns product listing query parameters into a
// domain.ProductFilter. It holds no state: equal inputs give equal filters.
package query

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/storefront/catalog-api/internal/core/domain"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultPage  = 1
)

// BuildProductFilter applies pagination, search, price range, attribute,
// category and tag parameters in that order. Only a malformed price bound is
// reported as an error; other unparseable values fall back to defaults or
// are ignored.
func BuildProductFilter(params url.Values) (domain.ProductFilter, error) {
	f := domain.ProductFilter{
		Includes: []string{domain.IncludeCategory, domain.IncludeTags},
	}

	buildPagination(params, &f)
	f.Search = strings.TrimSpace(params.Get("search"))

	if err := buildPriceRange(params, &f); err != nil {
		return domain.ProductFilter{}, err
	}

	f.Brand = params.Get("brand")
	f.Size = params.Get("size")
	f.Color = params.Get("color")

	buildCategory(params, &f)
	buildTags(params, &f)

	return f, nil
}

func buildPagination(params url.Values, f *domain.ProductFilter) {
	page := atoiOr(params.Get("page"), DefaultPage)
	if page < 1 {
		page = DefaultPage
	}

	limit := atoiOr(params.Get("limit"), DefaultLimit)
	switch {
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}

	// Keep the offset representable.
	if page-1 > math.MaxInt/limit {
		page = math.MaxInt/limit + 1
	}

	f.Page = page
	f.Limit = limit
	f.Offset = (page - 1) * limit
}

func buildPriceRange(params url.Values, f *domain.ProductFilter) error {
	var err error
	if f.PriceMin, err = parsePriceBound(params, "price_min"); err != nil {
		return err
	}
	if f.PriceMax, err = parsePriceBound(params, "price_max"); err != nil {
		return err
	}
	return nil
}

func parsePriceBound(params url.Values, name string) (*domain.Money, error) {
	raw := params.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := domain.ParseMoney(raw)
	switch {
	case errors.Is(err, domain.ErrMoneyOutOfRange):
		return nil, domain.NewValidationError(name + " out of range")
	case err != nil:
		return nil, domain.NewValidationError(name + " must be a number")
	}
	return &v, nil
}

func buildCategory(params url.Values, f *domain.ProductFilter) {
	raw := strings.TrimSpace(params.Get("category"))
	if raw == "" {
		return
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		f.CategoryID = &id
		return
	}
	f.CategoryName = raw
}

func buildTags(params url.Values, f *domain.ProductFilter) {
	raw := params.Get("tags")
	if raw == "" {
		return
	}
	seen := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		f.TagIDs = append(f.TagIDs, id)
	}
}

// atoiOr parses s, returning def when s is empty, malformed or zero.
func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return def
	}
	return n
}
