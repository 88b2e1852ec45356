package query

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"testing"

	"github.com/storefront/catalog-api/internal/core/domain"
)

func build(t *testing.T, raw string) domain.ProductFilter {
	t.Helper()
	params, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	f, err := BuildProductFilter(params)
	if err != nil {
		t.Fatalf("BuildProductFilter(%q): %v", raw, err)
	}
	return f
}

func TestBuildProductFilter_Defaults(t *testing.T) {
	f := build(t, "")

	if f.Page != 1 || f.Limit != 10 || f.Offset != 0 {
		t.Fatalf("unexpected pagination: page=%d limit=%d offset=%d", f.Page, f.Limit, f.Offset)
	}
	if f.Search != "" || f.PriceMin != nil || f.PriceMax != nil || f.CategoryID != nil || f.TagIDs != nil {
		t.Fatalf("expected no constraints, got %+v", f)
	}
	want := []string{domain.IncludeCategory, domain.IncludeTags}
	if !reflect.DeepEqual(f.Includes, want) {
		t.Fatalf("expected includes %v, got %v", want, f.Includes)
	}
}

func TestBuildProductFilter_Pagination(t *testing.T) {
	tests := []struct {
		query      string
		page       int
		limit      int
		wantOffset int
	}{
		{"page=3&limit=20", 3, 20, 40},
		{"limit=500", 1, 100, 0},
		{"limit=-5", 1, 1, 0},
		{"limit=0", 1, 10, 0},
		{"limit=abc&page=xyz", 1, 10, 0},
		{"page=0", 1, 10, 0},
		{"page=-2&limit=5", 1, 5, 0},
		{"page=2", 2, 10, 10},
	}
	for _, tc := range tests {
		f := build(t, tc.query)
		if f.Page != tc.page || f.Limit != tc.limit || f.Offset != tc.wantOffset {
			t.Errorf("%q: got page=%d limit=%d offset=%d, want %d/%d/%d",
				tc.query, f.Page, f.Limit, f.Offset, tc.page, tc.limit, tc.wantOffset)
		}
	}
}

func TestBuildProductFilter_HugePage(t *testing.T) {
	for _, raw := range []string{
		"page=9223372036854775807&limit=100",
		"page=9223372036854775807&limit=1",
		"page=92233720368547759&limit=100",
	} {
		f := build(t, raw)
		if f.Offset < 0 || f.Page < 1 {
			t.Fatalf("%q: offset %d page %d", raw, f.Offset, f.Page)
		}
		if f.Offset != (f.Page-1)*f.Limit {
			t.Fatalf("%q: offset %d does not match page %d limit %d", raw, f.Offset, f.Page, f.Limit)
		}
	}

	f := build(t, "page=9223372036854775807&limit=100")
	if f.Page != math.MaxInt/100+1 {
		t.Fatalf("expected page capped to %d, got %d", math.MaxInt/100+1, f.Page)
	}
}

func TestBuildProductFilter_PriceAndAttributes(t *testing.T) {
	f := build(t, "price_min=50&price_max=100&brand=X&size=42&color=white&search=air")

	if f.PriceMin == nil || *f.PriceMin != domain.Money(5000) {
		t.Fatalf("unexpected price_min: %v", f.PriceMin)
	}
	if f.PriceMax == nil || *f.PriceMax != domain.Money(10000) {
		t.Fatalf("unexpected price_max: %v", f.PriceMax)
	}
	if f.Brand != "X" || f.Size != "42" || f.Color != "white" || f.Search != "air" {
		t.Fatalf("unexpected attribute filters: %+v", f)
	}
}

func TestBuildProductFilter_MalformedPrice(t *testing.T) {
	for _, raw := range []string{"price_min=cheap", "price_max=NaN"} {
		params, _ := url.ParseQuery(raw)
		_, err := BuildProductFilter(params)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%q: expected validation error, got %v", raw, err)
		}
	}
}

func TestBuildProductFilter_PriceOutOfRange(t *testing.T) {
	tests := map[string]string{
		"price_max=1e20":              "price_max out of range",
		"price_min=-1e20":             "price_min out of range",
		"price_min=1&price_max=1e400": "price_max out of range",
	}
	for raw, msg := range tests {
		params, _ := url.ParseQuery(raw)
		_, err := BuildProductFilter(params)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%q: expected validation error, got %v", raw, err)
		}
		if verr.Error() != msg {
			t.Fatalf("%q: expected %q, got %q", raw, msg, verr.Error())
		}
	}
}

func TestBuildProductFilter_Category(t *testing.T) {
	f := build(t, "category=7")
	if f.CategoryID == nil || *f.CategoryID != 7 || f.CategoryName != "" {
		t.Fatalf("expected category id 7, got %+v", f)
	}

	f = build(t, "category=Casual")
	if f.CategoryID != nil || f.CategoryName != "Casual" {
		t.Fatalf("expected category name Casual, got %+v", f)
	}
}

func TestBuildProductFilter_Tags(t *testing.T) {
	f := build(t, "tags=3,%201,abc,,3,0,-4")
	want := []int64{3, 1}
	if !reflect.DeepEqual(f.TagIDs, want) {
		t.Fatalf("expected tag ids %v, got %v", want, f.TagIDs)
	}

	f = build(t, "tags=abc")
	if f.TagIDs != nil {
		t.Fatalf("expected no tag filter, got %v", f.TagIDs)
	}
}

func TestBuildProductFilter_Deterministic(t *testing.T) {
	raw := "page=2&limit=5&search=air&price_min=1.5&tags=2,1&category=shoes"
	a := build(t, raw)
	b := build(t, raw)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input produced different filters:\n%+v\n%+v", a, b)
	}
}
