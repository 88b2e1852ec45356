package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

// stubProductService implements ports.ProductService; unset functions panic.
type stubProductService struct {
	ports.ProductService
	searchFn  func(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	resolveFn func(ctx context.Context, idSlug string) (*ports.ResolvedProduct, error)
	createFn  func(ctx context.Context, input ports.ProductInput) (*domain.Product, error)
	updateFn  func(ctx context.Context, id int64, input ports.ProductInput) (*domain.Product, error)
}

func (s *stubProductService) Search(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	return s.searchFn(ctx, filter)
}

func (s *stubProductService) Resolve(ctx context.Context, idSlug string) (*ports.ResolvedProduct, error) {
	return s.resolveFn(ctx, idSlug)
}

func (s *stubProductService) Create(ctx context.Context, input ports.ProductInput) (*domain.Product, error) {
	return s.createFn(ctx, input)
}

func (s *stubProductService) Update(ctx context.Context, id int64, input ports.ProductInput) (*domain.Product, error) {
	return s.updateFn(ctx, id, input)
}

func TestProductHandler_Resolve_RedirectsStaleSlug(t *testing.T) {
	stub := &stubProductService{
		resolveFn: func(ctx context.Context, idSlug string) (*ports.ResolvedProduct, error) {
			if idSlug != "7-old-name" {
				t.Fatalf("unexpected idSlug %q", idSlug)
			}
			return &ports.ResolvedProduct{RedirectTo: "/p/7-new-name"}, nil
		},
	}

	c, rec := newJSONContext(http.MethodGet, "/p/7-old-name", "")
	c.SetParamNames("idSlug")
	c.SetParamValues("7-old-name")

	if err := NewProductHandler(stub).Resolve(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/p/7-new-name" {
		t.Fatalf("unexpected Location %q", loc)
	}
}

func TestProductHandler_Resolve_Canonical(t *testing.T) {
	stub := &stubProductService{
		resolveFn: func(context.Context, string) (*ports.ResolvedProduct, error) {
			return &ports.ResolvedProduct{Product: &domain.Product{ID: 7, Name: "New name", Slug: "new-name"}}, nil
		},
	}

	c, rec := newJSONContext(http.MethodGet, "/p/7-new-name", "")
	c.SetParamNames("idSlug")
	c.SetParamValues("7-new-name")

	if err := NewProductHandler(stub).Resolve(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	product := decodeEnvelope(t, rec)["data"].(map[string]any)["product"].(map[string]any)
	if product["slug"] != "new-name" {
		t.Fatalf("unexpected product: %v", product)
	}
}

func TestProductHandler_List_FilterAndMeta(t *testing.T) {
	stub := &stubProductService{
		searchFn: func(ctx context.Context, f domain.ProductFilter) (*domain.ProductPage, error) {
			if f.Brand != "Acme" || f.PriceMin == nil || *f.PriceMin != 5000 || f.Page != 2 || f.Limit != 5 {
				t.Fatalf("unexpected filter: %+v", f)
			}
			return &domain.ProductPage{Total: 6, Page: f.Page, Limit: f.Limit}, nil
		},
	}

	c, rec := newJSONContext(http.MethodGet, "/api/products?brand=Acme&price_min=50&page=2&limit=5", "")
	if err := NewProductHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	products, ok := data["products"].([]any)
	if !ok || len(products) != 0 {
		t.Fatalf("products must be an empty array, got %v", data["products"])
	}
	meta := data["meta"].(map[string]any)
	if meta["total"] != float64(6) || meta["page"] != float64(2) || meta["limit"] != float64(5) {
		t.Fatalf("unexpected meta: %v", meta)
	}
}

func TestProductHandler_List_BadPrice(t *testing.T) {
	c, _ := newJSONContext(http.MethodGet, "/api/products?price_min=abc", "")
	err := NewProductHandler(&stubProductService{}).List(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProductHandler_Create_PassesFields(t *testing.T) {
	stub := &stubProductService{
		createFn: func(ctx context.Context, in ports.ProductInput) (*domain.Product, error) {
			if in.Name == nil || *in.Name != "Air Test" || in.Price == nil || *in.Price != 9999 {
				t.Fatalf("unexpected input: %+v", in)
			}
			if len(in.TagIDs) != 2 || in.CategoryID == nil || *in.CategoryID != 3 {
				t.Fatalf("unexpected relations: %+v", in)
			}
			return &domain.Product{ID: 1, Name: *in.Name, Price: *in.Price, Slug: "air-test"}, nil
		},
	}

	c, rec := newJSONContext(http.MethodPost, "/api/products",
		`{"name":"Air Test","price":"99.99","categoryId":3,"tagIds":[1,2]}`)
	if err := NewProductHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	product := decodeEnvelope(t, rec)["data"].(map[string]any)["product"].(map[string]any)
	if product["price"] != 99.99 {
		t.Fatalf("price must render as a number, got %v", product["price"])
	}
}

func TestProductHandler_Create_RejectsNonPositiveTagIDs(t *testing.T) {
	c, _ := newJSONContext(http.MethodPost, "/api/products", `{"name":"x","price":1,"tagIds":[0]}`)
	err := NewProductHandler(&stubProductService{}).Create(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProductHandler_Create_RejectsHugePrice(t *testing.T) {
	c, _ := newJSONContext(http.MethodPost, "/api/products", `{"name":"x","price":1e17}`)
	err := NewProductHandler(&stubProductService{}).Create(c)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Message != "price out of range" {
		t.Fatalf("expected price out of range, got %v", err)
	}
}

func TestProductHandler_Update_CategoryID(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantClear bool
		wantID    int64
	}{
		{"absent keeps category", `{"name":"x"}`, false, 0},
		{"null clears category", `{"categoryId":null}`, true, 0},
		{"id sets category", `{"categoryId":4}`, false, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got ports.ProductInput
			stub := &stubProductService{
				updateFn: func(ctx context.Context, id int64, in ports.ProductInput) (*domain.Product, error) {
					got = in
					return &domain.Product{ID: id, Name: "x", Slug: "x"}, nil
				},
			}
			c, rec := newJSONContext(http.MethodPut, "/api/products/9", tc.body)
			c.SetParamNames("id")
			c.SetParamValues("9")

			if err := NewProductHandler(stub).Update(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got.ClearCategory != tc.wantClear {
				t.Fatalf("ClearCategory = %v, want %v", got.ClearCategory, tc.wantClear)
			}
			if tc.wantID == 0 && got.CategoryID != nil {
				t.Fatalf("expected no category id, got %d", *got.CategoryID)
			}
			if tc.wantID != 0 && (got.CategoryID == nil || *got.CategoryID != tc.wantID) {
				t.Fatalf("expected category id %d, got %v", tc.wantID, got.CategoryID)
			}
		})
	}
}

func TestProductHandler_Update_RejectsNonPositiveCategoryID(t *testing.T) {
	for _, body := range []string{`{"categoryId":0}`, `{"categoryId":-3}`, `{"categoryId":"abc"}`} {
		c, _ := newJSONContext(http.MethodPut, "/api/products/9", body)
		c.SetParamNames("id")
		c.SetParamValues("9")
		err := NewProductHandler(&stubProductService{}).Update(c)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", body, err)
		}
	}
}
