package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/catalog-api/internal/api/handler"
	"github.com/storefront/catalog-api/internal/core/service"
	"github.com/storefront/catalog-api/internal/infrastructure/db/sqlite"
)

const testSecret = "router-test-secret"

// newTestRouter wires the real services onto an in-memory SQLite database.
func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()

	log := zerolog.Nop()
	db, err := sqlite.Open(t.Context(), sqlite.MemoryPath, log)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	users := sqlite.NewUserRepository(db)
	categories := sqlite.NewCategoryRepository(db)
	tags := sqlite.NewTagRepository(db)
	products := sqlite.NewProductRepository(db)
	tokens := service.NewJWTTokenService(testSecret, time.Hour)
	hasher := service.NewBcryptHasher(bcrypt.MinCost)

	return NewRouter(Dependencies{
		Auth:              service.NewAuthService(users, hasher, tokens, log),
		Users:             service.NewUserService(users, hasher, log),
		Categories:        service.NewCategoryService(categories, log),
		Tags:              service.NewTagService(tags, log),
		Products:          service.NewProductService(products, categories, tags, log),
		Tokens:            tokens,
		Readiness:         map[string]handler.Pinger{"sqlite": db},
		About:             handler.About{FullName: "Catalog API"},
		Log:               log,
		ExposeErrorDetail: true,
	})
}

type response struct {
	code     int
	location string
	body     map[string]any
}

func (r response) data(t *testing.T) map[string]any {
	t.Helper()
	data, ok := r.body["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", r.body)
	}
	return data
}

func do(t *testing.T, e *echo.Echo, method, target, token, body string) response {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	resp := response{code: rec.Code, location: rec.Header().Get(echo.HeaderLocation)}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp.body); err != nil {
			t.Fatalf("%s %s: invalid json %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return resp
}

// registerAndLogin creates an account and returns its id and bearer token.
func registerAndLogin(t *testing.T, e *echo.Echo, email, name string) (int64, string) {
	t.Helper()
	reg := do(t, e, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"email":%q,"password":"secret123","nombreCompleto":%q}`, email, name))
	if reg.code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d %v", email, reg.code, reg.body)
	}
	login := do(t, e, http.MethodPost, "/api/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"secret123"}`, email))
	if login.code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d %v", email, login.code, login.body)
	}
	return int64(reg.data(t)["id"].(float64)), login.data(t)["token"].(string)
}

func createProduct(t *testing.T, e *echo.Echo, token, body string) map[string]any {
	t.Helper()
	resp := do(t, e, http.MethodPost, "/api/products", token, body)
	if resp.code != http.StatusCreated {
		t.Fatalf("create product %s: expected 201, got %d %v", body, resp.code, resp.body)
	}
	return resp.data(t)["product"].(map[string]any)
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	e := newTestRouter(t)
	_, token := registerAndLogin(t, e, "ana@example.com", "Ana")

	dup := do(t, e, http.MethodPost, "/api/auth/register", "",
		`{"email":"ANA@example.com","password":"other","nombreCompleto":"Ana Again"}`)
	if dup.code != http.StatusConflict || dup.body["status"] != "fail" {
		t.Fatalf("expected 409 fail, got %d %v", dup.code, dup.body)
	}

	list := do(t, e, http.MethodGet, "/api/users", token, "")
	users := list.data(t)["users"].([]any)
	if len(users) != 1 {
		t.Fatalf("expected exactly one stored user, got %d", len(users))
	}
}

func TestRouter_LoginFailures(t *testing.T) {
	e := newTestRouter(t)
	registerAndLogin(t, e, "ana@example.com", "Ana")

	bad := do(t, e, http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"nope"}`)
	if bad.code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", bad.code)
	}
	missing := do(t, e, http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com"}`)
	if missing.code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", missing.code)
	}
}

func TestRouter_CrossUserMutationForbidden(t *testing.T) {
	e := newTestRouter(t)
	anaID, anaToken := registerAndLogin(t, e, "ana@example.com", "Ana")
	_, bobToken := registerAndLogin(t, e, "bob@example.com", "Bob")

	target := fmt.Sprintf("/api/users/%d", anaID)
	if resp := do(t, e, http.MethodPut, target, bobToken, `{"nombreCompleto":"Hacked"}`); resp.code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %v", resp.code, resp.body)
	}
	if resp := do(t, e, http.MethodDelete, target, bobToken, ""); resp.code != http.StatusForbidden {
		t.Fatalf("expected 403 on delete, got %d", resp.code)
	}

	got := do(t, e, http.MethodGet, target, anaToken, "")
	if name := got.data(t)["user"].(map[string]any)["nombreCompleto"]; name != "Ana" {
		t.Fatalf("target changed: %v", name)
	}

	if resp := do(t, e, http.MethodPut, "/api/users/9999", bobToken, `{"nombreCompleto":"X"}`); resp.code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing user, got %d", resp.code)
	}

	self := do(t, e, http.MethodPut, target, anaToken, `{"nombreCompleto":"Ana María"}`)
	if self.code != http.StatusOK {
		t.Fatalf("self update: expected 200, got %d %v", self.code, self.body)
	}
}

func TestRouter_TokenRules(t *testing.T) {
	e := newTestRouter(t)
	registerAndLogin(t, e, "ana@example.com", "Ana")

	if resp := do(t, e, http.MethodGet, "/api/users", "", ""); resp.code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.code)
	}
	if resp := do(t, e, http.MethodGet, "/api/users", "garbage", ""); resp.code != http.StatusForbidden {
		t.Fatalf("invalid token: expected 403, got %d", resp.code)
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    1,
		"email": "ana@example.com",
		"exp":   time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	resp := do(t, e, http.MethodGet, "/api/users", expired, "")
	if resp.code != http.StatusForbidden {
		t.Fatalf("expired token: expected 403, got %d", resp.code)
	}
	if resp.body["status"] != "fail" {
		t.Fatalf("expected fail envelope, got %v", resp.body)
	}
}

func TestRouter_SelfHealingProductPath(t *testing.T) {
	e := newTestRouter(t)
	_, token := registerAndLogin(t, e, "ana@example.com", "Ana")

	p := createProduct(t, e, token, `{"name":"Air Max","price":120}`)
	id := int64(p["id"].(float64))
	if p["slug"] != "air-max" {
		t.Fatalf("unexpected slug %v", p["slug"])
	}

	rename := do(t, e, http.MethodPut, fmt.Sprintf("/api/products/%d", id), token, `{"name":"Air Zoom"}`)
	if rename.code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d %v", rename.code, rename.body)
	}

	stale := do(t, e, http.MethodGet, fmt.Sprintf("/p/%d-air-max", id), "", "")
	if stale.code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", stale.code)
	}
	want := fmt.Sprintf("/p/%d-air-zoom", id)
	if stale.location != want {
		t.Fatalf("expected Location %s, got %s", want, stale.location)
	}

	canonical := do(t, e, http.MethodGet, stale.location, "", "")
	if canonical.code != http.StatusOK {
		t.Fatalf("following redirect: expected 200, got %d", canonical.code)
	}
	if name := canonical.data(t)["product"].(map[string]any)["name"]; name != "Air Zoom" {
		t.Fatalf("unexpected product %v", name)
	}

	if resp := do(t, e, http.MethodGet, "/p/not-a-product", "", ""); resp.code != http.StatusBadRequest {
		t.Fatalf("bad format: expected 400, got %d", resp.code)
	}
	if resp := do(t, e, http.MethodGet, "/p/999-air-zoom", "", ""); resp.code != http.StatusNotFound {
		t.Fatalf("missing product: expected 404, got %d", resp.code)
	}
}

func TestRouter_ProductFiltersAreConjunctive(t *testing.T) {
	e := newTestRouter(t)
	_, token := registerAndLogin(t, e, "ana@example.com", "Ana")

	createProduct(t, e, token, `{"name":"Cheap Nike","price":40,"brand":"Nike"}`)
	match := createProduct(t, e, token, `{"name":"Mid Nike","price":75,"brand":"Nike"}`)
	createProduct(t, e, token, `{"name":"Mid Adidas","price":80,"brand":"Adidas"}`)
	createProduct(t, e, token, `{"name":"Pricey Nike","price":150,"brand":"Nike"}`)

	resp := do(t, e, http.MethodGet, "/api/products?price_min=50&price_max=100&brand=Nike", "", "")
	if resp.code != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", resp.code, resp.body)
	}
	data := resp.data(t)
	products := data["products"].([]any)
	if len(products) != 1 || products[0].(map[string]any)["id"] != match["id"] {
		t.Fatalf("expected only %v, got %v", match["name"], products)
	}
	if total := data["meta"].(map[string]any)["total"]; total != float64(1) {
		t.Fatalf("unexpected total %v", total)
	}
}

func TestRouter_CategoriesAndTagsOnProducts(t *testing.T) {
	e := newTestRouter(t)
	_, token := registerAndLogin(t, e, "ana@example.com", "Ana")

	cat := do(t, e, http.MethodPost, "/api/categories", token, `{"name":"Shoes"}`)
	if cat.code != http.StatusCreated {
		t.Fatalf("create category: %d %v", cat.code, cat.body)
	}
	catID := cat.data(t)["category"].(map[string]any)["id"]

	tag := do(t, e, http.MethodPost, "/api/tags", token, `{"name":"sale"}`)
	if tag.code != http.StatusCreated {
		t.Fatalf("create tag: %d %v", tag.code, tag.body)
	}
	tagID := tag.data(t)["tag"].(map[string]any)["id"]

	if dup := do(t, e, http.MethodPost, "/api/tags", token, `{"name":"sale"}`); dup.code != http.StatusConflict {
		t.Fatalf("duplicate tag: expected 409, got %d", dup.code)
	}

	p := createProduct(t, e, token, fmt.Sprintf(`{"name":"Runner","price":10,"categoryId":%v,"tagIds":[%v]}`, catID, tagID))
	if p["category"].(map[string]any)["name"] != "Shoes" || len(p["tags"].([]any)) != 1 {
		t.Fatalf("relations not hydrated: %v", p)
	}

	byName := do(t, e, http.MethodGet, "/api/products?category=Shoes", "", "")
	if n := len(byName.data(t)["products"].([]any)); n != 1 {
		t.Fatalf("category filter: expected 1, got %d", n)
	}
	byTag := do(t, e, http.MethodGet, fmt.Sprintf("/api/products?tags=%v", tagID), "", "")
	if n := len(byTag.data(t)["products"].([]any)); n != 1 {
		t.Fatalf("tag filter: expected 1, got %d", n)
	}

	unknown := do(t, e, http.MethodPost, "/api/products", token, `{"name":"Ghost","price":1,"tagIds":[999]}`)
	if unknown.code != http.StatusBadRequest {
		t.Fatalf("unknown tag: expected 400, got %d", unknown.code)
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	e := newTestRouter(t)

	missing := do(t, e, http.MethodGet, "/api/nope", "", "")
	if missing.code != http.StatusNotFound || missing.body["status"] != "fail" {
		t.Fatalf("expected JSend 404, got %d %v", missing.code, missing.body)
	}
	if msg := missing.data(t)["message"]; msg != "route not found: /api/nope" {
		t.Fatalf("unexpected message %v", msg)
	}

	for _, path := range []string{"/api/ping", "/api/about", "/health", "/health/ready", "/api/products"} {
		if resp := do(t, e, http.MethodGet, path, "", ""); resp.code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "catalog_http_requests_total") {
		t.Fatalf("metrics endpoint missing request counter")
	}
}

func TestRouter_OversizedInputsAreClientErrors(t *testing.T) {
	e := newTestRouter(t)
	_, token := registerAndLogin(t, e, "ana@example.com", "Ana")
	createProduct(t, e, token, `{"name":"Runner","price":10}`)

	long := do(t, e, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"email":"long@example.com","password":%q,"nombreCompleto":"Long"}`, strings.Repeat("p", 80)))
	if long.code != http.StatusBadRequest || long.body["status"] != "fail" {
		t.Fatalf("long password: expected 400 fail, got %d %v", long.code, long.body)
	}

	price := do(t, e, http.MethodPost, "/api/products", token, `{"name":"Gold","price":1e17}`)
	if price.code != http.StatusBadRequest || price.data(t)["message"] != "price out of range" {
		t.Fatalf("huge price: expected 400 out of range, got %d %v", price.code, price.body)
	}

	bound := do(t, e, http.MethodGet, "/api/products?price_max=1e20", "", "")
	if bound.code != http.StatusBadRequest || bound.data(t)["message"] != "price_max out of range" {
		t.Fatalf("huge price_max: expected 400 out of range, got %d %v", bound.code, bound.body)
	}

	page := do(t, e, http.MethodGet, "/api/products?page=9223372036854775807&limit=100", "", "")
	if page.code != http.StatusOK {
		t.Fatalf("huge page: expected 200, got %d %v", page.code, page.body)
	}
	if n := len(page.data(t)["products"].([]any)); n != 0 {
		t.Fatalf("huge page: expected an empty page, got %d products", n)
	}
}

func TestRouter_ClearProductCategory(t *testing.T) {
	e := newTestRouter(t)
	_, token := registerAndLogin(t, e, "ana@example.com", "Ana")

	cat := do(t, e, http.MethodPost, "/api/categories", token, `{"name":"Shoes"}`)
	catID := cat.data(t)["category"].(map[string]any)["id"]
	p := createProduct(t, e, token, fmt.Sprintf(`{"name":"Runner","price":10,"categoryId":%v}`, catID))
	path := fmt.Sprintf("/api/products/%v", p["id"])

	kept := do(t, e, http.MethodPut, path, token, `{"stock":3}`)
	if kept.data(t)["product"].(map[string]any)["categoryId"] != catID {
		t.Fatalf("absent categoryId must keep the category: %v", kept.body)
	}

	cleared := do(t, e, http.MethodPut, path, token, `{"categoryId":null}`)
	if cleared.code != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", cleared.code, cleared.body)
	}
	product := cleared.data(t)["product"].(map[string]any)
	if product["categoryId"] != nil || product["category"] != nil {
		t.Fatalf("expected category cleared, got %v", product)
	}

	if zero := do(t, e, http.MethodPut, path, token, `{"categoryId":0}`); zero.code != http.StatusBadRequest {
		t.Fatalf("categoryId 0: expected 400, got %d", zero.code)
	}
}
