package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/domain"
)

func renderError(t *testing.T, err error, exposeDetail bool) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/things/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop(), exposeDetail)(err, c)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return rec.Code, body
}

func failMessage(t *testing.T, body map[string]any) string {
	t.Helper()
	if body["status"] != "fail" {
		t.Fatalf("expected fail envelope, got %v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("fail envelope without data: %v", body)
	}
	msg, _ := data["message"].(string)
	return msg
}

func TestHTTPErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.NewValidationError("name is required"), http.StatusBadRequest, "name is required"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{domain.ErrTokenRequired, http.StatusUnauthorized, "token required"},
		{fmt.Errorf("%w: expired", domain.ErrTokenInvalid), http.StatusForbidden, "invalid or expired token"},
		{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{fmt.Errorf("find: %w", domain.ErrProductNotFound), http.StatusNotFound, "product not found"},
		{errors.Join(domain.ErrEmailTaken, errors.New("UNIQUE constraint failed: users.email")), http.StatusConflict, "email already registered"},
		{domain.ErrSlugTaken, http.StatusConflict, "slug already in use"},
	}

	for _, tc := range cases {
		code, body := renderError(t, tc.err, true)
		if code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, code)
		}
		if msg := failMessage(t, body); msg != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, msg)
		}
	}
}

func TestHTTPErrorHandler_RouteNotFound(t *testing.T) {
	code, body := renderError(t, echo.ErrNotFound, false)
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if msg := failMessage(t, body); msg != "route not found: /api/things/1" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHTTPErrorHandler_InternalDetail(t *testing.T) {
	cause := errors.New("disk on fire")

	code, body := renderError(t, cause, true)
	if code != http.StatusInternalServerError || body["status"] != "error" {
		t.Fatalf("unexpected response %d %v", code, body)
	}
	if body["message"] != "internal server error" || body["detail"] != "disk on fire" {
		t.Fatalf("unexpected body: %v", body)
	}

	_, body = renderError(t, cause, false)
	if _, ok := body["detail"]; ok {
		t.Fatalf("detail must be hidden in production: %v", body)
	}
}
