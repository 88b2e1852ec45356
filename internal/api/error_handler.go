package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/api/jsend"
	"github.com/storefront/catalog-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Renders 4xx as a JSend fail envelope and 5xx as a JSend error envelope.
//   - Logs unexpected errors and exposes their cause as "detail" only when
//     exposeDetail is set (non-production environments).
func NewHTTPErrorHandler(log zerolog.Logger, exposeDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, c)
		if code < http.StatusInternalServerError {
			_ = jsend.Fail(c, code, msg)
			return
		}

		// Unexpected error: log the real cause, return a generic message.
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")

		detail := ""
		if exposeDetail {
			detail = err.Error()
		}
		_ = jsend.Error(c, code, msg, detail)
	}
}

func resolveError(err error, c echo.Context) (int, string) {
	// Echo's own errors (router 404/405, bind failures, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, "route not found: " + c.Request().URL.Path
		case http.StatusMethodNotAllowed:
			return he.Code, "method not allowed"
		}
		if he.Code >= http.StatusInternalServerError {
			return he.Code, "internal server error"
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	// Known domain errors → deterministic HTTP codes. The sentinel's own
	// message is rendered so adapter wrapping never leaks to clients.
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.code, m.err.Error()
		}
	}

	return http.StatusInternalServerError, "internal server error"
}

var domainErrors = []struct {
	err  error
	code int
}{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrTokenRequired, http.StatusUnauthorized},
	{domain.ErrTokenInvalid, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrCategoryNotFound, http.StatusNotFound},
	{domain.ErrTagNotFound, http.StatusNotFound},
	{domain.ErrProductNotFound, http.StatusNotFound},
	{domain.ErrEmailTaken, http.StatusConflict},
	{domain.ErrCategoryExists, http.StatusConflict},
	{domain.ErrTagExists, http.StatusConflict},
	{domain.ErrSKUTaken, http.StatusConflict},
	{domain.ErrSlugTaken, http.StatusConflict},
}
