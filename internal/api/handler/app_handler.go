package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/api/jsend"
)

// About is the static identity payload served by /api/about.
type About struct {
	FullName string `json:"nombreCompleto"`
	IDNumber string `json:"cedula"`
	Section  string `json:"seccion"`
}

// AppHandler serves the informational endpoints.
type AppHandler struct {
	about About
}

func NewAppHandler(about About) *AppHandler {
	return &AppHandler{about: about}
}

// Ping handles GET /api/ping.
func (h *AppHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// About handles GET /api/about.
func (h *AppHandler) About(c echo.Context) error {
	return jsend.Success(c, http.StatusOK, h.about)
}
