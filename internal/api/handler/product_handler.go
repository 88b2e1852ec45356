package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/api/jsend"
	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
	"github.com/storefront/catalog-api/internal/core/query"
)

// ProductHandler serves /api/products and the public /p/:idSlug resolver.
type ProductHandler struct {
	service ports.ProductService
}

func NewProductHandler(service ports.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

type productRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Price       *domain.Money `json:"price"`
	Stock       *int          `json:"stock"       validate:"omitempty,gte=0"`
	Brand       *string       `json:"brand"`
	Size        *string       `json:"size"`
	Color       *string       `json:"color"`
	SKU         *string       `json:"sku"`
	CategoryID  nullableID    `json:"categoryId"`
	TagIDs      []int64       `json:"tagIds"      validate:"omitempty,dive,gt=0"`
}

// nullableID tells an absent JSON field apart from an explicit null.
type nullableID struct {
	Set   bool
	Value *int64
}

func (n *nullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (r productRequest) input() (ports.ProductInput, error) {
	in := ports.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Brand:       r.Brand,
		Size:        r.Size,
		Color:       r.Color,
		SKU:         r.SKU,
		TagIDs:      r.TagIDs,
	}
	if r.CategoryID.Set {
		switch v := r.CategoryID.Value; {
		case v == nil:
			in.ClearCategory = true
		case *v <= 0:
			return ports.ProductInput{}, domain.NewValidationError("categoryId must be greater than 0")
		default:
			in.CategoryID = v
		}
	}
	return in, nil
}

type productResponse struct {
	Product *domain.Product `json:"product"`
}

type listMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type productsResponse struct {
	Products []*domain.Product `json:"products"`
	Meta     listMeta          `json:"meta"`
}

// List handles GET /api/products.
//
// @Summary      Search products
// @Tags         products
// @Produce      json
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        limit      query  int     false  "Page size (default 10, max 100)"
// @Param        search     query  string  false  "Substring of name or description"
// @Param        price_min  query  number  false  "Minimum price (inclusive)"
// @Param        price_max  query  number  false  "Maximum price (inclusive)"
// @Param        brand      query  string  false  "Exact brand"
// @Param        size       query  string  false  "Exact size"
// @Param        color      query  string  false  "Exact color"
// @Param        category   query  string  false  "Category id or name"
// @Param        tags       query  string  false  "Comma-separated tag ids"
// @Success      200  {object}  jsend.SuccessResponse{data=productsResponse}
// @Failure      400  {object}  jsend.FailResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c echo.Context) error {
	filter, err := query.BuildProductFilter(c.QueryParams())
	if err != nil {
		return err
	}

	page, err := h.service.Search(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	items := page.Items
	if items == nil {
		items = []*domain.Product{}
	}

	return jsend.Success(c, http.StatusOK, productsResponse{
		Products: items,
		Meta:     listMeta{Total: page.Total, Page: page.Page, Limit: page.Limit},
	})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return jsend.Success(c, http.StatusOK, productResponse{Product: p})
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.input()
	if err != nil {
		return err
	}
	p, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusCreated, productResponse{Product: p}, "product created successfully")
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.input()
	if err != nil {
		return err
	}
	p, err := h.service.Update(c.Request().Context(), id, input)
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, productResponse{Product: p}, "product updated successfully")
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, nil, "product deleted successfully")
}

// Resolve handles GET /p/:idSlug. A stale slug answers 301 with the
// canonical path in Location.
//
// @Summary      Public product page
// @Tags         products
// @Produce      json
// @Param        idSlug  path  string  true  "<id>-<slug>"
// @Success      200  {object}  jsend.SuccessResponse{data=productResponse}
// @Success      301
// @Failure      400  {object}  jsend.FailResponse
// @Failure      404  {object}  jsend.FailResponse
// @Router       /p/{idSlug} [get]
func (h *ProductHandler) Resolve(c echo.Context) error {
	resolved, err := h.service.Resolve(c.Request().Context(), c.Param("idSlug"))
	if err != nil {
		return err
	}
	if resolved.RedirectTo != "" {
		return c.Redirect(http.StatusMovedPermanently, resolved.RedirectTo)
	}
	return jsend.Success(c, http.StatusOK, productResponse{Product: resolved.Product})
}
