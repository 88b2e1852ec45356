package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/api/jsend"
	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

// CategoryHandler serves /api/categories.
type CategoryHandler struct {
	service ports.CategoryService
}

func NewCategoryHandler(service ports.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type categoryResponse struct {
	Category *domain.Category `json:"category"`
}

type categoriesResponse struct {
	Categories []*domain.Category `json:"categories"`
}

func (h *CategoryHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.Category{}
	}
	return jsend.Success(c, http.StatusOK, categoriesResponse{Categories: items})
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return jsend.Success(c, http.StatusOK, categoryResponse{Category: item})
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.service.Create(c.Request().Context(), ports.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusCreated, categoryResponse{Category: item}, "category created successfully")
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.service.Update(c.Request().Context(), id, ports.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, categoryResponse{Category: item}, "category updated successfully")
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, nil, "category deleted successfully")
}

// TagHandler serves /api/tags.
type TagHandler struct {
	service ports.TagService
}

func NewTagHandler(service ports.TagService) *TagHandler {
	return &TagHandler{service: service}
}

type tagRequest struct {
	Name *string `json:"name"`
}

type tagResponse struct {
	Tag *domain.Tag `json:"tag"`
}

type tagsResponse struct {
	Tags []*domain.Tag `json:"tags"`
}

func (h *TagHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.Tag{}
	}
	return jsend.Success(c, http.StatusOK, tagsResponse{Tags: items})
}

func (h *TagHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	item, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return jsend.Success(c, http.StatusOK, tagResponse{Tag: item})
}

func (h *TagHandler) Create(c echo.Context) error {
	var req tagRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	item, err := h.service.Create(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusCreated, tagResponse{Tag: item}, "tag created successfully")
}

func (h *TagHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req tagRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.service.Update(c.Request().Context(), id, req.Name)
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, tagResponse{Tag: item}, "tag updated successfully")
}

func (h *TagHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, nil, "tag deleted successfully")
}
