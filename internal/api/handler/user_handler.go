package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/api/jsend"
	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

// UserHandler serves /api/users. Mutations are limited to the caller's own account.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type updateUserRequest struct {
	Email    *string `json:"email"          validate:"omitempty,email"`
	Password *string `json:"password"`
	FullName *string `json:"nombreCompleto"`
}

type usersResponse struct {
	Users []*domain.User `json:"users"`
}

// List handles GET /api/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, usersResponse{Users: users}, "users retrieved successfully")
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, userResponse{User: user}, "user retrieved successfully")
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.Create(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusCreated, summarize(user), "user created successfully")
}

// Update handles PUT /api/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), identity, id, ports.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, userResponse{User: user}, "user updated successfully")
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), identity, id); err != nil {
		return err
	}
	return jsend.SuccessWithMessage(c, http.StatusOK, nil, "user deleted successfully")
}
