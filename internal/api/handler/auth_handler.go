package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/api/jsend"
	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email    string `json:"email"          validate:"required,email"`
	Password string `json:"password"       validate:"required"`
	FullName string `json:"nombreCompleto" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userSummary is the public projection returned after account creation.
type userSummary struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"nombreCompleto"`
}

func summarize(u *domain.User) userSummary {
	return userSummary{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  jsend.SuccessResponse{data=userSummary}
// @Failure      400   {object}  jsend.FailResponse
// @Failure      409   {object}  jsend.FailResponse
// @Failure      500   {object}  jsend.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}

	return jsend.SuccessWithMessage(c, http.StatusCreated, summarize(user), "user registered successfully")
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  jsend.SuccessResponse{data=tokenResponse}
// @Failure      400   {object}  jsend.FailResponse
// @Failure      401   {object}  jsend.FailResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return jsend.SuccessWithMessage(c, http.StatusOK, tokenResponse{Token: token}, "login successful")
}

// Me returns the profile of the authenticated user.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  jsend.SuccessResponse{data=userResponse}
// @Failure      401  {object}  jsend.FailResponse
// @Failure      404  {object}  jsend.FailResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), identity)
	if err != nil {
		return err
	}

	return jsend.SuccessWithMessage(c, http.StatusOK, userResponse{User: user}, "profile retrieved successfully")
}
