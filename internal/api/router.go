package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/api/handler"
	"github.com/storefront/catalog-api/internal/api/middleware"
	"github.com/storefront/catalog-api/internal/core/ports"
)

// Dependencies are the services and probes the router exposes over HTTP.
type Dependencies struct {
	Auth       ports.AuthService
	Users      ports.UserService
	Categories ports.CategoryService
	Tags       ports.TagService
	Products   ports.ProductService
	Tokens     ports.TokenService

	// Readiness lists the storage backends pinged by /health/ready.
	Readiness map[string]handler.Pinger
	About     handler.About

	Log zerolog.Logger
	// ExposeErrorDetail adds the cause of 5xx errors to the response body.
	ExposeErrorDetail bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log, deps.ExposeErrorDetail)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(middleware.Metrics())

	requireAuth := middleware.Auth(deps.Tokens)

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)
	categoryHandler := handler.NewCategoryHandler(deps.Categories)
	tagHandler := handler.NewTagHandler(deps.Tags)
	productHandler := handler.NewProductHandler(deps.Products)
	appHandler := handler.NewAppHandler(deps.About)

	api := e.Group("/api")

	// --- Auth routes ---
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Users ---
	users := api.Group("/users", requireAuth)
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	// --- Categories ---
	categories := api.Group("/categories", requireAuth)
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create)
	categories.GET("/:id", categoryHandler.Get)
	categories.PUT("/:id", categoryHandler.Update)
	categories.DELETE("/:id", categoryHandler.Delete)

	// --- Tags ---
	tags := api.Group("/tags", requireAuth)
	tags.GET("", tagHandler.List)
	tags.POST("", tagHandler.Create)
	tags.GET("/:id", tagHandler.Get)
	tags.PUT("/:id", tagHandler.Update)
	tags.DELETE("/:id", tagHandler.Delete)

	// --- Products (listing is public) ---
	api.GET("/products", productHandler.List)
	api.POST("/products", productHandler.Create, requireAuth)
	api.GET("/products/:id", productHandler.Get, requireAuth)
	api.PUT("/products/:id", productHandler.Update, requireAuth)
	api.DELETE("/products/:id", productHandler.Delete, requireAuth)

	// Self-healing public product path.
	e.GET("/p/:idSlug", productHandler.Resolve)

	api.GET("/ping", appHandler.Ping)
	api.GET("/about", appHandler.About)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
