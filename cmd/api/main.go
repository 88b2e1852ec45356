package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/api"
	"github.com/storefront/catalog-api/internal/api/handler"
	"github.com/storefront/catalog-api/internal/core/ports"
	"github.com/storefront/catalog-api/internal/core/service"
	"github.com/storefront/catalog-api/internal/infrastructure/db/mongo"
	"github.com/storefront/catalog-api/internal/infrastructure/db/sqlite"
	"github.com/storefront/catalog-api/internal/pkg/config"
	"github.com/storefront/catalog-api/pkg/logger"
)

const serviceName = "catalog-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Caller:  !cfg.IsProduction(),
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
	log.Info().Msg("shutdown complete")
}

// storage groups the repositories of one backend with its lifecycle hooks.
type storage struct {
	users      ports.UserRepository
	categories ports.CategoryRepository
	tags       ports.TagRepository
	products   ports.ProductRepository
	pinger     handler.Pinger
	close      func(context.Context) error
}

func openStorage(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger) (*storage, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
		if err != nil {
			return nil, err
		}
		store := mongo.NewStore(db, logger.Component(log, "mongo"))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &storage{
			users:      mongo.NewUserRepository(store),
			categories: mongo.NewCategoryRepository(store),
			tags:       mongo.NewTagRepository(store),
			products:   mongo.NewProductRepository(store),
			pinger:     store,
			close:      client.Disconnect,
		}, nil
	default:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, logger.Component(log, "sqlite"))
		if err != nil {
			return nil, err
		}
		return &storage{
			users:      sqlite.NewUserRepository(db),
			categories: sqlite.NewCategoryRepository(db),
			tags:       sqlite.NewTagRepository(db),
			products:   sqlite.NewProductRepository(db),
			pinger:     db,
			close:      func(context.Context) error { return db.Close() },
		}, nil
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.UsesDevSecret() {
		log.Warn().Msg("JWT_SECRET not set, signing tokens with the development secret")
	}

	store, err := openStorage(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("close storage")
		}
	}()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	tokens := service.NewJWTTokenService(cfg.JWTSecret, cfg.TokenTTL)
	hasher := service.NewBcryptHasher(cfg.BcryptCost)

	e := api.NewRouter(api.Dependencies{
		Auth:       service.NewAuthService(store.users, hasher, tokens, logger.Component(log, "auth_service")),
		Users:      service.NewUserService(store.users, hasher, logger.Component(log, "user_service")),
		Categories: service.NewCategoryService(store.categories, logger.Component(log, "category_service")),
		Tags:       service.NewTagService(store.tags, logger.Component(log, "tag_service")),
		Products:   service.NewProductService(store.products, store.categories, store.tags, logger.Component(log, "product_service")),
		Tokens:     tokens,
		Readiness:  map[string]handler.Pinger{cfg.Storage.Driver: store.pinger},
		About: handler.About{
			FullName: cfg.About.FullName,
			IDNumber: cfg.About.IDNumber,
			Section:  cfg.About.Section,
		},
		Log:               logger.Component(log, "http"),
		ExposeErrorDetail: !cfg.IsProduction(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
