// Package setup wires storage, services, and handlers together.
package setup

import (
	"fmt"

	"github.com/shoply-dev/shoply/internal/config"
	"github.com/shoply-dev/shoply/internal/email"
	"github.com/shoply-dev/shoply/internal/handler"
	"github.com/shoply-dev/shoply/internal/jwt"
	"github.com/shoply-dev/shoply/internal/middleware"
	"github.com/shoply-dev/shoply/internal/service"
	"github.com/shoply-dev/shoply/internal/storage/memory"
	"github.com/shoply-dev/shoply/internal/storage/pg"
)

// Storage is the full persistence surface required by the services, plus
// lifecycle hooks.
type Storage interface {
	service.AuthStorage
	service.AccountStorage
	service.CatalogStorage
	service.CartStorage
	service.OrderStorage
	handler.Pinger
	Cleanup() error
}

// Dependencies holds all initialized dependencies.
type Dependencies struct {
	Storage        Storage
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
	Config         *config.Config
	Jwt            jwt.JwtService
}

// SetupDependencies initializes all dependencies required for the
// application. The storage backend is selected by config: "pg" for
// PostgreSQL, "memory" for the in-process store.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	var storage Storage
	switch cfg.Public.Storage {
	case "pg":
		pgStorage, err := pg.New(cfg)
		if err != nil {
			return nil, err
		}
		storage = pgStorage
	case "memory":
		storage = memory.New()
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Public.Storage)
	}

	emailSender := email.New(&cfg.Private.Email)
	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	auth := service.NewAuth(storage, emailSender, jwtService, cfg)
	account := service.NewAccount(storage)
	catalog := service.NewCatalog(storage)
	cart := service.NewCart(storage)
	order := service.NewOrder(storage, cfg)

	h := handler.New(auth, account, catalog, cart, order, storage, cfg)

	return &Dependencies{
		Storage:        storage,
		Handler:        h,
		AuthMiddleware: middleware.NewAuth(jwtService),
		Config:         cfg,
		Jwt:            jwtService,
	}, nil
}
