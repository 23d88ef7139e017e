package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/cart/internal/controller"
	"github.com/Alturino/sneakerzone/cart/internal/service"
	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/config"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/metrics"
	"github.com/Alturino/sneakerzone/internal/storage"
)

// AttachCart serves the session cart and checkout. Idle cart stores are swept until c is done.
func AttachCart(
	c context.Context,
	router *mux.Router,
	client *backend.Client,
	provider storage.Provider,
	m *metrics.Metrics,
	session mux.MiddlewareFunc,
	cfg config.Application,
) *service.CartRegistry {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "cmd AttachCart").
		Dur("cartIdle", cfg.CartIdle).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing cart registry").Logger()
	logger.Info().Msg("initializing cart registry")
	registry := service.NewCartRegistry(provider, m)
	go registry.Run(logger.WithContext(c), cfg.CartIdle/2, cfg.CartIdle)
	logger.Info().Msg("initialized cart registry")

	logger = logger.With().Str(log.KeyProcess, "initializing cart service").Logger()
	logger.Info().Msg("initializing cart service")
	checkoutService := service.NewCheckoutService(client, m)
	cartService := service.NewCartService(registry, client, checkoutService)
	logger.Info().Msg("initialized cart service")

	logger = logger.With().Str(log.KeyProcess, "initializing cart controller").Logger()
	logger.Info().Msg("initializing cart controller")
	controller.AttachCartController(router, cartService, session, cfg.AllowedOrigins)
	logger.Info().Msg("initialized cart controller")

	return registry
}
