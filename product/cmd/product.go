package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/product/internal/controller"
	"github.com/Alturino/sneakerzone/product/internal/service"
)

// AttachProduct serves the catalog. cache may be nil, in which case every listing goes to the
// backend.
func AttachProduct(
	c context.Context,
	router *mux.Router,
	client *backend.Client,
	cache *redis.Client,
	session mux.MiddlewareFunc,
) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "cmd AttachProduct").
		Bool("cached", cache != nil).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing product service").Logger()
	logger.Info().Msg("initializing product service")
	productService := service.NewProductService(client, cache)
	logger.Info().Msg("initialized product service")

	logger = logger.With().Str(log.KeyProcess, "initializing product controller").Logger()
	logger.Info().Msg("initializing product controller")
	controller.AttachProductController(router, productService, session)
	logger.Info().Msg("initialized product controller")
}
