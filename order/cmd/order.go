package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/order/internal/controller"
	"github.com/Alturino/sneakerzone/order/internal/service"
)

func AttachOrder(
	c context.Context,
	router *mux.Router,
	client *backend.Client,
	session mux.MiddlewareFunc,
) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "cmd AttachOrder").Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing order service").Logger()
	logger.Info().Msg("initializing order service")
	orderService := service.NewOrderService(client)
	logger.Info().Msg("initialized order service")

	logger = logger.With().Str(log.KeyProcess, "initializing order controller").Logger()
	logger.Info().Msg("initializing order controller")
	controller.AttachOrderController(router, orderService, session)
	logger.Info().Msg("initialized order controller")
}
