package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/config"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/storage"
	"github.com/Alturino/sneakerzone/user/internal/controller"
	"github.com/Alturino/sneakerzone/user/internal/service"
)

// AttachUser serves sessions, accounts and the signed in user's saved addresses and payment
// methods. carts is emptied on sign out.
func AttachUser(
	c context.Context,
	router *mux.Router,
	client *backend.Client,
	provider storage.Provider,
	carts service.Carts,
	session mux.MiddlewareFunc,
	cfg config.Application,
) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "cmd AttachUser").Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing user service").Logger()
	logger.Info().Msg("initializing user service")
	userService := service.NewUserService(client, provider, carts, cfg)
	logger.Info().Msg("initialized user service")

	logger = logger.With().Str(log.KeyProcess, "initializing user controller").Logger()
	logger.Info().Msg("initializing user controller")
	controller.AttachUserController(router, userService, session)
	logger.Info().Msg("initialized user controller")
}
