package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	cartCmd "github.com/Alturino/sneakerzone/cart/cmd"
	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/config"
	"github.com/Alturino/sneakerzone/internal/constants"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/infra"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/metrics"
	"github.com/Alturino/sneakerzone/internal/middleware"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/internal/storage"
	orderCmd "github.com/Alturino/sneakerzone/order/cmd"
	productCmd "github.com/Alturino/sneakerzone/product/cmd"
	userCmd "github.com/Alturino/sneakerzone/user/cmd"
)

// newProvider opens the session storage selected by cfg.Storage.Driver. The returned redis client
// is non-nil only for the redis driver and is shared with the catalog cache.
func newProvider(
	c context.Context,
	cfg *config.Config,
) (storage.Provider, *redis.Client, func(), error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "cmd newProvider").
		Str(log.KeyStorageDriver, cfg.Storage.Driver).
		Logger()
	c = logger.WithContext(c)

	switch cfg.Storage.Driver {
	case storage.DriverMemory:
		logger.Warn().Msg("carts and sessions are lost on restart")
		return storage.NewMemoryProvider(), nil, func() {}, nil
	case storage.DriverRedis:
		cache, err := infra.NewCacheClient(c, cfg.Cache)
		if err != nil {
			return nil, nil, nil, err
		}
		closeCache := func() {
			if err := cache.Close(); err != nil {
				logger.Error().Err(err).Msg("failed shutting down cache")
			}
		}
		return storage.NewRedisProvider(cache, cfg.Storage.TTL), cache, closeCache, nil
	case storage.DriverPostgres:
		db, err := infra.NewDatabaseClient(c, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		return storage.NewPostgresProvider(db), nil, db.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("driver=%s with error=%w", cfg.Storage.Driver, inErrors.ErrUnknownStorage)
}

func runStorefront(c context.Context, configName string) {
	c, span := otel.Tracer.Start(c, "runStorefront")
	defer span.End()

	cfg := config.Get(c, configName)
	logger := log.Get(cfg.Log.Path, cfg.Application.Env).
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "main runStorefront").
		Logger()
	logger.Info().Any(log.KeyConfig, cfg).Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppStorefront, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		if err := otel.ShutdownOtel(logger.WithContext(context.Background()), otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing storage").Logger()
	logger.Info().Msg("initializing storage")
	c = logger.WithContext(c)
	provider, cache, closeStorage, err := newProvider(c, cfg)
	if err != nil {
		err = fmt.Errorf("failed initializing storage with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer closeStorage()
	logger.Info().Msg("initialized storage")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	m := metrics.New(prometheus.DefaultRegisterer)
	client := backend.NewClient(cfg.Backend, m)
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.AppStorefront),
		middleware.Logging,
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	session := middleware.Session(cfg.Application.SecretKey, provider)
	productCmd.AttachProduct(c, router, client, cache, session)
	registry := cartCmd.AttachCart(c, router, client, provider, m, session, cfg.Application)
	userCmd.AttachUser(c, router, client, provider, registry, session, cfg.Application)
	orderCmd.AttachOrder(c, router, client, session)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext: func(net.Listener) context.Context { return c },
		Handler:     router,
		ReadTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while server is running", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown server")
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}

func runMigrate(c context.Context, configName string) {
	cfg := config.Get(c, configName)
	logger := log.Get(cfg.Log.Path, cfg.Application.Env).
		With().
		Str(log.KeyAppName, constants.AppStorefront).
		Str(log.KeyTag, "main runMigrate").
		Str(log.KeyProcess, "migrating database").
		Logger()

	logger.Info().Msg("migrating database")
	db, err := infra.NewDatabaseClient(logger.WithContext(c), cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg(err.Error())
	}
	db.Close()
	logger.Info().Msg("migrated database")
}
