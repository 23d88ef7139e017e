package controller

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/internal"
	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/constants"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	inHttp "github.com/Alturino/sneakerzone/internal/http"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/middleware"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/order/internal/service"
	"github.com/Alturino/sneakerzone/order/pkg/request"
)

type OrderController struct {
	service *service.OrderService
}

func AttachOrderController(router *mux.Router, service *service.OrderService, session mux.MiddlewareFunc) {
	controller := OrderController{service: service}

	orders := router.PathPrefix("/orders").Subrouter()
	orders.Use(session, middleware.RequireUser)
	orders.HandleFunc("", controller.FindOrders).Methods(http.MethodGet)
	orders.HandleFunc("/{orderId}", controller.FindOrderById).Methods(http.MethodGet)

	staff := middleware.RequireRole(constants.RoleAdmin, constants.RoleEmployee)

	sales := router.PathPrefix("/admin/sales").Subrouter()
	sales.Use(session, staff)
	sales.HandleFunc("", controller.Sales).Methods(http.MethodGet)

	purchases := router.PathPrefix("/admin/purchases").Subrouter()
	purchases.Use(session, staff)
	purchases.HandleFunc("", controller.Purchases).Methods(http.MethodGet)
	purchases.HandleFunc("", controller.CreatePurchase).Methods(http.MethodPost)
}

func statusOf(err error) int {
	if errors.Is(err, inErrors.ErrOrderNotFound) {
		return http.StatusNotFound
	}
	return backend.StatusCode(err)
}

func (ctrl OrderController) FindOrders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrders").
		Str(log.KeyProcess, "finding orders").
		Logger()

	session, _ := internal.SessionFromContext(c)
	logger.Trace().Msg("finding orders")
	orders, err := ctrl.service.FindOrders(logger.WithContext(c), session.UserID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Int(log.KeyOrders, len(orders)).Msg("found orders")

	inHttp.WriteSuccess(c, w, "found orders", map[string]interface{}{
		"orders": orders,
		"total":  len(orders),
	})
}

func (ctrl OrderController) FindOrderById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController FindOrderById").
		Str(log.KeyProcess, "validating orderId").
		Logger()

	logger.Trace().Msg("validating orderId")
	orderID, err := inHttp.PathID(r, "orderId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().Int64(log.KeyOrderID, orderID).Logger()
	logger.Trace().Msg("validated orderId")

	session, _ := internal.SessionFromContext(c)
	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	order, err := ctrl.service.FindOrderByID(logger.WithContext(c), session.UserID, orderID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Msg("found order")

	inHttp.WriteSuccess(c, w, "found order", map[string]interface{}{"order": order})
}

func (ctrl OrderController) Sales(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController Sales")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderController Sales").Logger()

	orders, err := ctrl.service.Sales(logger.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, "found sales", map[string]interface{}{
		"orders": orders,
		"total":  len(orders),
	})
}

func (ctrl OrderController) Purchases(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController Purchases")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderController Purchases").Logger()

	purchases, err := ctrl.service.Purchases(logger.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}

	inHttp.WriteSuccess(c, w, "found purchases", map[string]interface{}{
		"purchases": purchases,
		"total":     len(purchases),
	})
}

func (ctrl OrderController) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CreatePurchase")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderController CreatePurchase").
		Str(log.KeyProcess, "validating request body").
		Logger()

	logger.Trace().Msg("validating request body")
	reqBody, err := inHttp.DecodeBody[request.CreatePurchase](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Trace().Msg("validated request body")

	session, _ := internal.SessionFromContext(c)
	logger = logger.With().Str(log.KeyProcess, "creating purchase").Logger()
	purchase, err := ctrl.service.CreatePurchase(logger.WithContext(c), session.UserID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Int64(log.KeyPurchaseID, purchase.ID).Msg("created purchase")

	inHttp.WriteSuccess(c, w, "created purchase", map[string]interface{}{"purchase": purchase})
}
