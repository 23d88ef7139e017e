package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alturino/sneakerzone/cart/internal/service"
	"github.com/Alturino/sneakerzone/cart/pkg/request"
	"github.com/Alturino/sneakerzone/internal"
	"github.com/Alturino/sneakerzone/internal/backend"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	inHttp "github.com/Alturino/sneakerzone/internal/http"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/otel"
)

type CartController struct {
	service  *service.CartService
	upgrader *websocket.Upgrader
}

func AttachCartController(
	router *mux.Router,
	service *service.CartService,
	session mux.MiddlewareFunc,
	allowedOrigins []string,
) {
	controller := CartController{service: service, upgrader: newUpgrader(allowedOrigins)}

	carts := router.PathPrefix("/carts").Subrouter()
	carts.Use(session)
	carts.HandleFunc("", controller.FindCart).Methods(http.MethodGet)
	carts.HandleFunc("", controller.ClearCart).Methods(http.MethodDelete)
	carts.HandleFunc("/items", controller.AddProduct).Methods(http.MethodPost)
	carts.HandleFunc("/items/{productId}", controller.UpdateQuantity).Methods(http.MethodPut)
	carts.HandleFunc("/items/{productId}", controller.RemoveProduct).Methods(http.MethodDelete)
	carts.HandleFunc("/checkout", controller.Checkout).Methods(http.MethodPost)
	carts.HandleFunc("/ws", controller.Watch).Methods(http.MethodGet)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrProductInactive):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrOutOfStock):
		return http.StatusConflict
	}
	return backend.StatusCode(err)
}

func checkoutStatus(err *service.CheckoutError) int {
	switch err.Reason {
	case service.ReasonAuthRequired:
		return http.StatusUnauthorized
	case service.ReasonEmptyCart:
		return http.StatusConflict
	case service.ReasonAddressRequired, service.ReasonPaymentRequired:
		return http.StatusUnprocessableEntity
	case service.ReasonTransportFailure:
		return http.StatusServiceUnavailable
	}
	return backend.StatusCode(err.Err)
}

func (ctrl CartController) FindCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController FindCart")
	defer span.End()

	session, _ := internal.SessionFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController FindCart").
		Str(log.KeySessionID, session.ID.String()).
		Logger()

	cart := ctrl.service.FindCart(logger.WithContext(c), session.ID)
	logger.Trace().Int(log.KeyCartItemCount, cart.ItemCount).Msg("found cart")

	inHttp.WriteSuccess(c, w, "found cart", map[string]interface{}{"cart": cart})
}

func (ctrl CartController) AddProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddProduct")
	defer span.End()

	session, _ := internal.SessionFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddProduct").
		Str(log.KeySessionID, session.ID.String()).
		Str(log.KeyProcess, "validating request body").
		Logger()

	logger.Trace().Msg("validating request body")
	reqBody, err := inHttp.DecodeBody[request.AddProduct](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.Int64(log.KeyProductID, reqBody.ProductID))
	logger = logger.With().Int64(log.KeyProductID, reqBody.ProductID).Logger()
	logger.Trace().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "adding product").Logger()
	logger.Info().Msg("adding product")
	cart, err := ctrl.service.AddProduct(logger.WithContext(c), session.ID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Int(log.KeyCartItemCount, cart.ItemCount).Msg("added product")

	inHttp.WriteSuccess(c, w, "added product", map[string]interface{}{"cart": cart})
}

func (ctrl CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateQuantity")
	defer span.End()

	session, _ := internal.SessionFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateQuantity").
		Str(log.KeySessionID, session.ID.String()).
		Logger()

	productID, err := inHttp.PathID(r, "productId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	reqBody, err := inHttp.DecodeBody[request.UpdateQuantity](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().
		Int64(log.KeyProductID, productID).
		Int(log.KeyQuantity, reqBody.Quantity).
		Logger()

	cart := ctrl.service.UpdateQuantity(logger.WithContext(c), session.ID, productID, reqBody.Quantity)
	logger.Info().Msg("updated quantity")

	inHttp.WriteSuccess(c, w, fmt.Sprintf("updated productId=%d", productID), map[string]interface{}{
		"cart": cart,
	})
}

func (ctrl CartController) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveProduct")
	defer span.End()

	session, _ := internal.SessionFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveProduct").
		Str(log.KeySessionID, session.ID.String()).
		Logger()

	productID, err := inHttp.PathID(r, "productId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().Int64(log.KeyProductID, productID).Logger()

	cart := ctrl.service.RemoveProduct(logger.WithContext(c), session.ID, productID)
	logger.Info().Msg("removed product")

	inHttp.WriteSuccess(c, w, fmt.Sprintf("removed productId=%d", productID), map[string]interface{}{
		"cart": cart,
	})
}

func (ctrl CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ClearCart")
	defer span.End()

	session, _ := internal.SessionFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController ClearCart").
		Str(log.KeySessionID, session.ID.String()).
		Logger()

	cart := ctrl.service.Clear(logger.WithContext(c), session.ID)
	logger.Info().Msg("cleared cart")

	inHttp.WriteSuccess(c, w, "cleared cart", map[string]interface{}{"cart": cart})
}

func (ctrl CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Checkout")
	defer span.End()

	session, _ := internal.SessionFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController Checkout").
		Str(log.KeySessionID, session.ID.String()).
		Int64(log.KeyUserID, session.UserID).
		Str(log.KeyProcess, "validating request body").
		Logger()

	logger.Trace().Msg("validating request body")
	reqBody, err := inHttp.DecodeBody[request.Checkout](r.WithContext(c))
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Trace().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "checking out").Logger()
	logger.Info().Msg("checking out")
	result, err := ctrl.service.Checkout(logger.WithContext(c), session, reqBody)
	if err != nil {
		statusCode := http.StatusInternalServerError
		var checkoutErr *service.CheckoutError
		if errors.As(err, &checkoutErr) {
			statusCode = checkoutStatus(checkoutErr)
		}
		otel.RecordError(err, span)
		logger.Error().Err(err).Int(log.KeyStatusCode, statusCode).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCode,
			"message":    result.Message,
			"data":       map[string]interface{}{"checkout": result},
		})
		return
	}
	logger.Info().Int64(log.KeyOrderID, result.Order.ID).Msg("checked out")

	inHttp.WriteSuccess(c, w, result.Message, map[string]interface{}{"checkout": result})
}
