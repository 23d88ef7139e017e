package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/sneakerzone/internal/backend"
	"github.com/Alturino/sneakerzone/internal/constants"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	inHttp "github.com/Alturino/sneakerzone/internal/http"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/middleware"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/internal/validate"
	"github.com/Alturino/sneakerzone/product/internal/service"
	"github.com/Alturino/sneakerzone/product/pkg/request"
)

type ProductController struct {
	service *service.ProductService
}

func AttachProductController(router *mux.Router, service *service.ProductService, session mux.MiddlewareFunc) {
	controller := ProductController{service}

	products := router.PathPrefix("/products").Subrouter()
	products.HandleFunc("", controller.FindProducts).Methods(http.MethodGet)
	products.HandleFunc("/{productId}", controller.FindProductById).Methods(http.MethodGet)

	admin := router.PathPrefix("/admin/products").Subrouter()
	admin.Use(session, middleware.RequireRole(constants.RoleAdmin))
	admin.HandleFunc("", controller.InsertProduct).Methods(http.MethodPost)
	admin.HandleFunc("/{productId}", controller.UpdateProduct).Methods(http.MethodPut)
	admin.HandleFunc("/{productId}", controller.RemoveProduct).Methods(http.MethodDelete)
}

func statusOf(err error) int {
	if errors.Is(err, inErrors.ErrProductInactive) {
		return http.StatusNotFound
	}
	return backend.StatusCode(err)
}

func (ctrl ProductController) FindProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController FindProducts").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing query").Logger()
	logger.Trace().Msg("parsing query")
	query := r.URL.Query()
	param := request.FindProducts{Gender: query.Get("gender"), Query: query.Get("q")}
	if offers := query.Get("offers"); offers != "" {
		parsed, err := strconv.ParseBool(offers)
		if err != nil {
			err = fmt.Errorf("failed parsing offers=%s with error=%w", offers, err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
			return
		}
		param.Offers = parsed
	}
	if err := validate.New().StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating query with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Trace().Msg("parsed query")

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	logger.Trace().Msg("finding products")
	c = logger.WithContext(c)
	products, err := ctrl.service.FindProducts(c, param)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Int(log.KeyProducts, len(products)).Msg("found products")

	inHttp.WriteSuccess(c, w, "found products", map[string]interface{}{
		"products": products,
		"total":    len(products),
	})
}

func (ctrl ProductController) FindProductById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController FindProductById").
		Str(log.KeyProcess, "validating productId").
		Logger()

	logger.Trace().Msg("validating productId")
	productID, err := inHttp.PathID(r, "productId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.Int64(log.KeyProductID, productID))
	logger = logger.With().Int64(log.KeyProductID, productID).Logger()
	logger.Trace().Msg("validated productId")

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	c = logger.WithContext(c)
	product, err := ctrl.service.FindProductByID(c, productID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Msg("found product")

	inHttp.WriteSuccess(c, w, fmt.Sprintf("productId=%d found", productID), map[string]interface{}{
		"product": product,
	})
}

func (ctrl ProductController) decodeProduct(
	w http.ResponseWriter,
	r *http.Request,
	logger zerolog.Logger,
) (request.Product, bool) {
	c := r.Context()
	span := trace.SpanFromContext(c)

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Trace().Msg("decoding request body")
	reqBody := request.Product{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return request.Product{}, false
	}
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Trace().Msg("validating request body")
	if err := validate.New().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return request.Product{}, false
	}
	logger.Trace().Msg("validated request body")

	return reqBody, true
}

func (ctrl ProductController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController InsertProduct").
		Logger()

	reqBody, ok := ctrl.decodeProduct(w, r.WithContext(c), logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "inserting product").Logger()
	logger.Info().Msg("inserting product")
	c = logger.WithContext(c)
	product, err := ctrl.service.InsertProduct(c, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Msg("inserted product")

	inHttp.WriteSuccess(c, w, "successfully inserted product", map[string]interface{}{
		"product": product,
	})
}

func (ctrl ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController UpdateProduct").
		Logger()

	productID, err := inHttp.PathID(r, "productId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().Int64(log.KeyProductID, productID).Logger()

	reqBody, ok := ctrl.decodeProduct(w, r.WithContext(c), logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "updating product").Logger()
	logger.Info().Msg("updating product")
	c = logger.WithContext(c)
	product, err := ctrl.service.UpdateProduct(c, productID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Msg("updated product")

	inHttp.WriteSuccess(c, w, fmt.Sprintf("updated productId=%d", productID), map[string]interface{}{
		"product": product,
	})
}

func (ctrl ProductController) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController RemoveProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductController RemoveProduct").
		Logger()

	productID, err := inHttp.PathID(r, "productId")
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	logger = logger.With().
		Int64(log.KeyProductID, productID).
		Str(log.KeyProcess, "removing product").
		Logger()

	logger.Info().Msg("removing product")
	c = logger.WithContext(c)
	if err = ctrl.service.RemoveProduct(c, productID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusOf(err), backend.Message(err))
		return
	}
	logger.Info().Msg("removed product")

	inHttp.WriteSuccess(c, w, fmt.Sprintf("removed productId=%d", productID), nil)
}
