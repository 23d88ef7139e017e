package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/sneakerzone/internal/backend"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/product/pkg/request"
	"github.com/Alturino/sneakerzone/product/pkg/response"
)

const (
	KeyActiveProducts = "sneakerzone:products:active"
	CacheTTL          = time.Minute
)

type ProductBackend interface {
	FindProducts(c context.Context) ([]response.Product, error)
	FindProductByID(c context.Context, id int64) (response.Product, error)
	CreateProduct(c context.Context, param request.Product) (response.Product, error)
	UpdateProduct(c context.Context, id int64, param request.Product) (response.Product, error)
	DeleteProduct(c context.Context, id int64) error
}

// ProductService serves the catalog. The active product list is cached in redis for CacheTTL;
// a nil cache disables caching.
type ProductService struct {
	backend ProductBackend
	cache   *redis.Client
}

func NewProductService(backend ProductBackend, cache *redis.Client) *ProductService {
	return &ProductService{backend: backend, cache: cache}
}

func matchesGender(product response.Product, gender string) bool {
	if gender == "" {
		return true
	}
	productGender := strings.ToLower(product.Gender)
	if productGender == gender {
		return true
	}
	return productGender == "unisex" && gender != "kids"
}

func (svc *ProductService) FindProducts(
	c context.Context,
	param request.FindProducts,
) ([]response.Product, error) {
	c, span := otel.Tracer.Start(
		c,
		"ProductService FindProducts",
		trace.WithAttributes(
			attribute.String("gender", param.Gender),
			attribute.Bool("offers", param.Offers),
			attribute.String("query", param.Query),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProducts").
		Str("gender", param.Gender).
		Bool("offers", param.Offers).
		Str("query", param.Query).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding active products").Logger()
	logger.Trace().Msg("finding active products")
	products, err := svc.activeProducts(logger.WithContext(c))
	if err != nil {
		err = fmt.Errorf("failed finding active products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("found active products")

	logger = logger.With().Str(log.KeyProcess, "filtering products").Logger()
	query := strings.ToLower(strings.TrimSpace(param.Query))
	filtered := []response.Product{}
	for _, product := range products {
		if !matchesGender(product, param.Gender) {
			continue
		}
		if param.Offers && !product.OnOffer() {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(product.Name), query) &&
			!strings.Contains(strings.ToLower(product.Brand), query) {
			continue
		}
		filtered = append(filtered, product)
	}
	logger.Debug().Int(log.KeyProducts, len(filtered)).Msg("filtered products")

	return filtered, nil
}

func (svc *ProductService) activeProducts(c context.Context) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService activeProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService activeProducts").
		Str(log.KeyCacheKey, KeyActiveProducts).
		Logger()

	if svc.cache != nil {
		logger = logger.With().Str(log.KeyProcess, "finding products in cache").Logger()
		logger.Trace().Msg("finding products in cache")
		cached, err := svc.cache.Get(c, KeyActiveProducts).Result()
		switch {
		case err == nil:
			products := []response.Product{}
			if err = json.Unmarshal([]byte(cached), &products); err == nil {
				span.AddEvent("found products in cache")
				logger.Trace().Msg("found products in cache")
				return products, nil
			}
			err = fmt.Errorf("failed unmarshalling cached products with error=%w", err)
			logger.Warn().Err(err).Msg(err.Error())
		case errors.Is(err, redis.Nil):
			logger.Trace().Msg("products not in cache")
		default:
			err = fmt.Errorf("failed finding products in cache with error=%w", err)
			otel.RecordError(err, span)
			logger.Warn().Err(err).Msg(err.Error())
		}
	}

	logger = logger.With().Str(log.KeyProcess, "finding products in backend").Logger()
	logger.Trace().Msg("finding products in backend")
	products, err := svc.backend.FindProducts(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	active := make([]response.Product, 0, len(products))
	for _, product := range products {
		if product.Active {
			active = append(active, product)
		}
	}
	logger.Trace().Int(log.KeyProducts, len(active)).Msg("found products in backend")

	if svc.cache != nil {
		logger = logger.With().Str(log.KeyProcess, "inserting products to cache").Logger()
		payload, err := json.Marshal(active)
		if err == nil {
			err = svc.cache.Set(c, KeyActiveProducts, payload, CacheTTL).Err()
		}
		if err != nil {
			err = fmt.Errorf("failed inserting products to cache with error=%w", err)
			otel.RecordError(err, span)
			logger.Warn().Err(err).Msg(err.Error())
		} else {
			logger.Trace().Msg("inserted products to cache")
		}
	}

	return active, nil
}

// FindProductByID returns active products only.
func (svc *ProductService) FindProductByID(c context.Context, id int64) (response.Product, error) {
	c, span := otel.Tracer.Start(
		c,
		"ProductService FindProductByID",
		trace.WithAttributes(attribute.Int64(log.KeyProductID, id)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProductByID").
		Int64(log.KeyProductID, id).
		Str(log.KeyProcess, "finding product").
		Logger()

	logger.Trace().Msg("finding product")
	product, err := svc.backend.FindProductByID(c, id)
	if err != nil {
		if backend.IsNotFound(err) {
			err = fmt.Errorf("%w: %w", inErrors.ErrProductNotFound, err)
		}
		err = fmt.Errorf("failed finding productId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	if !product.Active {
		err = fmt.Errorf("productId=%d with error=%w", id, inErrors.ErrProductInactive)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Trace().Msg("found product")

	return product, nil
}

func (svc *ProductService) invalidate(c context.Context) {
	if svc.cache == nil {
		return
	}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyProcess, "removing products in cache").
		Str(log.KeyCacheKey, KeyActiveProducts).
		Logger()
	if err := svc.cache.Del(c, KeyActiveProducts).Err(); err != nil {
		err = fmt.Errorf("failed removing products in cache with error=%w", err)
		otel.RecordError(err, trace.SpanFromContext(c))
		logger.Warn().Err(err).Msg(err.Error())
		return
	}
	logger.Trace().Msg("removed products in cache")
}

func (svc *ProductService) InsertProduct(
	c context.Context,
	param request.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService InsertProduct").
		Str(log.KeyProcess, "inserting product").
		Logger()
	c = logger.WithContext(c)

	logger.Info().Msg("inserting product")
	product, err := svc.backend.CreateProduct(c, param)
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Int64(log.KeyProductID, product.ID).Msg("inserted product")

	svc.invalidate(c)
	return product, nil
}

func (svc *ProductService) UpdateProduct(
	c context.Context,
	id int64,
	param request.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(
		c,
		"ProductService UpdateProduct",
		trace.WithAttributes(attribute.Int64(log.KeyProductID, id)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService UpdateProduct").
		Int64(log.KeyProductID, id).
		Str(log.KeyProcess, "updating product").
		Logger()
	c = logger.WithContext(c)

	logger.Info().Msg("updating product")
	product, err := svc.backend.UpdateProduct(c, id, param)
	if err != nil {
		err = fmt.Errorf("failed updating productId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("updated product")

	svc.invalidate(c)
	return product, nil
}

func (svc *ProductService) RemoveProduct(c context.Context, id int64) error {
	c, span := otel.Tracer.Start(
		c,
		"ProductService RemoveProduct",
		trace.WithAttributes(attribute.Int64(log.KeyProductID, id)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService RemoveProduct").
		Int64(log.KeyProductID, id).
		Str(log.KeyProcess, "removing product").
		Logger()
	c = logger.WithContext(c)

	logger.Info().Msg("removing product")
	if err := svc.backend.DeleteProduct(c, id); err != nil {
		err = fmt.Errorf("failed removing productId=%d with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("removed product")

	svc.invalidate(c)
	return nil
}
