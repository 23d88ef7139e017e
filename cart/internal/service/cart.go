package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/sneakerzone/cart/pkg/request"
	"github.com/Alturino/sneakerzone/cart/pkg/response"
	"github.com/Alturino/sneakerzone/internal"
	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/otel"
	productRes "github.com/Alturino/sneakerzone/product/pkg/response"
)

// ProductFinder looks products up by id. Implementations may return inactive products; the
// storefront wires the backend client directly, which does.
type ProductFinder interface {
	FindProductByID(c context.Context, id int64) (productRes.Product, error)
}

// CartService resolves catalog products for the session's CartStore and runs checkout on it.
type CartService struct {
	registry *CartRegistry
	products ProductFinder
	checkout *CheckoutService
}

func NewCartService(
	registry *CartRegistry,
	products ProductFinder,
	checkout *CheckoutService,
) *CartService {
	return &CartService{registry: registry, products: products, checkout: checkout}
}

func (svc *CartService) Store(c context.Context, sessionID uuid.UUID) *CartStore {
	return svc.registry.Get(c, sessionID)
}

func (svc *CartService) FindCart(c context.Context, sessionID uuid.UUID) response.Cart {
	return svc.registry.Get(c, sessionID).Cart()
}

// AddProduct looks the product up before adding it, so the cart line carries the current catalog
// price. Inactive products and quantities beyond stock are refused.
func (svc *CartService) AddProduct(
	c context.Context,
	sessionID uuid.UUID,
	param request.AddProduct,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(
		c,
		"CartService AddProduct",
		trace.WithAttributes(
			attribute.String(log.KeySessionID, sessionID.String()),
			attribute.Int64(log.KeyProductID, param.ProductID),
		),
	)
	defer span.End()

	if param.Quantity == 0 {
		param.Quantity = 1
	}
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddProduct").
		Str(log.KeySessionID, sessionID.String()).
		Int64(log.KeyProductID, param.ProductID).
		Int(log.KeyQuantity, param.Quantity).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Trace().Msg("finding product")
	product, err := svc.products.FindProductByID(c, param.ProductID)
	if err != nil {
		err = fmt.Errorf("failed finding productId=%d with error=%w", param.ProductID, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	if !product.Active {
		err = fmt.Errorf("productId=%d with error=%w", product.ID, inErrors.ErrProductInactive)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Trace().Msg("found product")

	store := svc.registry.Get(c, sessionID)
	if err = store.AddProductWithinStock(c, product, param.Quantity); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	return store.Cart(), nil
}

func (svc *CartService) UpdateQuantity(
	c context.Context,
	sessionID uuid.UUID,
	productID int64,
	quantity int,
) response.Cart {
	store := svc.registry.Get(c, sessionID)
	store.UpdateQuantity(c, productID, quantity)
	return store.Cart()
}

func (svc *CartService) RemoveProduct(
	c context.Context,
	sessionID uuid.UUID,
	productID int64,
) response.Cart {
	store := svc.registry.Get(c, sessionID)
	store.RemoveProduct(c, productID)
	return store.Cart()
}

func (svc *CartService) Clear(c context.Context, sessionID uuid.UUID) response.Cart {
	store := svc.registry.Get(c, sessionID)
	store.Clear(c)
	return store.Cart()
}

// Checkout submits the session's cart as an order for the signed in user.
func (svc *CartService) Checkout(
	c context.Context,
	session internal.Session,
	param request.Checkout,
) (CheckoutResult, error) {
	param.UserID = session.UserID
	return svc.checkout.SubmitCheckout(c, svc.registry.Get(c, session.ID), param)
}
