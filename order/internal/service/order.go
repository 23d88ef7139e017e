package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/otel"
	"github.com/Alturino/sneakerzone/order/pkg/request"
	"github.com/Alturino/sneakerzone/order/pkg/response"
)

type OrderBackend interface {
	FindOrders(c context.Context) ([]response.Order, error)
	FindOrdersByUserID(c context.Context, userID int64) ([]response.Order, error)
	FindPurchases(c context.Context) ([]response.Purchase, error)
	CreatePurchase(c context.Context, param request.CreatePurchase) (response.Purchase, error)
}

type OrderService struct {
	backend OrderBackend
}

func NewOrderService(backend OrderBackend) *OrderService {
	return &OrderService{backend: backend}
}

// FindOrders lists the orders placed by userID.
func (s *OrderService) FindOrders(c context.Context, userID int64) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrders").
		Int64(log.KeyUserID, userID).
		Str(log.KeyProcess, "finding orders by userId").
		Logger()

	logger.Trace().Msg("finding orders by userId")
	orders, err := s.backend.FindOrdersByUserID(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding orders by userId=%d with error=%w", userID, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Debug().Int(log.KeyOrders, len(orders)).Msg("found orders by userId")

	return orders, nil
}

// FindOrderByID only finds orders placed by userID.
func (s *OrderService) FindOrderByID(
	c context.Context,
	userID int64,
	orderID int64,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrderByID")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderByID").
		Int64(log.KeyUserID, userID).
		Int64(log.KeyOrderID, orderID).
		Logger()

	orders, err := s.FindOrders(logger.WithContext(c), userID)
	if err != nil {
		otel.RecordError(err, span)
		return response.Order{}, err
	}
	for _, order := range orders {
		if order.ID == orderID {
			return order, nil
		}
	}

	err = fmt.Errorf("orderId=%d with error=%w", orderID, inErrors.ErrOrderNotFound)
	otel.RecordError(err, span)
	logger.Error().Err(err).Msg(err.Error())
	return response.Order{}, err
}

// Sales lists every customer order.
func (s *OrderService) Sales(c context.Context) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService Sales")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Sales").
		Str(log.KeyProcess, "finding sales").
		Logger()

	orders, err := s.backend.FindOrders(c)
	if err != nil {
		err = fmt.Errorf("failed finding sales with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Debug().Int(log.KeyOrders, len(orders)).Msg("found sales")

	return orders, nil
}

func (s *OrderService) Purchases(c context.Context) ([]response.Purchase, error) {
	c, span := otel.Tracer.Start(c, "OrderService Purchases")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService Purchases").
		Str(log.KeyProcess, "finding purchases").
		Logger()

	purchases, err := s.backend.FindPurchases(c)
	if err != nil {
		err = fmt.Errorf("failed finding purchases with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	return purchases, nil
}

// CreatePurchase records a restock made by the employee userID. Totals are computed here and
// whatever the caller sent for them is ignored.
func (s *OrderService) CreatePurchase(
	c context.Context,
	userID int64,
	param request.CreatePurchase,
) (response.Purchase, error) {
	c, span := otel.Tracer.Start(c, "OrderService CreatePurchase")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CreatePurchase").
		Int64(log.KeyUserID, userID).
		Int64(log.KeySupplierID, param.SupplierID).
		Logger()

	param.UserID = userID
	param.Totalize()

	logger = logger.With().Str(log.KeyProcess, "creating purchase").Logger()
	logger.Info().Str("total", param.Total.String()).Msg("creating purchase")
	purchase, err := s.backend.CreatePurchase(c, param)
	if err != nil {
		err = fmt.Errorf("failed creating purchase with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Purchase{}, err
	}
	logger.Info().Int64(log.KeyPurchaseID, purchase.ID).Msg("created purchase")

	return purchase, nil
}
