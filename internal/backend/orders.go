package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Alturino/sneakerzone/order/pkg/request"
	"github.com/Alturino/sneakerzone/order/pkg/response"
)

// CreateOrder returns the backend's echo of the order; the echo may be empty when the backend
// answers without data.
func (cl *Client) CreateOrder(c context.Context, param request.CreateOrder) (response.Order, error) {
	order := response.Order{}
	if err := cl.do(c, http.MethodPost, "/orders", param, &order); err != nil {
		return response.Order{}, fmt.Errorf("failed creating order with error=%w", err)
	}
	return order, nil
}

func (cl *Client) FindOrders(c context.Context) ([]response.Order, error) {
	orders := []response.Order{}
	if err := cl.do(c, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, fmt.Errorf("failed finding orders with error=%w", err)
	}
	return orders, nil
}

func (cl *Client) FindOrdersByUserID(c context.Context, userID int64) ([]response.Order, error) {
	orders := []response.Order{}
	if err := cl.do(c, http.MethodGet, fmt.Sprintf("/orders/user/%d", userID), nil, &orders); err != nil {
		return nil, fmt.Errorf("failed finding orders of userId=%d with error=%w", userID, err)
	}
	return orders, nil
}

func (cl *Client) FindPurchases(c context.Context) ([]response.Purchase, error) {
	purchases := []response.Purchase{}
	if err := cl.do(c, http.MethodGet, "/purchases", nil, &purchases); err != nil {
		return nil, fmt.Errorf("failed finding purchases with error=%w", err)
	}
	return purchases, nil
}

func (cl *Client) CreatePurchase(
	c context.Context,
	param request.CreatePurchase,
) (response.Purchase, error) {
	purchase := response.Purchase{}
	if err := cl.do(c, http.MethodPost, "/purchases", param, &purchase); err != nil {
		return response.Purchase{}, fmt.Errorf("failed creating purchase with error=%w", err)
	}
	return purchase, nil
}
