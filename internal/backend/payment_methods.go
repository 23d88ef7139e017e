package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Alturino/sneakerzone/user/pkg/request"
	"github.com/Alturino/sneakerzone/user/pkg/response"
)

func (cl *Client) FindPaymentMethodsByUserID(
	c context.Context,
	userID int64,
) ([]response.PaymentMethod, error) {
	methods := []response.PaymentMethod{}
	err := cl.do(c, http.MethodGet, fmt.Sprintf("/payment-methods/user/%d", userID), nil, &methods)
	if err != nil {
		return nil, fmt.Errorf("failed finding payment methods of userId=%d with error=%w", userID, err)
	}
	return methods, nil
}

func (cl *Client) CreatePaymentMethod(
	c context.Context,
	param request.PaymentMethod,
) (response.PaymentMethod, error) {
	method := response.PaymentMethod{}
	if err := cl.do(c, http.MethodPost, "/payment-methods", param, &method); err != nil {
		return response.PaymentMethod{}, fmt.Errorf("failed creating payment method with error=%w", err)
	}
	return method, nil
}

func (cl *Client) DeletePaymentMethod(c context.Context, id int64) error {
	if err := cl.do(c, http.MethodDelete, fmt.Sprintf("/payment-methods/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed deleting paymentMethodId=%d with error=%w", id, err)
	}
	return nil
}
