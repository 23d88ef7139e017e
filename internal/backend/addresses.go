package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Alturino/sneakerzone/user/pkg/request"
	"github.com/Alturino/sneakerzone/user/pkg/response"
)

func (cl *Client) FindAddressesByUserID(c context.Context, userID int64) ([]response.Address, error) {
	addresses := []response.Address{}
	err := cl.do(c, http.MethodGet, fmt.Sprintf("/addresses/user/%d", userID), nil, &addresses)
	if err != nil {
		return nil, fmt.Errorf("failed finding addresses of userId=%d with error=%w", userID, err)
	}
	return addresses, nil
}

func (cl *Client) CreateAddress(c context.Context, param request.Address) (response.Address, error) {
	address := response.Address{}
	if err := cl.do(c, http.MethodPost, "/addresses", param, &address); err != nil {
		return response.Address{}, fmt.Errorf("failed creating address with error=%w", err)
	}
	return address, nil
}

func (cl *Client) DeleteAddress(c context.Context, id int64) error {
	if err := cl.do(c, http.MethodDelete, fmt.Sprintf("/addresses/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed deleting addressId=%d with error=%w", id, err)
	}
	return nil
}
