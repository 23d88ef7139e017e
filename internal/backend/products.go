package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Alturino/sneakerzone/product/pkg/request"
	"github.com/Alturino/sneakerzone/product/pkg/response"
)

func (cl *Client) FindProducts(c context.Context) ([]response.Product, error) {
	products := []response.Product{}
	if err := cl.do(c, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, fmt.Errorf("failed finding products with error=%w", err)
	}
	return products, nil
}

func (cl *Client) FindProductByID(c context.Context, id int64) (response.Product, error) {
	product := response.Product{}
	if err := cl.do(c, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &product); err != nil {
		return response.Product{}, fmt.Errorf("failed finding productId=%d with error=%w", id, err)
	}
	if product.ID == 0 {
		return response.Product{}, fmt.Errorf("%w: productId=%d without data", ErrMalformedResponse, id)
	}
	return product, nil
}

func (cl *Client) CreateProduct(c context.Context, param request.Product) (response.Product, error) {
	product := response.Product{}
	if err := cl.do(c, http.MethodPost, "/products", param, &product); err != nil {
		return response.Product{}, fmt.Errorf("failed creating product with error=%w", err)
	}
	return product, nil
}

func (cl *Client) UpdateProduct(
	c context.Context,
	id int64,
	param request.Product,
) (response.Product, error) {
	product := response.Product{}
	if err := cl.do(c, http.MethodPut, fmt.Sprintf("/products/%d", id), param, &product); err != nil {
		return response.Product{}, fmt.Errorf("failed updating productId=%d with error=%w", id, err)
	}
	return product, nil
}

func (cl *Client) DeleteProduct(c context.Context, id int64) error {
	if err := cl.do(c, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed deleting productId=%d with error=%w", id, err)
	}
	return nil
}
