package service

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/sneakerzone/internal/errors"
	"github.com/Alturino/sneakerzone/product/pkg/request"
	"github.com/Alturino/sneakerzone/product/pkg/response"
)

type fakeBackend struct {
	products []response.Product
	finds    int
	deleted  []int64
}

func (f *fakeBackend) FindProducts(c context.Context) ([]response.Product, error) {
	f.finds++
	return f.products, nil
}

func (f *fakeBackend) FindProductByID(c context.Context, id int64) (response.Product, error) {
	for _, product := range f.products {
		if product.ID == id {
			return product, nil
		}
	}
	return response.Product{}, inErrors.ErrProductNotFound
}

func (f *fakeBackend) CreateProduct(c context.Context, param request.Product) (response.Product, error) {
	product := response.Product{ID: int64(len(f.products) + 1), Name: param.Name, Price: param.Price, Active: param.Active}
	f.products = append(f.products, product)
	return product, nil
}

func (f *fakeBackend) UpdateProduct(
	c context.Context,
	id int64,
	param request.Product,
) (response.Product, error) {
	return response.Product{ID: id, Name: param.Name, Price: param.Price, Active: param.Active}, nil
}

func (f *fakeBackend) DeleteProduct(c context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func testContext() context.Context {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(zerolog.InfoLevel)
	return logger.WithContext(context.Background())
}

func catalog() []response.Product {
	return []response.Product{
		{ID: 1, Name: "Air Max 90", Brand: "Nike", Gender: "Men", Price: decimal.NewFromInt(100000), Active: true, Stock: 3},
		{
			ID: 2, Name: "Ultraboost 22", Brand: "Adidas", Gender: "women", Price: decimal.NewFromInt(50000),
			DiscountPercentage: decimal.NewFromInt(20), Active: true, Stock: 5,
		},
		{ID: 3, Name: "Suede Classic", Brand: "Puma", Gender: "unisex", Price: decimal.NewFromInt(60000), Active: true},
		{ID: 4, Name: "Court Kids", Brand: "Nike", Gender: "kids", Price: decimal.NewFromInt(30000), Active: true},
		{ID: 5, Name: "Retired Runner", Brand: "Nike", Gender: "men", Price: decimal.NewFromInt(10000), Active: false},
	}
}

func ids(products []response.Product) []int64 {
	result := make([]int64, len(products))
	for i, product := range products {
		result[i] = product.ID
	}
	return result
}

func newService(t *testing.T) (*ProductService, *fakeBackend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	fake := &fakeBackend{products: catalog()}
	return NewProductService(fake, client), fake, mr
}

func TestFindProductsFilters(t *testing.T) {
	tests := []struct {
		name     string
		param    request.FindProducts
		expected []int64
	}{
		{name: "given no filter should list active products", param: request.FindProducts{}, expected: []int64{1, 2, 3, 4}},
		{name: "given men should include unisex", param: request.FindProducts{Gender: "men"}, expected: []int64{1, 3}},
		{name: "given women should include unisex", param: request.FindProducts{Gender: "women"}, expected: []int64{2, 3}},
		{name: "given kids should list kids only", param: request.FindProducts{Gender: "kids"}, expected: []int64{4}},
		{name: "given offers should list discounted", param: request.FindProducts{Offers: true}, expected: []int64{2}},
		{name: "given query should match name or brand", param: request.FindProducts{Query: " nike "}, expected: []int64{1, 4}},
		{name: "given query without match should be empty", param: request.FindProducts{Query: "vans"}, expected: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService(t)

			products, err := svc.FindProducts(testContext(), tt.param)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(products))
		})
	}
}

func TestFindProductsUsesCache(t *testing.T) {
	c := testContext()
	svc, fake, mr := newService(t)

	_, err := svc.FindProducts(c, request.FindProducts{})
	require.NoError(t, err)
	_, err = svc.FindProducts(c, request.FindProducts{Gender: "men"})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.finds)
	assert.True(t, mr.Exists(KeyActiveProducts))
	assert.Equal(t, CacheTTL, mr.TTL(KeyActiveProducts))

	mr.FastForward(CacheTTL + 1)
	_, err = svc.FindProducts(c, request.FindProducts{})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.finds)
}

func TestFindProductsWithoutCache(t *testing.T) {
	fake := &fakeBackend{products: catalog()}
	svc := NewProductService(fake, nil)

	products, err := svc.FindProducts(testContext(), request.FindProducts{Offers: true})

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(products))
}

func TestFindProductsFallsBackWhenCacheDown(t *testing.T) {
	svc, fake, mr := newService(t)
	mr.Close()

	products, err := svc.FindProducts(testContext(), request.FindProducts{})

	require.NoError(t, err)
	assert.Len(t, products, 4)
	assert.Equal(t, 1, fake.finds)
}

func TestFindProductByID(t *testing.T) {
	svc, _, _ := newService(t)
	c := testContext()

	product, err := svc.FindProductByID(c, 2)
	require.NoError(t, err)
	assert.Equal(t, "Ultraboost 22", product.Name)

	_, err = svc.FindProductByID(c, 5)
	assert.ErrorIs(t, err, inErrors.ErrProductInactive)

	_, err = svc.FindProductByID(c, 99)
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
}

func TestAdminMutationsInvalidateCache(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c context.Context, svc *ProductService) error
	}{
		{
			name: "given insert should invalidate",
			mutate: func(c context.Context, svc *ProductService) error {
				_, err := svc.InsertProduct(c, request.Product{Name: "New", Price: decimal.NewFromInt(1), Active: true})
				return err
			},
		},
		{
			name: "given update should invalidate",
			mutate: func(c context.Context, svc *ProductService) error {
				_, err := svc.UpdateProduct(c, 1, request.Product{Name: "Renamed", Price: decimal.NewFromInt(1)})
				return err
			},
		},
		{
			name: "given remove should invalidate",
			mutate: func(c context.Context, svc *ProductService) error {
				return svc.RemoveProduct(c, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testContext()
			svc, _, mr := newService(t)
			_, err := svc.FindProducts(c, request.FindProducts{})
			require.NoError(t, err)
			require.True(t, mr.Exists(KeyActiveProducts))

			require.NoError(t, tt.mutate(c, svc))

			assert.False(t, mr.Exists(KeyActiveProducts))
		})
	}
}
