package request

type AddProduct struct {
	ProductID int64 `validate:"required,gt=0"      json:"productId"`
	Quantity  int   `validate:"omitempty,gte=1"    json:"quantity"`
}

type UpdateQuantity struct {
	Quantity int `json:"quantity"`
}

// Checkout ids are checked by the checkout service so that a missing selection is reported with
// its own reason.
type Checkout struct {
	UserID            int64 `json:"-"`
	ShippingAddressID int64 `json:"shippingAddressId"`
	PaymentMethodID   int64 `json:"paymentMethodId"`
}
