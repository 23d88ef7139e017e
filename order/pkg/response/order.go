package response

import (
	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ID        int64           `json:"id,omitempty"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID                int64           `json:"id"`
	Number            string          `json:"number,omitempty"`
	UserID            int64           `json:"userId"`
	ShippingAddressID int64           `json:"shippingAddressId,omitempty"`
	Date              string          `json:"date,omitempty"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Discount          decimal.Decimal `json:"discount"`
	Tax               decimal.Decimal `json:"tax"`
	Total             decimal.Decimal `json:"total"`
	Status            string          `json:"status,omitempty"`
	PaymentMethod     string          `json:"paymentMethod,omitempty"`
	Lines             []OrderLine     `json:"lines"`
}

type Purchase struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	SupplierID    int64           `json:"supplierId"`
	UserID        int64           `json:"userId"`
	Date          string          `json:"date,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Lines         []OrderLine     `json:"lines"`
}
