package request

import (
	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ProductID int64           `validate:"required,gt=0" json:"productId"`
	Quantity  int             `validate:"required,gte=1" json:"quantity"`
	UnitPrice decimal.Decimal `validate:"price"          json:"unitPrice"`
	Subtotal  decimal.Decimal `validate:"price"          json:"subtotal"`
}

// CreateOrder is a sale to a customer, submitted once at checkout.
type CreateOrder struct {
	UserID            int64           `validate:"required,gt=0"  json:"userId"`
	ShippingAddressID int64           `validate:"required,gt=0"  json:"shippingAddressId"`
	Subtotal          decimal.Decimal `validate:"price"          json:"subtotal"`
	Discount          decimal.Decimal `                          json:"discount"`
	Tax               decimal.Decimal `                          json:"tax"`
	Total             decimal.Decimal `validate:"price"          json:"total"`
	PaymentMethod     string          `validate:"required"       json:"paymentMethod"`
	Lines             []OrderLine     `validate:"required,gt=0,dive" json:"lines"`
}

type PurchaseLine struct {
	ProductID int64           `validate:"required,gt=0"  json:"productId"`
	Quantity  int             `validate:"required,gte=1" json:"quantity"`
	UnitPrice decimal.Decimal `validate:"price"          json:"unitPrice"`
	Subtotal  decimal.Decimal `                          json:"subtotal"`
}

// CreatePurchase restocks products from a supplier.
type CreatePurchase struct {
	SupplierID    int64           `validate:"required,gt=0"      json:"supplierId"`
	UserID        int64           `                              json:"userId"`
	InvoiceNumber string          `validate:"omitempty,max=50"   json:"invoiceNumber,omitempty"`
	PaymentMethod string          `validate:"omitempty,max=50"   json:"paymentMethod,omitempty"`
	Subtotal      decimal.Decimal `                              json:"subtotal"`
	Discount      decimal.Decimal `                              json:"discount"`
	Tax           decimal.Decimal `                              json:"tax"`
	Total         decimal.Decimal `                              json:"total"`
	Notes         string          `validate:"max=500"            json:"notes,omitempty"`
	Lines         []PurchaseLine  `validate:"required,gt=0,dive" json:"lines"`
}

// Totalize fills line subtotals and the purchase totals from the lines. Discount and tax are
// taken as given.
func (p *CreatePurchase) Totalize() {
	subtotal := decimal.Zero
	for i, line := range p.Lines {
		p.Lines[i].Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(p.Lines[i].Subtotal)
	}
	p.Subtotal = subtotal
	p.Total = subtotal.Sub(p.Discount).Add(p.Tax)
}
