package response

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Product struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Code               string          `json:"code,omitempty"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Stock              int             `json:"stock"`
	Active             bool            `json:"active"`
	Featured           bool            `json:"featured,omitempty"`
	New                bool            `json:"new,omitempty"`
	Gender             string          `json:"gender,omitempty"`
	Brand              string          `json:"brand,omitempty"`
	Category           string          `json:"category,omitempty"`
	Image              string          `json:"image,omitempty"`
}

func (p Product) OnOffer() bool {
	return p.DiscountPercentage.IsPositive()
}

// FinalPrice is the list price reduced by the discount percentage when one is set.
func (p Product) FinalPrice() decimal.Decimal {
	if !p.OnOffer() {
		return p.Price
	}
	return p.Price.Mul(hundred.Sub(p.DiscountPercentage)).Div(hundred)
}

func (p Product) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("id", p.ID).
		Str("name", p.Name).
		Str("price", p.Price.String()).
		Str("discountPercentage", p.DiscountPercentage.String()).
		Int("stock", p.Stock).
		Bool("active", p.Active)
}
