package request

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	Name               string          `validate:"required,max=150"                       json:"name"`
	Description        string          `validate:"max=2000"                               json:"description,omitempty"`
	Code               string          `validate:"max=50"                                 json:"code,omitempty"`
	Price              decimal.Decimal `validate:"price"                                  json:"price"`
	DiscountPercentage decimal.Decimal `validate:"percentage"                             json:"discountPercentage"`
	Stock              int             `validate:"gte=0"                                  json:"stock"`
	Active             bool            `                                                  json:"active"`
	Featured           bool            `                                                  json:"featured,omitempty"`
	New                bool            `                                                  json:"new,omitempty"`
	Gender             string          `validate:"omitempty,oneof=men women kids unisex" json:"gender,omitempty"`
	Brand              string          `                                                  json:"brand,omitempty"`
	Category           string          `                                                  json:"category,omitempty"`
	Image              string          `validate:"omitempty,url"                          json:"image,omitempty"`
}

type FindProducts struct {
	Gender string `validate:"omitempty,oneof=men women kids"`
	Query  string `validate:"max=100"`
	Offers bool
}
