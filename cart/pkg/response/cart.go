package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/sneakerzone/product/pkg/response"
)

type CartLine struct {
	Product   response.Product `json:"product"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unitPrice"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
}

func (l CartLine) Recompute() CartLine {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return l
}

// Cart is a point-in-time view of a cart store.
type Cart struct {
	Lines     []CartLine      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

func NewCart(lines []CartLine) Cart {
	total := decimal.Zero
	count := 0
	for _, line := range lines {
		total = total.Add(line.Subtotal)
		count += line.Quantity
	}
	if lines == nil {
		lines = []CartLine{}
	}
	return Cart{Lines: lines, Total: total, ItemCount: count}
}
