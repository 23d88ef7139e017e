package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/sneakerzone/order/pkg/request"
)

// Order builds the sale for this cart. Discounts were already applied per line, so the order
// carries no order-level discount or tax.
func (c Cart) Order(userID, shippingAddressID int64, paymentMethod string) request.CreateOrder {
	lines := make([]request.OrderLine, len(c.Lines))
	for i, line := range c.Lines {
		lines[i] = request.OrderLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		}
	}
	return request.CreateOrder{
		UserID:            userID,
		ShippingAddressID: shippingAddressID,
		Subtotal:          c.Total,
		Discount:          decimal.Zero,
		Tax:               decimal.Zero,
		Total:             c.Total,
		PaymentMethod:     paymentMethod,
		Lines:             lines,
	}
}
