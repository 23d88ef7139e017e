package validate

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a validator that understands decimal.Decimal fields. Use the "price" tag for
// strictly positive amounts and "percentage" for values in [0, 100].
func New() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = validate.RegisterValidation("price", ValidatePrice)
	_ = validate.RegisterValidation("percentage", ValidatePercentage)
	return validate
}

func decimalValue(v reflect.Value) interface{} {
	d, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	return d.String()
}

func parse(fl validator.FieldLevel) (decimal.Decimal, bool) {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func ValidatePrice(fl validator.FieldLevel) bool {
	d, ok := parse(fl)
	return ok && d.IsPositive()
}

func ValidatePercentage(fl validator.FieldLevel) bool {
	d, ok := parse(fl)
	return ok && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
}
