package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/multifolks/multifolks-backend/pkg/types"
)

const DefaultShippingMethodID = "standard"

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

var shippingMethods = map[string]types.ShippingMethod{
	"standard": {
		ID:            "standard",
		Name:          "Standard Shipping",
		Cost:          decimal.NewFromInt(6),
		FreeThreshold: decimalPtr(decimal.NewFromInt(75)),
	},
	"express": {
		ID:   "express",
		Name: "Express Shipping",
		Cost: decimal.NewFromInt(29),
	},
}

// LookupShippingMethod resolves a shipping method id against the known
// method table.
func LookupShippingMethod(id string) (types.ShippingMethod, bool) {
	method, ok := shippingMethods[id]
	return method, ok
}

// DefaultShippingMethod returns the method used when a cart has no
// explicit selection.
func DefaultShippingMethod() types.ShippingMethod {
	return shippingMethods[DefaultShippingMethodID]
}

// ShippingCost evaluates a method against a subtotal. Shipping is free when
// the method has a threshold and the subtotal strictly exceeds it. A nil
// method is priced as the default.
func ShippingCost(method *types.ShippingMethod, subtotal decimal.Decimal) decimal.Decimal {
	if method == nil {
		def := DefaultShippingMethod()
		method = &def
	}
	if method.FreeThreshold != nil && subtotal.GreaterThan(*method.FreeThreshold) {
		return decimal.Zero
	}
	return method.Cost
}
