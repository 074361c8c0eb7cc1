package types

import (
	"github.com/shopspring/decimal"

	"github.com/multifolks/multifolks-backend/pkg/enums"
)

// Coupon is the discount applied to a cart: either a percentage of the
// subtotal or a flat amount.
type Coupon struct {
	Code  string             `json:"code"`
	Type  enums.DiscountType `json:"type"`
	Value decimal.Decimal    `json:"value"`
}

// ShippingMethod carries a flat cost and an optional free-shipping
// threshold; shipping is free when the subtotal strictly exceeds it.
type ShippingMethod struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Cost          decimal.Decimal  `json:"cost"`
	FreeThreshold *decimal.Decimal `json:"free_threshold,omitempty"`
}
