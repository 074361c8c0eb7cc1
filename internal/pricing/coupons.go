package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/multifolks/multifolks-backend/pkg/enums"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

// The coupon allow-list is the one static business rule in this core, not
// user data. Codes match case-insensitively.
var validCoupons = map[string]types.Coupon{
	"LAUNCH50":  {Code: "LAUNCH50", Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(50)},
	"ANU50":     {Code: "ANU50", Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(50)},
	"SNEH50":    {Code: "SNEH50", Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(50)},
	"WELCOME10": {Code: "WELCOME10", Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(10)},
	"FLAT5":     {Code: "FLAT5", Type: enums.DiscountTypeFixed, Value: decimal.NewFromInt(5)},
}

// LookupCoupon resolves a coupon code against the allow-list.
func LookupCoupon(code string) (types.Coupon, bool) {
	coupon, ok := validCoupons[strings.ToUpper(strings.TrimSpace(code))]
	return coupon, ok
}

// Discount evaluates a coupon against a subtotal. Percentage coupons take
// value% of the subtotal; fixed coupons take the flat value. A nil or
// unknown-typed coupon discounts nothing.
func Discount(coupon *types.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}
	switch coupon.Type {
	case enums.DiscountTypePercentage:
		return subtotal.Mul(coupon.Value).Div(decimal.NewFromInt(100))
	case enums.DiscountTypeFixed:
		return coupon.Value
	}
	return decimal.Zero
}
