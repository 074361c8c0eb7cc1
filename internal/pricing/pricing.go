package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/multifolks/multifolks-backend/pkg/types"
)

// LineInput is the pricing view of one cart or order line. CachedUnit is the
// unit price persisted when the line was last written; when positive it wins
// over recomputation. Order creation must leave it zero so client-supplied
// figures never reach a persisted total.
type LineInput struct {
	FramePrice      decimal.Decimal
	PriceIsFallback bool
	Lens            *types.Lens
	Quantity        int
	CachedUnit      decimal.Decimal
}

// AddonPrice returns the addon contribution of a lens configuration: the
// tint price when positive, otherwise the coating price. Tint and coating
// are mutually exclusive catalog options; a line never pays both. This
// tie-break must reproduce the client's pricing bit-for-bit.
func AddonPrice(lens *types.Lens) decimal.Decimal {
	if lens == nil {
		return decimal.Zero
	}
	if lens.TintPrice.IsPositive() {
		return lens.TintPrice
	}
	return lens.CoatingPrice
}

// UnitTotal prices a single unit of a line. A positive cached unit is
// returned directly. A fallback frame price is a client-cached total already
// inclusive of lens and addon costs and is returned as-is; otherwise the
// unit total is frame + lens + addon.
func UnitTotal(line LineInput) decimal.Decimal {
	if line.CachedUnit.IsPositive() {
		return line.CachedUnit
	}
	if line.PriceIsFallback {
		return line.FramePrice
	}
	total := line.FramePrice
	if line.Lens != nil {
		total = total.Add(line.Lens.SellingPrice)
	}
	return total.Add(AddonPrice(line.Lens))
}

// LineTotal prices a full line: unit total times quantity. Quantities below
// one are priced as one.
func LineTotal(line LineInput) decimal.Decimal {
	qty := line.Quantity
	if qty < 1 {
		qty = 1
	}
	return UnitTotal(line).Mul(decimal.NewFromInt(int64(qty)))
}

// Subtotal sums line totals without intermediate rounding.
func Subtotal(lines []LineInput) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineTotal(line))
	}
	return total
}

// Summary is the priced view of a cart. All amounts are rounded to two
// decimal places exactly once, after every line has been accumulated.
type Summary struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	ShippingCost   decimal.Decimal
	TotalPayable   decimal.Decimal
}

// Summarize applies coupon and shipping evaluation on top of the line
// subtotal. Total = subtotal - discount + shipping, rounded at the boundary.
func Summarize(lines []LineInput, coupon *types.Coupon, method *types.ShippingMethod) Summary {
	subtotal := Subtotal(lines)
	discount := Discount(coupon, subtotal)
	shipping := ShippingCost(method, subtotal)

	return Summary{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discount.Round(2),
		ShippingCost:   shipping.Round(2),
		TotalPayable:   subtotal.Sub(discount).Add(shipping).Round(2),
	}
}
