package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/multifolks/multifolks-backend/pkg/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddonPriceTintWins(t *testing.T) {
	lens := &types.Lens{
		TintPrice:    dec("15"),
		CoatingPrice: dec("30"),
	}
	assert.True(t, AddonPrice(lens).Equal(dec("15")), "tint must win over coating")
}

func TestAddonPriceFallsBackToCoating(t *testing.T) {
	lens := &types.Lens{CoatingPrice: dec("10")}
	assert.True(t, AddonPrice(lens).Equal(dec("10")))
	assert.True(t, AddonPrice(nil).IsZero())
}

func TestAddonPriceNeverSums(t *testing.T) {
	lens := &types.Lens{TintPrice: dec("5"), CoatingPrice: dec("7")}
	got := AddonPrice(lens)
	assert.False(t, got.Equal(dec("12")))
	assert.True(t, got.Equal(dec("5")))
}

func TestLineTotalWithLensAndAddon(t *testing.T) {
	// frame 100 + lens 20 + tint 15, qty 2 => 270
	line := LineInput{
		FramePrice: dec("100"),
		Lens: &types.Lens{
			SellingPrice: dec("20"),
			TintPrice:    dec("15"),
			CoatingPrice: dec("30"),
		},
		Quantity: 2,
	}
	assert.True(t, LineTotal(line).Equal(dec("270")))
}

func TestLineTotalFallbackIsInclusive(t *testing.T) {
	line := LineInput{
		FramePrice:      dec("145"),
		PriceIsFallback: true,
		Lens: &types.Lens{
			SellingPrice: dec("20"),
			CoatingPrice: dec("10"),
		},
		Quantity: 1,
	}
	assert.True(t, LineTotal(line).Equal(dec("145")), "fallback price already includes lens and addon")
}

func TestUnitTotalPrefersCachedUnit(t *testing.T) {
	line := LineInput{
		FramePrice: dec("100"),
		Lens:       &types.Lens{SellingPrice: dec("20")},
		CachedUnit: dec("135"),
	}
	assert.True(t, UnitTotal(line).Equal(dec("135")), "persisted unit price wins over recomputation")

	line.CachedUnit = decimal.Zero
	assert.True(t, UnitTotal(line).Equal(dec("120")), "zero cached unit falls back to recomputation")
}

func TestLineTotalClampsQuantity(t *testing.T) {
	line := LineInput{FramePrice: dec("50"), Quantity: 0}
	assert.True(t, LineTotal(line).Equal(dec("50")))
}

func TestLookupCouponCaseInsensitive(t *testing.T) {
	coupon, ok := LookupCoupon("welcome10")
	assert.True(t, ok)
	assert.Equal(t, "WELCOME10", coupon.Code)

	_, ok = LookupCoupon("NOPE")
	assert.False(t, ok)
}

func TestDiscount(t *testing.T) {
	percentage, _ := LookupCoupon("WELCOME10")
	assert.True(t, Discount(&percentage, dec("80")).Equal(dec("8")))

	fixed, _ := LookupCoupon("FLAT5")
	assert.True(t, Discount(&fixed, dec("80")).Equal(dec("5")))

	assert.True(t, Discount(nil, dec("80")).IsZero())
}

func TestShippingCostFreeThreshold(t *testing.T) {
	standard, _ := LookupShippingMethod("standard")

	assert.True(t, ShippingCost(&standard, dec("80")).IsZero(), "80 > 75 threshold")
	assert.True(t, ShippingCost(&standard, dec("75")).Equal(dec("6")), "threshold is strict")
	assert.True(t, ShippingCost(&standard, dec("20")).Equal(dec("6")))
}

func TestShippingCostExpressHasNoThreshold(t *testing.T) {
	express, _ := LookupShippingMethod("express")
	assert.True(t, ShippingCost(&express, dec("1000")).Equal(dec("29")))
}

func TestShippingCostNilMethodUsesDefault(t *testing.T) {
	assert.True(t, ShippingCost(nil, dec("10")).Equal(dec("6")))
	assert.True(t, ShippingCost(nil, dec("100")).IsZero())
}

func TestSummarizeSpecExample(t *testing.T) {
	// subtotal 80, 10% coupon, standard shipping => discount 8, shipping 0, total 72
	lines := []LineInput{{FramePrice: dec("80"), Quantity: 1}}
	coupon, _ := LookupCoupon("WELCOME10")
	standard, _ := LookupShippingMethod("standard")

	summary := Summarize(lines, &coupon, &standard)
	assert.True(t, summary.Subtotal.Equal(dec("80")))
	assert.True(t, summary.DiscountAmount.Equal(dec("8")))
	assert.True(t, summary.ShippingCost.IsZero())
	assert.True(t, summary.TotalPayable.Equal(dec("72")))
}

func TestSummarizeRoundsOnceAtBoundary(t *testing.T) {
	// three lines of 0.333 each accumulate exactly before rounding
	lines := []LineInput{
		{FramePrice: dec("0.333"), Quantity: 1},
		{FramePrice: dec("0.333"), Quantity: 1},
		{FramePrice: dec("0.333"), Quantity: 1},
	}
	summary := Summarize(lines, nil, nil)
	assert.True(t, summary.Subtotal.Equal(dec("1.00")), "0.999 rounds to 1.00 once, not 0.33*3")
	assert.True(t, summary.TotalPayable.Equal(dec("7.00")), "subtotal 0.999 + shipping 6, rounded")
}

func TestSummaryIdentity(t *testing.T) {
	lines := []LineInput{
		{FramePrice: dec("100"), Lens: &types.Lens{SellingPrice: dec("20"), TintPrice: dec("15")}, Quantity: 2},
		{FramePrice: dec("49.99"), Quantity: 1},
	}
	coupon, _ := LookupCoupon("FLAT5")
	express, _ := LookupShippingMethod("express")

	summary := Summarize(lines, &coupon, &express)
	want := summary.Subtotal.Sub(summary.DiscountAmount).Add(summary.ShippingCost).Round(2)
	assert.True(t, summary.TotalPayable.Equal(want))
}
