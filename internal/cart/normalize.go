package cart

import (
	"strings"

	"github.com/multifolks/multifolks-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// LensPayload is the boundary shape for lens data. Upstream callers have
// shipped several generations of field names for the same three prices;
// every alias is folded into the canonical types.Lens here, once, so
// nothing past this point ever branches on an alias.
type LensPayload struct {
	SellingPrice     *types.FlexAmount `json:"selling_price,omitempty"`
	LensPackagePrice *types.FlexAmount `json:"lensPackagePrice,omitempty"`
	CoatingPrice     *types.FlexAmount `json:"coating_price,omitempty"`
	PriceValue       *types.FlexAmount `json:"priceValue,omitempty"`
	TintPrice        *types.FlexAmount `json:"tint_price,omitempty"`
	TintPriceAlias   *types.FlexAmount `json:"tintPrice,omitempty"`
	TintType         string            `json:"tint_type,omitempty"`
	Category         string            `json:"lens_category,omitempty"`
	Coating          string            `json:"coating,omitempty"`
	SubCategory      string            `json:"sub_category,omitempty"`
}

// Coating prices recoverable from the display text older clients send
// instead of a numeric coating price.
var coatingTextPrices = map[string]decimal.Decimal{
	"Water Resistant": decimal.NewFromInt(10),
	"Oil Resistant":   decimal.NewFromInt(15),
	"Anti Reflective": decimal.Zero,
}

// NormalizeLens folds a boundary lens payload into the canonical lens
// shape. Alias precedence follows the original client contract: the
// canonical field wins when both are present; a missing coating price falls
// back to the price encoded in the coating display text. A nil or empty
// payload normalizes to nil (no lens configuration).
func NormalizeLens(payload *LensPayload) *types.Lens {
	if payload == nil {
		return nil
	}

	lens := &types.Lens{
		SellingPrice: firstAmount(payload.SellingPrice, payload.LensPackagePrice),
		TintPrice:    firstAmount(payload.TintPrice, payload.TintPriceAlias),
		TintType:     payload.TintType,
		Category:     payload.Category,
	}

	switch {
	case payload.CoatingPrice != nil:
		lens.CoatingPrice = payload.CoatingPrice.Decimal
	case payload.PriceValue != nil:
		lens.CoatingPrice = payload.PriceValue.Decimal
	default:
		text := payload.Coating
		if text == "" {
			text = payload.SubCategory
		}
		lens.CoatingText = text
		lens.CoatingPrice = coatingPriceFromText(text)
	}

	if lens.IsZero() {
		return nil
	}
	return lens
}

// MergeLens applies a normalized update on top of an existing lens. Prices
// and labels present in the update win; fields the update leaves at zero
// keep their current value. Used by lens mutation, where partial payloads
// are the norm.
func MergeLens(current, update *types.Lens) *types.Lens {
	if update == nil {
		return current
	}
	if current == nil {
		return update
	}
	merged := *current
	if !update.SellingPrice.IsZero() {
		merged.SellingPrice = update.SellingPrice
	}
	if !update.CoatingPrice.IsZero() || update.CoatingText != "" {
		merged.CoatingPrice = update.CoatingPrice
		merged.CoatingText = update.CoatingText
	}
	if !update.TintPrice.IsZero() {
		merged.TintPrice = update.TintPrice
	}
	if update.TintType != "" {
		merged.TintType = update.TintType
	}
	if update.Category != "" {
		merged.Category = update.Category
	}
	return &merged
}

func firstAmount(values ...*types.FlexAmount) decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return v.Decimal
		}
	}
	return decimal.Zero
}

func coatingPriceFromText(text string) decimal.Decimal {
	for label, price := range coatingTextPrices {
		if strings.Contains(text, label) {
			return price
		}
	}
	return decimal.Zero
}
