package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Lens is the canonical lens configuration for a cart or order line. Legacy
// field aliases from upstream callers are folded into this shape once, at the
// system boundary; pricing logic only ever reads these fields.
type Lens struct {
	SellingPrice decimal.Decimal `json:"selling_price"`
	CoatingPrice decimal.Decimal `json:"coating_price"`
	TintPrice    decimal.Decimal `json:"tint_price"`
	TintType     string          `json:"tint_type,omitempty"`
	Category     string          `json:"category,omitempty"`
	CoatingText  string          `json:"coating_text,omitempty"`
}

// IsZero reports whether the lens carries no configuration at all.
func (l *Lens) IsZero() bool {
	if l == nil {
		return true
	}
	return l.SellingPrice.IsZero() &&
		l.CoatingPrice.IsZero() &&
		l.TintPrice.IsZero() &&
		l.TintType == "" &&
		l.Category == "" &&
		l.CoatingText == ""
}

// Tinted reports whether the configuration describes a tinted (sunglasses)
// lens.
func (l *Lens) Tinted() bool {
	if l == nil {
		return false
	}
	return l.TintType != "" || strings.EqualFold(l.Category, "sun") || l.TintPrice.IsPositive()
}

// LensEqual compares two lens configurations, treating nil and the zero
// lens as equal. Two cart lines with equal (product id, lens) pairs are the
// same line.
func LensEqual(a, b *Lens) bool {
	if a.IsZero() && b.IsZero() {
		return true
	}
	if a.IsZero() != b.IsZero() {
		return false
	}
	return a.SellingPrice.Equal(b.SellingPrice) &&
		a.CoatingPrice.Equal(b.CoatingPrice) &&
		a.TintPrice.Equal(b.TintPrice) &&
		a.TintType == b.TintType &&
		a.Category == b.Category &&
		a.CoatingText == b.CoatingText
}
