package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/multifolks/multifolks-backend/pkg/types"
)

// CartLine is one configured product in a cart. LineID addresses the line
// within its owner's cart (the same product with a different lens is a
// distinct line). When PriceIsFallback is set the catalog lookup missed and
// FramePrice is a client-cached total already inclusive of lens and addon
// costs; it must not be added to again.
type CartLine struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID          uuid.UUID           `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_line"`
	LineID          int64               `gorm:"column:line_id;not null;uniqueIndex:idx_cart_line"`
	ProductID       string              `gorm:"column:product_id;not null"`
	Name            string              `gorm:"column:name"`
	Image           string              `gorm:"column:image"`
	FramePrice      decimal.Decimal     `gorm:"column:frame_price;type:numeric(12,2);not null"`
	PriceIsFallback bool                `gorm:"column:price_is_fallback;not null;default:false"`
	CachedPrice     decimal.Decimal     `gorm:"column:cached_price;type:numeric(12,2);not null"`
	Lens            *types.Lens         `gorm:"column:lens;type:jsonb;serializer:json"`
	Prescription    *types.Prescription `gorm:"column:prescription;type:jsonb;serializer:json"`
	Quantity        int                 `gorm:"column:quantity;not null;default:1"`
	AddedAt         time.Time           `gorm:"column:added_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
