package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/multifolks/multifolks-backend/pkg/types"
)

// CartRecord is the one mutable cart document per owner. OwnerID is the
// authenticated user id or the guest id; the two kinds share a keyspace and
// never collide. Clearing a cart empties its lines but leaves the coupon and
// shipping selection in place.
type CartRecord struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        string                `gorm:"column:owner_id;uniqueIndex;not null"`
	Coupon         *types.Coupon         `gorm:"column:coupon;type:jsonb;serializer:json"`
	ShippingMethod *types.ShippingMethod `gorm:"column:shipping_method;type:jsonb;serializer:json"`
	Lines          []CartLine            `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
