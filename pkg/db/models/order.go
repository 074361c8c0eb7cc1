package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/multifolks/multifolks-backend/pkg/enums"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

// OrderLine is a cart line normalized into its persisted order shape. The
// product id has its uniqueness suffix stripped; CartLineID is kept for
// traceability back to the cart the order was built from.
type OrderLine struct {
	ProductID    string              `json:"product_id"`
	Name         string              `json:"name"`
	Image        string              `json:"image"`
	Price        decimal.Decimal     `json:"price"`
	Quantity     int                 `json:"quantity"`
	Lens         *types.Lens         `json:"lens,omitempty"`
	Prescription *types.Prescription `json:"prescription,omitempty"`
	CartLineID   int64               `json:"cart_line_id,omitempty"`
	AddedAt      *time.Time          `json:"added_at,omitempty"`
}

// Order is an immutable checkout snapshot. Totals are frozen at creation
// time and never recomputed from live catalog prices.
type Order struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       string    `gorm:"column:order_id;uniqueIndex:orders_order_id_key;not null"`
	OwnerID       string    `gorm:"column:owner_id;index;not null"`
	CustomerEmail string    `gorm:"column:customer_email"`

	Lines []OrderLine `gorm:"column:lines;type:jsonb;serializer:json"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	ShippingCost   decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	PaymentMethod   string              `gorm:"column:payment_method"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null"`
	TransactionID   *string             `gorm:"column:transaction_id"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id"`

	OrderStatus enums.OrderStatus `gorm:"column:order_status;not null"`

	ShippingAddress string `gorm:"column:shipping_address"`
	BillingAddress  string `gorm:"column:billing_address"`

	Metadata map[string]any `gorm:"column:metadata;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
