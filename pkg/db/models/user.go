package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User holds the slice of the profile this core touches: identity plus the
// last-order summary written best-effort after checkout.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;uniqueIndex;not null"`
	FirstName string    `gorm:"column:first_name"`
	LastName  string    `gorm:"column:last_name"`

	LastOrderID           *string          `gorm:"column:last_order_id"`
	LastOrderTotalPayable *decimal.Decimal `gorm:"column:last_order_total_payable;type:numeric(12,2)"`
	LastOrderDate         *time.Time       `gorm:"column:last_order_date"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
