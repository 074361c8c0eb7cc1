package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog row consulted when pricing a cart line. SKUID is
// the public catalog identifier used by clients; ListPrice wins over Price
// when both are set.
type Product struct {
	SKUID     string           `gorm:"column:skuid;primaryKey" json:"skuid"`
	Name      string           `gorm:"column:name;not null" json:"name"`
	Image     string           `gorm:"column:image" json:"image"`
	ListPrice *decimal.Decimal `gorm:"column:list_price;type:numeric(12,2)" json:"list_price,omitempty"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(12,2)" json:"price,omitempty"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
