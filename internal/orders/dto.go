package orders

import (
	"time"

	"github.com/multifolks/multifolks-backend/pkg/db/models"
	"github.com/multifolks/multifolks-backend/pkg/enums"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

// PaymentInput is the opaque payment metadata handed over by the checkout
// flow. This service never talks to the provider itself.
type PaymentInput struct {
	Method          string              `json:"pay_mode"`
	Status          enums.PaymentStatus `json:"payment_status"`
	TransactionID   *string             `json:"transaction_id"`
	PaymentIntentID *string             `json:"payment_intent_id"`
}

// LineItemInput is one priced line handed to order creation. Price is the
// frame price, or the inclusive cached total when PriceIsFallback is set;
// the subtotal is always recomputed here, never taken from the client.
type LineItemInput struct {
	ProductID       string              `json:"product_id"`
	Name            string              `json:"name"`
	Image           string              `json:"image"`
	Price           types.FlexAmount    `json:"price"`
	PriceIsFallback bool                `json:"price_is_fallback"`
	Quantity        int                 `json:"quantity"`
	Lens            *types.Lens         `json:"lens,omitempty"`
	Prescription    *types.Prescription `json:"prescription,omitempty"`
	CartLineID      int64               `json:"cart_line_id,omitempty"`
	AddedAt         *time.Time          `json:"added_at,omitempty"`
}

// CreateOrderInput carries everything order creation needs. Discount and
// shipping come from the priced cart the caller just read; the line subtotal
// does not.
type CreateOrderInput struct {
	OwnerID         string           `json:"owner_id"`
	Email           string           `json:"email"`
	CustomerName    string           `json:"customer_name"`
	Lines           []LineItemInput  `json:"cart_items"`
	Payment         PaymentInput     `json:"payment_data"`
	ShippingAddress string           `json:"shipping_address"`
	BillingAddress  string           `json:"billing_address"`
	DiscountAmount  types.FlexAmount `json:"discount_amount"`
	ShippingCost    types.FlexAmount `json:"shipping_cost"`
	Metadata        map[string]any   `json:"metadata"`
}

// CreateOrderResult reports the generated order id.
type CreateOrderResult struct {
	OrderID string `json:"order_id"`
}

// ListResult wraps one page of an owner's order history, newest first.
type ListResult struct {
	Orders []models.Order `json:"orders"`
	Cursor string         `json:"cursor,omitempty"`
}
