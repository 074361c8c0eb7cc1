package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/multifolks/multifolks-backend/internal/cart"
	"github.com/multifolks/multifolks-backend/internal/notifications"
	"github.com/multifolks/multifolks-backend/internal/pricing"
	"github.com/multifolks/multifolks-backend/pkg/db"
	"github.com/multifolks/multifolks-backend/pkg/db/models"
	"github.com/multifolks/multifolks-backend/pkg/enums"
	pkgerrors "github.com/multifolks/multifolks-backend/pkg/errors"
	"github.com/multifolks/multifolks-backend/pkg/logger"
	"github.com/multifolks/multifolks-backend/pkg/metrics"
	"github.com/multifolks/multifolks-backend/pkg/pagination"
)

const (
	orderIDPrefix        = "ORD"
	orderIDConstraint    = "orders_order_id_key"
	defaultPaymentMethod = "Stripe / Online"
)

// Service converts priced carts into immutable orders and exposes the
// order read and transition paths.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	GetOrderByID(ctx context.Context, orderID, ownerID string) (*models.Order, error)
	ListOrders(ctx context.Context, ownerID string, params pagination.Params) (*ListResult, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus, ownerID string) error
	UpdatePaymentStatus(ctx context.Context, orderID string, status enums.PaymentStatus, paymentIntentID *string) error
}

type orderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByOrderID(ctx context.Context, orderID, ownerID string) (*models.Order, error)
	ListByOwner(ctx context.Context, ownerID string, limit int, cursor *pagination.Cursor) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID, ownerID string, status enums.OrderStatus) (bool, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status enums.PaymentStatus, paymentIntentID *string) (bool, error)
	ConfirmPending(ctx context.Context, orderID string) error
}

type profileWriter interface {
	RecordLastOrder(ctx context.Context, ownerID, orderID string, totalPayable decimal.Decimal, placedAt time.Time) error
}

type cartClearer interface {
	ClearCart(ctx context.Context, ownerID string) (*cart.Summary, error)
}

type service struct {
	repo     orderStore
	profiles profileWriter
	carts    cartClearer
	notifier notifications.Notifier
	metrics  *metrics.CommerceMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the order builder. Profile, cart and notifier hooks are
// the best-effort follow-ups of order creation; all three are required so
// their absence is a wiring bug, not a silent skip.
func NewService(repo orderStore, profiles profileWriter, carts cartClearer, notifier notifications.Notifier, m *metrics.CommerceMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile writer required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if m == nil {
		m = metrics.NewCommerceMetrics(nil)
	}
	return &service{
		repo:     repo,
		profiles: profiles,
		carts:    carts,
		notifier: notifier,
		metrics:  m,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateOrder freezes a priced cart into an order row. The subtotal is
// recomputed from the line items; a forged client total can never reach the
// persisted order. The insert is the authoritative step: the profile stamp,
// cart clear and notification that follow are best-effort and their failure
// is logged, never propagated.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.OwnerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, line := range input.Lines {
		if line.ProductID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "every item needs a product_id")
		}
	}

	payment := input.Payment
	if payment.Method == "" {
		payment.Method = defaultPaymentMethod
	}
	if payment.Status == "" {
		payment.Status = enums.PaymentStatusPending
	}
	if !payment.Status.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
	}

	now := s.now()
	orderID := fmt.Sprintf("%s-%d", orderIDPrefix, now.UnixMilli())

	subtotal := decimal.Zero
	lines := make([]models.OrderLine, 0, len(input.Lines))
	for _, item := range input.Lines {
		subtotal = subtotal.Add(pricing.LineTotal(pricing.LineInput{
			FramePrice:      item.Price.Decimal,
			PriceIsFallback: item.PriceIsFallback,
			Lens:            item.Lens,
			Quantity:        item.Quantity,
		}))
		lines = append(lines, normalizeLine(item))
	}

	discount := input.DiscountAmount.Decimal
	shipping := input.ShippingCost.Decimal
	total := subtotal.Sub(discount).Add(shipping).Round(2)

	status := enums.OrderStatusConfirmed
	if payment.Status == enums.PaymentStatusPending {
		status = enums.OrderStatusProcessing
	}

	order := &models.Order{
		OrderID:         orderID,
		OwnerID:         input.OwnerID,
		CustomerEmail:   input.Email,
		Lines:           lines,
		Subtotal:        subtotal.Round(2),
		DiscountAmount:  discount.Round(2),
		ShippingCost:    shipping.Round(2),
		Total:           total,
		PaymentMethod:   payment.Method,
		PaymentStatus:   payment.Status,
		TransactionID:   payment.TransactionID,
		PaymentIntentID: payment.PaymentIntentID,
		OrderStatus:     status,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Metadata:        input.Metadata,
		CreatedAt:       now,
	}

	if err := s.repo.Insert(ctx, order); err != nil {
		s.metrics.IncOrderCreated("failed")
		if db.IsUniqueViolation(err, orderIDConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order id collision, retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting order")
	}
	s.metrics.IncOrderCreated(string(payment.Status))

	ctx = s.logg.WithOrderID(s.logg.WithOwnerID(ctx, input.OwnerID), orderID)
	s.logg.Info(ctx, "order created")
	s.runFollowUps(ctx, input, orderID, total, now)

	return &CreateOrderResult{OrderID: orderID}, nil
}

// runFollowUps performs the fire-and-forget steps after the authoritative
// insert. None of them can fail the order.
func (s *service) runFollowUps(ctx context.Context, input CreateOrderInput, orderID string, total decimal.Decimal, placedAt time.Time) {
	if err := s.profiles.RecordLastOrder(ctx, input.OwnerID, orderID, total, placedAt); err != nil {
		s.logg.Error(ctx, "recording last order on profile", err)
	}
	if _, err := s.carts.ClearCart(ctx, input.OwnerID); err != nil {
		s.logg.Error(ctx, "clearing cart after order", err)
	}
	if err := s.notifier.OrderCreated(ctx, notifications.OrderCreatedEvent{
		Email:        input.Email,
		OrderID:      orderID,
		OrderTotal:   total,
		CustomerName: input.CustomerName,
	}); err != nil {
		s.logg.Error(ctx, "dispatching order created event", err)
	}
}

// normalizeLine folds a boundary line into its persisted order shape:
// uniqueness suffix stripped from the product id, display fields defaulted,
// frame price rounded, lens and cart line id carried through unchanged.
func normalizeLine(item LineItemInput) models.OrderLine {
	name := item.Name
	if name == "" {
		name = "Unknown"
	}
	quantity := item.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return models.OrderLine{
		ProductID:    stripLineSuffix(item.ProductID),
		Name:         name,
		Image:        item.Image,
		Price:        item.Price.Decimal.Round(2),
		Quantity:     quantity,
		Lens:         item.Lens,
		Prescription: item.Prescription,
		CartLineID:   item.CartLineID,
		AddedAt:      item.AddedAt,
	}
}

// Clients disambiguate repeated catalog ids by appending "_<millis>"; the
// persisted order keeps the catalog id only.
func stripLineSuffix(productID string) string {
	if idx := strings.Index(productID, "_"); idx >= 0 {
		return productID[:idx]
	}
	return productID
}

// GetOrderByID loads one order. When ownerID is set it acts as an
// authorization filter: someone else's order reads as not found, never as
// forbidden, so order ids cannot be probed for existence.
func (s *service) GetOrderByID(ctx context.Context, orderID, ownerID string) (*models.Order, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByOrderID(ctx, orderID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

// ListOrders pages through an owner's orders, newest first.
func (s *service) ListOrders(ctx context.Context, ownerID string, params pagination.Params) (*ListResult, error) {
	if ownerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByOwner(ctx, ownerID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, OrderID: last.OrderID})
	}
	return &ListResult{Orders: rows, Cursor: next}, nil
}

// UpdateOrderStatus applies an external fulfillment transition. An optional
// owner filter turns someone else's order into not-found.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus, ownerID string) error {
	if orderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !status.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	found, err := s.repo.UpdateStatus(ctx, orderID, ownerID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	s.logg.Info(s.logg.WithOrderID(s.logg.WithField(ctx, "order_status", string(status)), orderID), "order status updated")
	return nil
}

// UpdatePaymentStatus records the provider's payment outcome. A confirmed
// payment also moves a still-Processing order to Confirmed.
func (s *service) UpdatePaymentStatus(ctx context.Context, orderID string, status enums.PaymentStatus, paymentIntentID *string) error {
	if orderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !status.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
	}
	found, err := s.repo.UpdatePaymentStatus(ctx, orderID, status, paymentIntentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating payment status")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if status == enums.PaymentStatusConfirmed {
		if err := s.repo.ConfirmPending(ctx, orderID); err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, orderID), "confirming order after payment", err)
		}
	}
	return nil
}
