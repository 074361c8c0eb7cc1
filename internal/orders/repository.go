package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/multifolks/multifolks-backend/pkg/db/models"
	"github.com/multifolks/multifolks-backend/pkg/enums"
	"github.com/multifolks/multifolks-backend/pkg/pagination"
)

// Repository persists immutable order snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert writes the order row. The unique index on order_id makes id
// collisions a database error rather than a silent overwrite.
func (r *Repository) Insert(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByOrderID loads one order, optionally scoped to an owner. The owner
// filter is part of the query so a mismatched owner reads as absence.
func (r *Repository) FindByOrderID(ctx context.Context, orderID, ownerID string) (*models.Order, error) {
	query := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	var order models.Order
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByOwner returns the owner's orders newest first, keyset-paginated on
// (created_at, order_id).
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND order_id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.OrderID,
		)
	}
	var rows []models.Order
	err := query.
		Order("created_at DESC, order_id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus sets the fulfillment status, optionally scoped to an owner,
// and reports whether a row matched.
func (r *Repository) UpdateStatus(ctx context.Context, orderID, ownerID string, status enums.OrderStatus) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ?", orderID)
	if ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	res := query.Update("order_status", status)
	return res.RowsAffected > 0, res.Error
}

// UpdatePaymentStatus sets the payment status and, when provided, the
// provider's payment intent reference. Reports whether a row matched.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, orderID string, status enums.PaymentStatus, paymentIntentID *string) (bool, error) {
	values := map[string]any{"payment_status": status}
	if paymentIntentID != nil {
		values["payment_intent_id"] = *paymentIntentID
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ?", orderID).
		Updates(values)
	return res.RowsAffected > 0, res.Error
}

// ConfirmPending flips a Processing order to Confirmed. Used when a payment
// confirmation lands; terminal states are never touched.
func (r *Repository) ConfirmPending(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_id = ? AND order_status = ?", orderID, enums.OrderStatusProcessing).
		Update("order_status", enums.OrderStatusConfirmed).Error
}
