package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/multifolks/multifolks-backend/pkg/db/models"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

// Repository persists cart records and their lines. Every method is scoped
// to one owner's cart; owners never share a record so no cross-cart locking
// is needed.
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

// FindByOwner loads the owner's cart with lines in insertion order.
// Returns gorm.ErrRecordNotFound when the owner has no cart yet.
func (r *Repository) FindByOwner(ctx context.Context, ownerID string) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("added_at ASC, line_id ASC")
		}).
		First(&record, "owner_id = ?", ownerID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// EnsureCart loads the owner's cart, creating an empty record on first use.
func (r *Repository) EnsureCart(ctx context.Context, ownerID string) (*models.CartRecord, error) {
	record, err := r.FindByOwner(ctx, ownerID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	fresh := &models.CartRecord{ID: uuid.New(), OwnerID: ownerID}
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

// AppendLine inserts a new line into the cart.
func (r *Repository) AppendLine(ctx context.Context, line *models.CartLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(line).Error
}

// UpdateLineQuantity sets the quantity of one line and reports whether the
// line existed.
func (r *Repository) UpdateLineQuantity(ctx context.Context, cartID uuid.UUID, lineID int64, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ? AND line_id = ?", cartID, lineID).
		Update("quantity", quantity)
	return res.RowsAffected > 0, res.Error
}

// UpdateLineLens replaces the lens configuration and the cached unit price
// of one line. Select forces the write even when the new lens is nil.
func (r *Repository) UpdateLineLens(ctx context.Context, cartID uuid.UUID, lineID int64, lens *types.Lens, cachedPrice decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ? AND line_id = ?", cartID, lineID).
		Select("lens", "cached_price").
		Updates(models.CartLine{Lens: lens, CachedPrice: cachedPrice})
	return res.RowsAffected > 0, res.Error
}

// UpdateLinePrescription replaces the prescription of one line without
// touching price fields.
func (r *Repository) UpdateLinePrescription(ctx context.Context, cartID uuid.UUID, lineID int64, prescription *types.Prescription) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ? AND line_id = ?", cartID, lineID).
		Select("prescription").
		Updates(models.CartLine{Prescription: prescription})
	return res.RowsAffected > 0, res.Error
}

// DeleteLine removes one line and reports whether it existed.
func (r *Repository) DeleteLine(ctx context.Context, cartID uuid.UUID, lineID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND line_id = ?", cartID, lineID).
		Delete(&models.CartLine{})
	return res.RowsAffected > 0, res.Error
}

// ClearLines removes every line from the cart, leaving coupon and shipping
// selection untouched.
func (r *Repository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartLine{}).Error
}

// SetCoupon stores or clears the cart's coupon.
func (r *Repository) SetCoupon(ctx context.Context, cartID uuid.UUID, coupon *types.Coupon) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Select("coupon").
		Updates(models.CartRecord{Coupon: coupon}).Error
}

// SetShippingMethod stores the cart's shipping method selection.
func (r *Repository) SetShippingMethod(ctx context.Context, cartID uuid.UUID, method *types.ShippingMethod) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Select("shipping_method").
		Updates(models.CartRecord{ShippingMethod: method}).Error
}
