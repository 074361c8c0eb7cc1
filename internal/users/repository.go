package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/multifolks/multifolks-backend/pkg/db/models"
)

// Repository persists user profile rows. Order creation only touches the
// last-order summary fields; account management proper lives outside this
// service.
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

// FindByID loads a user profile.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a user profile by email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user profile row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// RecordLastOrder stamps the user's most recent order summary onto the
// profile. Owner ids that are not user ids (guest checkouts) are skipped:
// there is no profile row to stamp.
func (r *Repository) RecordLastOrder(ctx context.Context, ownerID, orderID string, totalPayable decimal.Decimal, placedAt time.Time) error {
	userID, err := uuid.Parse(ownerID)
	if err != nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"last_order_id":            orderID,
			"last_order_total_payable": totalPayable,
			"last_order_date":          placedAt,
		}).Error
}
