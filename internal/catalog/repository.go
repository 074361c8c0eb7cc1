package catalog

import (
	"context"

	"github.com/multifolks/multifolks-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository loads catalog rows from Postgres.
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

// FindBySKUID loads the product row for the public catalog identifier.
func (r *Repository) FindBySKUID(ctx context.Context, skuid string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "skuid = ?", skuid).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Upsert writes the catalog row, replacing an existing product with the
// same SKUID.
func (r *Repository) Upsert(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}
