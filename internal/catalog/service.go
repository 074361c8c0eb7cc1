package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/multifolks/multifolks-backend/pkg/db/models"
	pkgerrors "github.com/multifolks/multifolks-backend/pkg/errors"
	"github.com/multifolks/multifolks-backend/pkg/logger"
	"github.com/multifolks/multifolks-backend/pkg/redis"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the resolved catalog view consumed by cart and order pricing.
// Price is the effective selling price: list price wins over the base price
// when both are present.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price"`
}

// Service resolves catalog products by their public identifier.
type Service interface {
	Lookup(ctx context.Context, productID string) (*Product, error)
}

type productFinder interface {
	FindBySKUID(ctx context.Context, skuid string) (*models.Product, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type service struct {
	repo  productFinder
	cache cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewService builds a catalog service backed by Postgres with a Redis
// read-through cache. The cache is optional; pass nil to always hit the DB.
func NewService(repo productFinder, cache cacheStore, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &service{repo: repo, cache: cache, ttl: ttl, logg: logg}, nil
}

// Lookup returns the product for the given identifier, or a not-found error
// when the row is missing or inactive. Cache failures fall through to the
// database and never fail the lookup.
func (s *service) Lookup(ctx context.Context, productID string) (*Product, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if cached := s.fromCache(ctx, productID); cached != nil {
		return cached, nil
	}

	row, err := s.repo.FindBySKUID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !row.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	product := &Product{
		ID:    row.SKUID,
		Name:  row.Name,
		Image: row.Image,
		Price: effectivePrice(row),
	}
	s.toCache(ctx, productID, product)
	return product, nil
}

func effectivePrice(row *models.Product) decimal.Decimal {
	if row.ListPrice != nil && row.ListPrice.IsPositive() {
		return *row.ListPrice
	}
	if row.Price != nil {
		return *row.Price
	}
	return decimal.Zero
}

func (s *service) fromCache(ctx context.Context, productID string) *Product {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, redis.CatalogKey(productID))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", productID), "catalog cache read failed")
		}
		return nil
	}
	var product Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return nil
	}
	return &product
}

func (s *service) toCache(ctx context.Context, productID string, product *Product) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, redis.CatalogKey(productID), payload, s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", productID), "catalog cache write failed")
	}
}
