package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/multifolks/multifolks-backend/internal/catalog"
	"github.com/multifolks/multifolks-backend/pkg/db/models"
	pkgerrors "github.com/multifolks/multifolks-backend/pkg/errors"
	"github.com/multifolks/multifolks-backend/pkg/logger"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	cartRecords := `
CREATE TABLE IF NOT EXISTS cart_records (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL UNIQUE,
  coupon TEXT,
  shipping_method TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartLines := `
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  line_id INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT,
  image TEXT,
  frame_price NUMERIC NOT NULL DEFAULT 0,
  price_is_fallback INTEGER NOT NULL DEFAULT 0,
  cached_price NUMERIC NOT NULL DEFAULT 0,
  lens TEXT,
  prescription TEXT,
  quantity INTEGER NOT NULL DEFAULT 1,
  added_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, line_id)
);`
	require.NoError(t, conn.Exec(cartRecords).Error)
	require.NoError(t, conn.Exec(cartLines).Error)
	return conn
}

type stubCatalog struct {
	products map[string]*catalog.Product
	errs     map[string]error
}

func (s *stubCatalog) Lookup(ctx context.Context, productID string) (*catalog.Product, error) {
	if err, ok := s.errs[productID]; ok {
		return nil, err
	}
	if p, ok := s.products[productID]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func cartTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

func newTestService(t *testing.T, cat *stubCatalog) *service {
	t.Helper()
	if cat == nil {
		cat = &stubCatalog{}
	}
	if cat.products == nil {
		cat.products = map[string]*catalog.Product{}
	}
	repo := NewRepository(setupCartTestDB(t))
	svc, err := NewService(repo, cat, nil, cartTestLogger())
	require.NoError(t, err)
	return svc.(*service)
}

func frameProduct(id, name string, price string) *catalog.Product {
	return &catalog.Product{ID: id, Name: name, Image: "https://cdn.example.com/" + id + ".jpg", Price: decimal.RequireFromString(price)}
}

func flexAmount(value string) *types.FlexAmount {
	amt := types.NewFlexAmount(decimal.RequireFromString(value))
	return &amt
}

func TestSummaryReadsPersistedCachedPrice(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))
	svc, err := NewService(repo, &stubCatalog{products: map[string]*catalog.Product{}}, nil, cartTestLogger())
	require.NoError(t, err)
	ctx := context.Background()

	record, err := repo.EnsureCart(ctx, "user-1")
	require.NoError(t, err)

	// The stored cached price intentionally disagrees with what frame+lens
	// would recompute, to prove the summary reads it instead of repricing.
	require.NoError(t, repo.AppendLine(ctx, &models.CartLine{
		CartID:      record.ID,
		LineID:      1,
		ProductID:   "FRAME-1",
		FramePrice:  decimal.NewFromInt(100),
		CachedPrice: decimal.NewFromInt(135),
		Lens:        &types.Lens{SellingPrice: decimal.NewFromInt(20)},
		Quantity:    1,
	}))

	summary, err := svc.GetCartSummary(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.True(t, summary.Lines[0].UnitPrice.Equal(decimal.NewFromInt(135)))
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(135)))
}

func TestAddItemResolvesCatalogPrice(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})

	res, err := svc.AddItem(context.Background(), "user-1", AddItemInput{ProductID: "FRAME-1", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, res.Summary.Lines, 1)

	line := res.Summary.Lines[0]
	assert.Equal(t, "Round Acetate", line.Name)
	assert.False(t, line.PriceIsFallback)
	assert.True(t, line.FramePrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, res.Summary.Subtotal.Equal(decimal.NewFromInt(200)))
}

func TestAddItemDeduplicatesOnProductAndLens(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	lens := decodeLensPayload(t, `{"selling_price": 20, "coating_price": 10}`)
	first, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1", Lens: lens})
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1", Lens: lens, Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, first.LineID, second.LineID)
	assert.True(t, second.Merged)
	assert.Equal(t, 3, second.Quantity)
	require.Len(t, second.Summary.Lines, 1)
	assert.Equal(t, 3, second.Summary.Lines[0].Quantity)
}

func TestAddItemTreatsNilAndEmptyLensAsEqual(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)
	res, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1", Lens: &LensPayload{}})
	require.NoError(t, err)

	assert.True(t, res.Merged)
	require.Len(t, res.Summary.Lines, 1)
	assert.Equal(t, 2, res.Summary.Lines[0].Quantity)
}

func TestAddItemDistinctLensMakesDistinctLine(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)
	res, err := svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "FRAME-1",
		Lens:      decodeLensPayload(t, `{"selling_price": 20}`),
	})
	require.NoError(t, err)

	assert.False(t, res.Merged)
	assert.Len(t, res.Summary.Lines, 2)
}

func TestAddItemFallbackPriceIsInclusive(t *testing.T) {
	svc := newTestService(t, nil)

	res, err := svc.AddItem(context.Background(), "user-1", AddItemInput{
		ProductID: "GONE-1",
		Name:      "Discontinued",
		Price:     flexAmount("135"),
		Quantity:  2,
		Lens:      decodeLensPayload(t, `{"selling_price": 20, "tint_price": 15}`),
	})
	require.NoError(t, err)

	line := res.Summary.Lines[0]
	assert.True(t, line.PriceIsFallback)
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(135)), "fallback price must not be added to")
	assert.True(t, res.Summary.Subtotal.Equal(decimal.NewFromInt(270)))
}

func TestAddItemRequiresPriceSignal(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.AddItem(context.Background(), "user-1", AddItemInput{ProductID: "GONE-1"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.AddItem(context.Background(), "user-1", AddItemInput{})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestAddItemLineIDCollisionBumps(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	first, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "FRAME-1",
		Lens:      decodeLensPayload(t, `{"selling_price": 20}`),
	})
	require.NoError(t, err)

	assert.Equal(t, fixed.UnixMilli(), first.LineID)
	assert.Equal(t, fixed.UnixMilli()+1, second.LineID)
}

func TestUpdateQuantity(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	res, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)

	summary, err := svc.UpdateQuantity(ctx, "user-1", res.LineID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Lines[0].Quantity)
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(400)))

	_, err = svc.UpdateQuantity(ctx, "user-1", res.LineID, 0)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.UpdateQuantity(ctx, "user-1", 424242, 2)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRemoveItemTwice(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	res, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)

	summary, err := svc.RemoveItem(ctx, "user-1", res.LineID)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)

	_, err = svc.RemoveItem(ctx, "user-1", res.LineID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	after, err := svc.GetCartSummary(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, after.Lines)
}

func TestClearCartIsIdempotent(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	// Clearing a cart that was never created succeeds.
	summary, err := svc.ClearCart(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)

	_, err = svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, "user-1", "FLAT5")
	require.NoError(t, err)

	summary, err = svc.ClearCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
	require.NotNil(t, summary.Coupon, "clearing the cart keeps the coupon")
	assert.Equal(t, "FLAT5", summary.Coupon.Code)

	summary, err = svc.ClearCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
}

func TestApplyCouponAndFreeShipping(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "80"),
	}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)

	summary, err := svc.ApplyCoupon(ctx, "user-1", "welcome10")
	require.NoError(t, err)
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(80)))
	assert.True(t, summary.DiscountAmount.Equal(decimal.NewFromInt(8)))
	assert.True(t, summary.ShippingCost.IsZero(), "80 > 75 threshold means free standard shipping")
	assert.True(t, summary.TotalPayable.Equal(decimal.NewFromInt(72)))
}

func TestApplyCouponInvalidCode(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.ApplyCoupon(context.Background(), "user-1", "NOPE99")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRemoveCoupon(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "40"),
	}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, "user-1", "FLAT5")
	require.NoError(t, err)

	summary, err := svc.RemoveCoupon(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, summary.Coupon)
	assert.True(t, summary.DiscountAmount.IsZero())

	// Removing when nothing is applied still succeeds.
	_, err = svc.RemoveCoupon(ctx, "user-1")
	require.NoError(t, err)
}

func TestUpdateShippingMethod(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)

	summary, err := svc.UpdateShippingMethod(ctx, "user-1", "express")
	require.NoError(t, err)
	require.NotNil(t, summary.ShippingMethod)
	assert.Equal(t, "express", summary.ShippingMethod.ID)
	assert.True(t, summary.ShippingCost.Equal(decimal.NewFromInt(29)), "express has no free threshold")

	_, err = svc.UpdateShippingMethod(ctx, "user-1", "teleport")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateLensRecomputesCachedPrice(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	res, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1", Quantity: 2})
	require.NoError(t, err)

	summary, err := svc.UpdateLens(ctx, "user-1", res.LineID, decodeLensPayload(t, `{
		"selling_price": 20,
		"coating_price": 30,
		"tint_price": 15
	}`))
	require.NoError(t, err)

	line := summary.Lines[0]
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(135)), "tint wins over coating, never both")
	assert.True(t, line.LineTotal.Equal(decimal.NewFromInt(270)))
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(270)))

	_, err = svc.UpdateLens(ctx, "user-1", 424242, &LensPayload{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdatePrescriptionDoesNotTouchPrice(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "100"),
	}})
	ctx := context.Background()

	res, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1"})
	require.NoError(t, err)
	before, err := svc.GetCartSummary(ctx, "user-1")
	require.NoError(t, err)

	summary, err := svc.UpdatePrescription(ctx, "user-1", res.LineID, &types.Prescription{
		Mode:   "manual",
		Values: map[string]float64{"sph_right": -1.25, "sph_left": -1.5},
	})
	require.NoError(t, err)
	require.NotNil(t, summary.Lines[0].Prescription)
	assert.Equal(t, "manual", summary.Lines[0].Prescription.Mode)
	assert.True(t, summary.TotalPayable.Equal(before.TotalPayable))
}

func TestGetCartSummaryUnknownOwner(t *testing.T) {
	svc := newTestService(t, nil)

	summary, err := svc.GetCartSummary(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalItems)
	assert.True(t, summary.Subtotal.IsZero())
	require.NotNil(t, summary.ShippingMethod)
	assert.Equal(t, "standard", summary.ShippingMethod.ID)
}

func TestSummaryTotalIdentity(t *testing.T) {
	svc := newTestService(t, &stubCatalog{products: map[string]*catalog.Product{
		"FRAME-1": frameProduct("FRAME-1", "Round Acetate", "33.33"),
		"FRAME-2": frameProduct("FRAME-2", "Square Metal", "12.49"),
	}})
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-1", Quantity: 3})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user-1", AddItemInput{ProductID: "FRAME-2"})
	require.NoError(t, err)
	summary, err := svc.ApplyCoupon(ctx, "user-1", "LAUNCH50")
	require.NoError(t, err)

	expected := summary.Subtotal.Sub(summary.DiscountAmount).Add(summary.ShippingCost).Round(2)
	assert.True(t, summary.TotalPayable.Equal(expected))
}
