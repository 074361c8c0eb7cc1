package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/multifolks/multifolks-backend/internal/catalog"
	"github.com/multifolks/multifolks-backend/internal/pricing"
	"github.com/multifolks/multifolks-backend/pkg/db/models"
	pkgerrors "github.com/multifolks/multifolks-backend/pkg/errors"
	"github.com/multifolks/multifolks-backend/pkg/logger"
	"github.com/multifolks/multifolks-backend/pkg/metrics"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

// Service exposes the cart operations. Every mutating operation returns the
// freshly priced summary so callers never hold a stale view.
type Service interface {
	AddItem(ctx context.Context, ownerID string, input AddItemInput) (*AddItemResult, error)
	UpdateQuantity(ctx context.Context, ownerID string, lineID int64, quantity int) (*Summary, error)
	RemoveItem(ctx context.Context, ownerID string, lineID int64) (*Summary, error)
	ClearCart(ctx context.Context, ownerID string) (*Summary, error)
	ApplyCoupon(ctx context.Context, ownerID, code string) (*Summary, error)
	RemoveCoupon(ctx context.Context, ownerID string) (*Summary, error)
	UpdateShippingMethod(ctx context.Context, ownerID, methodID string) (*Summary, error)
	UpdateLens(ctx context.Context, ownerID string, lineID int64, payload *LensPayload) (*Summary, error)
	UpdatePrescription(ctx context.Context, ownerID string, lineID int64, prescription *types.Prescription) (*Summary, error)
	GetCartSummary(ctx context.Context, ownerID string) (*Summary, error)
	MergeGuestCart(ctx context.Context, guestID, userID string) (*MergeResult, error)
}

// AddItemInput is the boundary payload for adding a configured product.
// Price is the client-supplied fallback used only when catalog resolution
// misses; when used it is a total already inclusive of lens and addon costs.
type AddItemInput struct {
	ProductID    string              `json:"product_id" validate:"required"`
	Name         string              `json:"name"`
	Image        string              `json:"image"`
	Price        *types.FlexAmount   `json:"price"`
	Quantity     int                 `json:"quantity"`
	Lens         *LensPayload        `json:"lens"`
	Prescription *types.Prescription `json:"prescription"`
}

// AddItemResult reports which line absorbed the add and the new cart state.
type AddItemResult struct {
	LineID   int64    `json:"cart_line_id"`
	Quantity int      `json:"quantity"`
	Merged   bool     `json:"merged"`
	Summary  *Summary `json:"summary"`
}

// LineView is the priced read shape of one cart line.
type LineView struct {
	LineID          int64               `json:"cart_line_id"`
	ProductID       string              `json:"product_id"`
	Name            string              `json:"name"`
	Image           string              `json:"image"`
	FramePrice      decimal.Decimal     `json:"frame_price"`
	PriceIsFallback bool                `json:"price_is_fallback"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	LineTotal       decimal.Decimal     `json:"line_total"`
	Lens            *types.Lens         `json:"lens,omitempty"`
	Prescription    *types.Prescription `json:"prescription,omitempty"`
	Quantity        int                 `json:"quantity"`
	AddedAt         time.Time           `json:"added_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Summary is the canonical priced view of a cart. Every mutating operation
// leaves the cart in a state this shape can price without special-casing.
type Summary struct {
	TotalItems     int                   `json:"total_items"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	ShippingCost   decimal.Decimal       `json:"shipping_cost"`
	TotalPayable   decimal.Decimal       `json:"total_payable"`
	Coupon         *types.Coupon         `json:"coupon,omitempty"`
	ShippingMethod *types.ShippingMethod `json:"shipping_method,omitempty"`
	Lines          []LineView            `json:"lines"`
}

// MergeResult reports the outcome of a best-effort guest merge.
type MergeResult struct {
	MergedLines  int      `json:"items_merged"`
	SkippedLines int      `json:"items_skipped"`
	Summary      *Summary `json:"summary"`
}

type cartStore interface {
	FindByOwner(ctx context.Context, ownerID string) (*models.CartRecord, error)
	EnsureCart(ctx context.Context, ownerID string) (*models.CartRecord, error)
	AppendLine(ctx context.Context, line *models.CartLine) error
	UpdateLineQuantity(ctx context.Context, cartID uuid.UUID, lineID int64, quantity int) (bool, error)
	UpdateLineLens(ctx context.Context, cartID uuid.UUID, lineID int64, lens *types.Lens, cachedPrice decimal.Decimal) (bool, error)
	UpdateLinePrescription(ctx context.Context, cartID uuid.UUID, lineID int64, prescription *types.Prescription) (bool, error)
	DeleteLine(ctx context.Context, cartID uuid.UUID, lineID int64) (bool, error)
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	SetCoupon(ctx context.Context, cartID uuid.UUID, coupon *types.Coupon) error
	SetShippingMethod(ctx context.Context, cartID uuid.UUID, method *types.ShippingMethod) error
}

type catalogLookup interface {
	Lookup(ctx context.Context, productID string) (*catalog.Product, error)
}

type service struct {
	repo    cartStore
	catalog catalogLookup
	metrics *metrics.CommerceMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo cartStore, cat catalogLookup, m *metrics.CommerceMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if m == nil {
		m = metrics.NewCommerceMetrics(nil)
	}
	return &service{
		repo:    repo,
		catalog: cat,
		metrics: m,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// AddItem resolves the product against the catalog, normalizes the lens
// payload and either increments an existing matching line or appends a new
// one. Two lines in one cart never share the same (product id, lens) pair.
func (s *service) AddItem(ctx context.Context, ownerID string, input AddItemInput) (*AddItemResult, error) {
	result, err := s.addNormalized(ctx, ownerID, normalizedAdd{
		ProductID:    input.ProductID,
		Name:         input.Name,
		Image:        input.Image,
		FallbackSet:  input.Price != nil,
		Fallback:     amountOrZero(input.Price),
		Quantity:     input.Quantity,
		Lens:         NormalizeLens(input.Lens),
		Prescription: input.Prescription,
	})
	s.metrics.IncCartOp("add_item", err == nil)
	return result, err
}

// normalizedAdd is the post-boundary add payload: aliases folded, amounts
// parsed. Guest merge feeds already-canonical lines through this shape so
// the de-duplication invariant applies uniformly.
type normalizedAdd struct {
	ProductID    string
	Name         string
	Image        string
	FallbackSet  bool
	Fallback     decimal.Decimal
	Quantity     int
	Lens         *types.Lens
	Prescription *types.Prescription
}

func (s *service) addNormalized(ctx context.Context, ownerID string, input normalizedAdd) (*AddItemResult, error) {
	if input.ProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	framePrice, fallback, name, image, err := s.resolvePrice(ctx, input)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.EnsureCart(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	for _, line := range record.Lines {
		if line.ProductID != input.ProductID || !types.LensEqual(line.Lens, input.Lens) {
			continue
		}
		newQuantity := line.Quantity + quantity
		if _, err := s.repo.UpdateLineQuantity(ctx, record.ID, line.LineID, newQuantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "incrementing line quantity")
		}
		summary, err := s.GetCartSummary(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return &AddItemResult{LineID: line.LineID, Quantity: newQuantity, Merged: true, Summary: summary}, nil
	}

	line := &models.CartLine{
		CartID:          record.ID,
		LineID:          nextLineID(record.Lines, s.now()),
		ProductID:       input.ProductID,
		Name:            name,
		Image:           image,
		FramePrice:      framePrice,
		PriceIsFallback: fallback,
		Lens:            input.Lens,
		Prescription:    input.Prescription,
		Quantity:        quantity,
	}
	line.CachedPrice = pricing.UnitTotal(pricing.LineInput{
		FramePrice:      line.FramePrice,
		PriceIsFallback: line.PriceIsFallback,
		Lens:            line.Lens,
	})
	if err := s.repo.AppendLine(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending cart line")
	}

	summary, err := s.GetCartSummary(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &AddItemResult{LineID: line.LineID, Quantity: quantity, Summary: summary}, nil
}

// resolvePrice prefers the live catalog price and falls back to the
// client-supplied total when the lookup misses. An add with neither price
// signal is rejected.
func (s *service) resolvePrice(ctx context.Context, input normalizedAdd) (decimal.Decimal, bool, string, string, error) {
	product, err := s.catalog.Lookup(ctx, input.ProductID)
	if err == nil {
		name := input.Name
		if name == "" {
			name = product.Name
		}
		image := input.Image
		if image == "" {
			image = product.Image
		}
		return product.Price, false, name, image, nil
	}

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return decimal.Zero, false, "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog lookup")
	}
	if !input.FallbackSet {
		return decimal.Zero, false, "", "", pkgerrors.New(pkgerrors.CodeValidation, "product_id and price are required")
	}
	return input.Fallback, true, input.Name, input.Image, nil
}

// UpdateQuantity sets an exact quantity on a line. Quantities below one are
// a validation failure, not a removal.
func (s *service) UpdateQuantity(ctx context.Context, ownerID string, lineID int64, quantity int) (*Summary, error) {
	if quantity < 1 {
		s.metrics.IncCartOp("update_quantity", false)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	record, err := s.findCart(ctx, ownerID)
	if err != nil {
		s.metrics.IncCartOp("update_quantity", false)
		return nil, err
	}
	found, err := s.repo.UpdateLineQuantity(ctx, record.ID, lineID, quantity)
	if err != nil {
		s.metrics.IncCartOp("update_quantity", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating quantity")
	}
	if !found {
		s.metrics.IncCartOp("update_quantity", false)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
	}
	s.metrics.IncCartOp("update_quantity", true)
	return s.GetCartSummary(ctx, ownerID)
}

// RemoveItem deletes one line. Removing a line that is already gone is
// reported as not-found; the cart state is valid either way.
func (s *service) RemoveItem(ctx context.Context, ownerID string, lineID int64) (*Summary, error) {
	record, err := s.findCart(ctx, ownerID)
	if err != nil {
		s.metrics.IncCartOp("remove_item", false)
		return nil, err
	}
	found, err := s.repo.DeleteLine(ctx, record.ID, lineID)
	if err != nil {
		s.metrics.IncCartOp("remove_item", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart line")
	}
	if !found {
		s.metrics.IncCartOp("remove_item", false)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
	}
	s.metrics.IncCartOp("remove_item", true)
	return s.GetCartSummary(ctx, ownerID)
}

// ClearCart empties the cart's lines, leaving coupon and shipping selection
// in place. Clearing an absent or already-empty cart succeeds.
func (s *service) ClearCart(ctx context.Context, ownerID string) (*Summary, error) {
	record, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncCartOp("clear_cart", true)
			return s.emptySummary(nil), nil
		}
		s.metrics.IncCartOp("clear_cart", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if err := s.repo.ClearLines(ctx, record.ID); err != nil {
		s.metrics.IncCartOp("clear_cart", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	s.metrics.IncCartOp("clear_cart", true)
	return s.GetCartSummary(ctx, ownerID)
}

// ApplyCoupon validates the code against the fixed allow-list and stores it
// on the cart. An unknown code is a validation failure.
func (s *service) ApplyCoupon(ctx context.Context, ownerID, code string) (*Summary, error) {
	coupon, ok := pricing.LookupCoupon(code)
	if !ok {
		s.metrics.IncCartOp("apply_coupon", false)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
	}
	record, err := s.repo.EnsureCart(ctx, ownerID)
	if err != nil {
		s.metrics.IncCartOp("apply_coupon", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if err := s.repo.SetCoupon(ctx, record.ID, &coupon); err != nil {
		s.metrics.IncCartOp("apply_coupon", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing coupon")
	}
	s.metrics.IncCartOp("apply_coupon", true)
	return s.GetCartSummary(ctx, ownerID)
}

// RemoveCoupon clears any applied coupon; clearing when none is applied
// succeeds.
func (s *service) RemoveCoupon(ctx context.Context, ownerID string) (*Summary, error) {
	record, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.emptySummary(nil), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if err := s.repo.SetCoupon(ctx, record.ID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing coupon")
	}
	s.metrics.IncCartOp("remove_coupon", true)
	return s.GetCartSummary(ctx, ownerID)
}

// UpdateShippingMethod stores a shipping selection resolved against the
// known method table.
func (s *service) UpdateShippingMethod(ctx context.Context, ownerID, methodID string) (*Summary, error) {
	method, ok := pricing.LookupShippingMethod(methodID)
	if !ok {
		s.metrics.IncCartOp("update_shipping", false)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
	record, err := s.repo.EnsureCart(ctx, ownerID)
	if err != nil {
		s.metrics.IncCartOp("update_shipping", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if err := s.repo.SetShippingMethod(ctx, record.ID, &method); err != nil {
		s.metrics.IncCartOp("update_shipping", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing shipping method")
	}
	s.metrics.IncCartOp("update_shipping", true)
	return s.GetCartSummary(ctx, ownerID)
}

// UpdateLens merges a normalized lens payload onto the line and recomputes
// the line's cached unit price so summary reads stay O(1).
func (s *service) UpdateLens(ctx context.Context, ownerID string, lineID int64, payload *LensPayload) (*Summary, error) {
	record, err := s.findCart(ctx, ownerID)
	if err != nil {
		s.metrics.IncCartOp("update_lens", false)
		return nil, err
	}
	line := findLine(record.Lines, lineID)
	if line == nil {
		s.metrics.IncCartOp("update_lens", false)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
	}

	merged := MergeLens(line.Lens, NormalizeLens(payload))
	cached := pricing.UnitTotal(pricing.LineInput{
		FramePrice:      line.FramePrice,
		PriceIsFallback: line.PriceIsFallback,
		Lens:            merged,
	})
	if _, err := s.repo.UpdateLineLens(ctx, record.ID, lineID, merged, cached); err != nil {
		s.metrics.IncCartOp("update_lens", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating lens")
	}
	s.metrics.IncCartOp("update_lens", true)
	return s.GetCartSummary(ctx, ownerID)
}

// UpdatePrescription attaches or replaces the prescription without touching
// any price field.
func (s *service) UpdatePrescription(ctx context.Context, ownerID string, lineID int64, prescription *types.Prescription) (*Summary, error) {
	record, err := s.findCart(ctx, ownerID)
	if err != nil {
		s.metrics.IncCartOp("update_prescription", false)
		return nil, err
	}
	found, err := s.repo.UpdateLinePrescription(ctx, record.ID, lineID, prescription)
	if err != nil {
		s.metrics.IncCartOp("update_prescription", false)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating prescription")
	}
	if !found {
		s.metrics.IncCartOp("update_prescription", false)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
	}
	s.metrics.IncCartOp("update_prescription", true)
	return s.GetCartSummary(ctx, ownerID)
}

// GetCartSummary prices the cart: line totals, coupon discount, shipping
// cost and the payable total, rounded once at the boundary. An owner with
// no cart yet reads as an empty summary.
func (s *service) GetCartSummary(ctx context.Context, ownerID string) (*Summary, error) {
	record, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.emptySummary(nil), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return s.summarize(record), nil
}

func (s *service) summarize(record *models.CartRecord) *Summary {
	inputs := make([]pricing.LineInput, 0, len(record.Lines))
	views := make([]LineView, 0, len(record.Lines))
	for _, line := range record.Lines {
		input := pricing.LineInput{
			FramePrice:      line.FramePrice,
			PriceIsFallback: line.PriceIsFallback,
			Lens:            line.Lens,
			Quantity:        line.Quantity,
			CachedUnit:      line.CachedPrice,
		}
		inputs = append(inputs, input)
		views = append(views, LineView{
			LineID:          line.LineID,
			ProductID:       line.ProductID,
			Name:            line.Name,
			Image:           line.Image,
			FramePrice:      line.FramePrice,
			PriceIsFallback: line.PriceIsFallback,
			UnitPrice:       pricing.UnitTotal(input),
			LineTotal:       pricing.LineTotal(input),
			Lens:            line.Lens,
			Prescription:    line.Prescription,
			Quantity:        line.Quantity,
			AddedAt:         line.AddedAt,
			UpdatedAt:       line.UpdatedAt,
		})
	}

	method := record.ShippingMethod
	if method == nil {
		def := pricing.DefaultShippingMethod()
		method = &def
	}
	priced := pricing.Summarize(inputs, record.Coupon, method)
	return &Summary{
		TotalItems:     len(views),
		Subtotal:       priced.Subtotal,
		DiscountAmount: priced.DiscountAmount,
		ShippingCost:   priced.ShippingCost,
		TotalPayable:   priced.TotalPayable,
		Coupon:         record.Coupon,
		ShippingMethod: method,
		Lines:          views,
	}
}

func (s *service) emptySummary(coupon *types.Coupon) *Summary {
	method := pricing.DefaultShippingMethod()
	priced := pricing.Summarize(nil, coupon, &method)
	return &Summary{
		TotalItems:     0,
		Subtotal:       priced.Subtotal,
		DiscountAmount: priced.DiscountAmount,
		ShippingCost:   priced.ShippingCost,
		TotalPayable:   priced.TotalPayable,
		Coupon:         coupon,
		ShippingMethod: &method,
		Lines:          []LineView{},
	}
}

// findCart loads a cart that must already exist for the operation to make
// sense (quantity, lens, prescription and removal mutations).
func (s *service) findCart(ctx context.Context, ownerID string) (*models.CartRecord, error) {
	record, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return record, nil
}

func findLine(lines []models.CartLine, lineID int64) *models.CartLine {
	for i := range lines {
		if lines[i].LineID == lineID {
			return &lines[i]
		}
	}
	return nil
}

// nextLineID derives a line id from the wall clock and bumps past any id
// already present, so collisions are structurally impossible within one
// cart even when two adds land in the same millisecond.
func nextLineID(lines []models.CartLine, now time.Time) int64 {
	taken := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		taken[line.LineID] = struct{}{}
	}
	candidate := now.UnixMilli()
	for {
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
		candidate++
	}
}

func amountOrZero(a *types.FlexAmount) decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	return a.Decimal
}
