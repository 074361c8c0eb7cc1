package cart

import (
	"context"

	"go.uber.org/multierr"

	pkgerrors "github.com/multifolks/multifolks-backend/pkg/errors"
)

// MergeGuestCart folds a guest cart into the authenticated user's cart.
// Each guest line is re-added through the normal add path so the
// de-duplication invariant applies uniformly: a matching (product id, lens)
// line on the user side absorbs the guest quantity instead of duplicating.
//
// Merge is best-effort, not all-or-nothing. A line that fails to merge is
// logged and skipped, and the result reports how many lines made it across.
// The guest cart is cleared afterwards regardless of skips; clearing
// failures are logged and swallowed.
func (s *service) MergeGuestCart(ctx context.Context, guestID, userID string) (*MergeResult, error) {
	if guestID == "" || userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest id and user id are required")
	}
	if guestID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot merge a cart into itself")
	}

	guestSummary, err := s.GetCartSummary(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if len(guestSummary.Lines) == 0 {
		summary, err := s.GetCartSummary(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &MergeResult{Summary: summary}, nil
	}

	ctx = s.logg.WithOwnerID(ctx, userID)
	merged, skipped := 0, 0
	var skipErrs error
	for _, line := range guestSummary.Lines {
		// The fallback must be the inclusive unit value: if catalog
		// resolution misses on the user side, the line is priced from the
		// fallback alone, and a frame-only figure would drop the lens and
		// addon value the guest already paid for.
		input := normalizedAdd{
			ProductID:    line.ProductID,
			Name:         line.Name,
			Image:        line.Image,
			FallbackSet:  true,
			Fallback:     line.UnitPrice,
			Quantity:     line.Quantity,
			Lens:         line.Lens,
			Prescription: line.Prescription,
		}
		if _, err := s.addNormalized(ctx, userID, input); err != nil {
			skipped++
			skipErrs = multierr.Append(skipErrs, err)
			s.logg.Error(s.logg.WithField(ctx, "product_id", line.ProductID), "skipping guest cart line", err)
			continue
		}
		merged++
	}
	if skipErrs != nil {
		s.logg.Warn(s.logg.WithField(ctx, "skipped_lines", skipped), "guest cart merged with skips")
	}

	if _, err := s.ClearCart(ctx, guestID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "guest_id", guestID), "clearing guest cart after merge", err)
	}

	s.metrics.AddMergedLines(merged)
	summary, err := s.GetCartSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MergeResult{MergedLines: merged, SkippedLines: skipped, Summary: summary}, nil
}
