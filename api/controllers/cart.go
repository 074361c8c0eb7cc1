package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/multifolks/multifolks-backend/api/middleware"
	"github.com/multifolks/multifolks-backend/api/responses"
	"github.com/multifolks/multifolks-backend/api/validators"
	cartsvc "github.com/multifolks/multifolks-backend/internal/cart"
	pkgerrors "github.com/multifolks/multifolks-backend/pkg/errors"
	"github.com/multifolks/multifolks-backend/pkg/logger"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

func ownerID(r *http.Request, logg *logger.Logger, w http.ResponseWriter) (string, bool) {
	owner := middleware.OwnerIDFromContext(r.Context())
	if owner == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner context missing"))
		return "", false
	}
	return owner, true
}

func lineIDParam(r *http.Request, logg *logger.Logger, w http.ResponseWriter) (int64, bool) {
	raw := chi.URLParam(r, "lineID")
	lineID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart line id"))
		return 0, false
	}
	return lineID, true
}

// CartSummary returns the owner's priced cart.
func CartSummary(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		summary, err := svc.GetCartSummary(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CartAddItem adds a configured product to the owner's cart, merging into an
// existing line when product and lens match.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		var payload cartsvc.AddItemInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItem(r.Context(), owner, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartUpdateQuantity replaces the quantity of one line.
func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}
		lineID, ok := lineIDParam(r, logg, w)
		if !ok {
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.UpdateQuantity(r.Context(), owner, lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CartRemoveItem deletes one line from the owner's cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}
		lineID, ok := lineIDParam(r, logg, w)
		if !ok {
			return
		}

		summary, err := svc.RemoveItem(r.Context(), owner, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CartClear empties the owner's cart. Clearing an absent cart succeeds.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		summary, err := svc.ClearCart(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// CartApplyCoupon attaches a coupon to the cart after validating the code.
func CartApplyCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.ApplyCoupon(r.Context(), owner, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CartRemoveCoupon detaches any coupon from the cart.
func CartRemoveCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		summary, err := svc.RemoveCoupon(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type updateShippingRequest struct {
	MethodID string `json:"method_id" validate:"required"`
}

// CartUpdateShipping selects the cart's shipping method.
func CartUpdateShipping(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		var payload updateShippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.UpdateShippingMethod(r.Context(), owner, payload.MethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type updateLensRequest struct {
	Lens *cartsvc.LensPayload `json:"lens" validate:"required"`
}

// CartUpdateLens replaces or partially updates a line's lens configuration
// and reprices the line.
func CartUpdateLens(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}
		lineID, ok := lineIDParam(r, logg, w)
		if !ok {
			return
		}

		var payload updateLensRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.UpdateLens(r.Context(), owner, lineID, payload.Lens)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type updatePrescriptionRequest struct {
	Prescription *types.Prescription `json:"prescription" validate:"required"`
}

// CartUpdatePrescription attaches prescription details to a line. Pricing is
// unaffected.
func CartUpdatePrescription(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}
		lineID, ok := lineIDParam(r, logg, w)
		if !ok {
			return
		}

		var payload updatePrescriptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.UpdatePrescription(r.Context(), owner, lineID, payload.Prescription)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

type mergeGuestCartRequest struct {
	GuestID string `json:"guest_id" validate:"required"`
}

// CartMergeGuest folds a guest cart into the signed-in owner's cart.
func CartMergeGuest(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		var payload mergeGuestCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.MergeGuestCart(r.Context(), payload.GuestID, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
