package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/multifolks/multifolks-backend/api/middleware"
	"github.com/multifolks/multifolks-backend/api/responses"
	"github.com/multifolks/multifolks-backend/api/validators"
	cartsvc "github.com/multifolks/multifolks-backend/internal/cart"
	ordersvc "github.com/multifolks/multifolks-backend/internal/orders"
	"github.com/multifolks/multifolks-backend/pkg/enums"
	pkgerrors "github.com/multifolks/multifolks-backend/pkg/errors"
	"github.com/multifolks/multifolks-backend/pkg/logger"
	"github.com/multifolks/multifolks-backend/pkg/pagination"
	"github.com/multifolks/multifolks-backend/pkg/types"
)

type createOrderLinePayload struct {
	ProductID       string               `json:"product_id" validate:"required"`
	Name            string               `json:"name"`
	Image           string               `json:"image"`
	Price           types.FlexAmount     `json:"price"`
	PriceIsFallback bool                 `json:"price_is_fallback"`
	Quantity        int                  `json:"quantity"`
	Lens            *cartsvc.LensPayload `json:"lens"`
	Prescription    *types.Prescription  `json:"prescription"`
	CartLineID      int64                `json:"cart_line_id"`
	AddedAt         *time.Time           `json:"added_at"`
}

type createOrderRequest struct {
	Email           string                   `json:"email"`
	CustomerName    string                   `json:"customer_name"`
	Lines           []createOrderLinePayload `json:"cart_items" validate:"required,min=1,dive"`
	Payment         ordersvc.PaymentInput    `json:"payment_data"`
	ShippingAddress string                   `json:"shipping_address"`
	BillingAddress  string                   `json:"billing_address"`
	DiscountAmount  types.FlexAmount         `json:"discount_amount"`
	ShippingCost    types.FlexAmount         `json:"shipping_cost"`
	Metadata        map[string]any           `json:"metadata"`
}

func (req createOrderRequest) toInput(ownerID string) ordersvc.CreateOrderInput {
	lines := make([]ordersvc.LineItemInput, len(req.Lines))
	for i, payload := range req.Lines {
		lines[i] = ordersvc.LineItemInput{
			ProductID:       payload.ProductID,
			Name:            payload.Name,
			Image:           payload.Image,
			Price:           payload.Price,
			PriceIsFallback: payload.PriceIsFallback,
			Quantity:        payload.Quantity,
			Lens:            cartsvc.NormalizeLens(payload.Lens),
			Prescription:    payload.Prescription,
			CartLineID:      payload.CartLineID,
			AddedAt:         payload.AddedAt,
		}
	}
	return ordersvc.CreateOrderInput{
		OwnerID:         ownerID,
		Email:           req.Email,
		CustomerName:    req.CustomerName,
		Lines:           lines,
		Payment:         req.Payment,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		DiscountAmount:  req.DiscountAmount,
		ShippingCost:    req.ShippingCost,
		Metadata:        req.Metadata,
	}
}

// OrderCreate places an order from the priced cart handed over by checkout.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Email == "" {
			payload.Email = middleware.EmailFromContext(r.Context())
		}

		result, err := svc.CreateOrder(r.Context(), payload.toInput(owner))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrderList returns the owner's order history, newest first.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		params := pagination.Params{Cursor: r.URL.Query().Get("cursor")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			params.Limit = limit
		}

		result, err := svc.ListOrders(r.Context(), owner, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderGet returns one order scoped to the owner. Orders belonging to someone
// else read as not found.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		order, err := svc.GetOrderByID(r.Context(), chi.URLParam(r, "orderID"), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderGetPublic returns one order without owner scoping, for confirmation
// pages reached from an emailed link.
func OrderGetPublic(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		order, err := svc.GetOrderByID(r.Context(), chi.URLParam(r, "orderID"), "")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateOrderStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

// OrderUpdateStatus moves an order through its fulfilment states.
func OrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		owner, ok := ownerID(r, logg, w)
		if !ok {
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID := chi.URLParam(r, "orderID")
		if err := svc.UpdateOrderStatus(r.Context(), orderID, payload.Status, owner); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID, "status": string(payload.Status)})
	}
}

type updatePaymentStatusRequest struct {
	Status          enums.PaymentStatus `json:"payment_status" validate:"required"`
	PaymentIntentID *string             `json:"payment_intent_id"`
}

// OrderUpdatePaymentStatus records the payment outcome reported by the
// provider callback.
func OrderUpdatePaymentStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload updatePaymentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID := chi.URLParam(r, "orderID")
		if err := svc.UpdatePaymentStatus(r.Context(), orderID, payload.Status, payload.PaymentIntentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"order_id": orderID, "payment_status": string(payload.Status)})
	}
}
