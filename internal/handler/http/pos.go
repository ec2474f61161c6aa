package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wellknownalpha/bloom-pos/internal/service"
	"github.com/wellknownalpha/bloom-pos/pkg/httputil"
	"github.com/wellknownalpha/bloom-pos/pkg/validator"
)

// POSHandler handles the checkout endpoints of a terminal.
type POSHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewPOSHandler creates a new POS HTTP handler.
func NewPOSHandler(svc *service.CheckoutService, logger *slog.Logger) *POSHandler {
	return &POSHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// AddItemRequest is the JSON body for adding one unit of a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// UpdateQuantityRequest is the JSON body for setting a line's quantity.
// Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// PaymentMethodRequest is the JSON body for selecting the payment method.
type PaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card mobile"`
}

// --- Handlers ---

// GetSession handles GET /api/v1/pos/session
func (h *POSHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.GetSession(r.Context(), terminalID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toSessionResponse(sess)})
}

// AddItem handles POST /api/v1/pos/cart/items
func (h *POSHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	sess, err := h.service.AddItem(r.Context(), terminalID(r), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toSessionResponse(sess)})
}

// UpdateItemQuantity handles PUT /api/v1/pos/cart/items/{productId}
func (h *POSHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	sess, err := h.service.UpdateItemQuantity(r.Context(), terminalID(r), chi.URLParam(r, "productId"), *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toSessionResponse(sess)})
}

// RemoveItem handles DELETE /api/v1/pos/cart/items/{productId}
func (h *POSHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.RemoveItem(r.Context(), terminalID(r), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toSessionResponse(sess)})
}

// SelectPaymentMethod handles PUT /api/v1/pos/payment-method
func (h *POSHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req PaymentMethodRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	sess, err := h.service.SelectPaymentMethod(r.Context(), terminalID(r), req.PaymentMethod)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toSessionResponse(sess)})
}

// ProcessSale handles POST /api/v1/pos/sale
//
// Cash and card answer 200 with the completed sale. Mobile answers 202 with
// the pending payment; the sale completes on POST /api/v1/pos/sale/confirm.
func (h *POSHandler) ProcessSale(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ProcessSale(r.Context(), terminalID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if !out.Result.Outcome.Completed() {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, httputil.Response{
		Data:    toSaleResponse(out),
		Message: out.Result.Notification.Title,
	})
}

// ConfirmMobilePayment handles POST /api/v1/pos/sale/confirm
func (h *POSHandler) ConfirmMobilePayment(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ConfirmMobilePayment(r.Context(), terminalID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data:    toSaleResponse(out),
		Message: out.Result.Notification.Title,
	})
}
