package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wellknownalpha/bloom-pos/internal/service"
	"github.com/wellknownalpha/bloom-pos/pkg/httputil"
	"github.com/wellknownalpha/bloom-pos/pkg/validator"
)

// CustomerHandler handles HTTP requests for customer endpoints.
type CustomerHandler struct {
	service *service.CustomerService
	logger  *slog.Logger
}

// NewCustomerHandler creates a new customer HTTP handler.
func NewCustomerHandler(svc *service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{service: svc, logger: logger}
}

// CustomerRequest is the JSON body for creating or updating a customer.
type CustomerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Preferences string `json:"preferences"`
}

func (req CustomerRequest) input() service.CustomerInput {
	return service.CustomerInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Preferences: req.Preferences,
	}
}

// List handles GET /api/v1/customers?search=
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: customers})
}

// Get handles GET /api/v1/customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: customer})
}

// Create handles POST /api/v1/customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data:    customer,
		Message: fmt.Sprintf("%s has been added.", customer.Name),
	})
}

// Update handles PUT /api/v1/customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	customer, err := h.service.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data:    customer,
		Message: fmt.Sprintf("%s's details have been updated.", customer.Name),
	})
}

// Delete handles DELETE /api/v1/customers/{id}
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.DeleteCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data:    customer,
		Message: fmt.Sprintf("%s has been removed.", customer.Name),
	})
}
