package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wellknownalpha/bloom-pos/internal/service"
	"github.com/wellknownalpha/bloom-pos/pkg/httputil"
	"github.com/wellknownalpha/bloom-pos/pkg/validator"
)

// InventoryHandler handles HTTP requests for inventory endpoints.
type InventoryHandler struct {
	service *service.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory HTTP handler.
func NewInventoryHandler(svc *service.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{service: svc, logger: logger}
}

// ProductRequest is the JSON body for creating or replacing an inventory
// item. Field rules are checked by the service so the messages match the
// inventory form.
type ProductRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	StockLevel  int             `json:"stock_level"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
}

func (req ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Category:    req.Category,
		UnitPrice:   req.UnitPrice,
		StockLevel:  req.StockLevel,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
}

// List handles GET /api/v1/inventory?search=
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toProductResponses(products)})
}

// Get handles GET /api/v1/inventory/{id}
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toProductResponse(product)})
}

// Create handles POST /api/v1/inventory
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data:    toProductResponse(product),
		Message: fmt.Sprintf("%s has been added to inventory.", product.Name),
	})
}

// Update handles PUT /api/v1/inventory/{id}
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data:    toProductResponse(product),
		Message: fmt.Sprintf("%s has been updated.", product.Name),
	})
}

// Delete handles DELETE /api/v1/inventory/{id}
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data:    toProductResponse(product),
		Message: fmt.Sprintf("%s has been removed from inventory.", product.Name),
	})
}
