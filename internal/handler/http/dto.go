package http

import (
	"time"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/service"
)

// Money is rendered as a string with exactly two fraction digits.

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	UnitPrice   string    `json:"unit_price"`
	StockLevel  int       `json:"stock_level"`
	InStock     bool      `json:"in_stock"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		UnitPrice:   p.UnitPrice.StringFixed(2),
		StockLevel:  p.StockLevel,
		InStock:     p.InStock(),
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out
}

type cartLineResponse struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	UnitPrice  string `json:"unit_price"`
	Quantity   int    `json:"quantity"`
	StockLimit int    `json:"stock_limit"`
	Subtotal   string `json:"subtotal"`
}

func toCartLineResponses(lines []domain.CartLine) []cartLineResponse {
	out := make([]cartLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineResponse{
			ProductID:  l.ProductID,
			Name:       l.Name,
			Category:   l.Category,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			Quantity:   l.Quantity,
			StockLimit: l.StockLimit,
			Subtotal:   l.Subtotal().StringFixed(2),
		})
	}
	return out
}

type pendingPaymentResponse struct {
	AmountDue          string    `json:"amount_due"`
	Currency           string    `json:"currency"`
	PaymentURI         string    `json:"payment_uri"`
	QRCodeURL          string    `json:"qr_code_url"`
	DisplayTitle       string    `json:"display_title"`
	DisplayDescription string    `json:"display_description"`
	CreatedAt          time.Time `json:"created_at"`
}

func toPendingPaymentResponse(p *domain.PendingMobilePayment) *pendingPaymentResponse {
	if p == nil {
		return nil
	}
	return &pendingPaymentResponse{
		AmountDue:          p.AmountDue.StringFixed(2),
		Currency:           p.Currency,
		PaymentURI:         p.PaymentURI,
		QRCodeURL:          p.QRCodeURL,
		DisplayTitle:       p.DisplayTitle,
		DisplayDescription: p.DisplayDescription,
		CreatedAt:          p.CreatedAt,
	}
}

type sessionResponse struct {
	ID             string                  `json:"id"`
	TerminalID     string                  `json:"terminal_id"`
	PaymentMethod  string                  `json:"payment_method"`
	State          string                  `json:"state"`
	Lines          []cartLineResponse      `json:"lines"`
	ItemCount      int                     `json:"item_count"`
	CartTotal      string                  `json:"cart_total"`
	PendingPayment *pendingPaymentResponse `json:"pending_payment,omitempty"`
	Version        int                     `json:"version"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:             s.ID(),
		TerminalID:     s.TerminalID(),
		PaymentMethod:  string(s.PaymentMethod()),
		State:          string(s.State()),
		Lines:          toCartLineResponses(s.Lines()),
		ItemCount:      s.ItemCount(),
		CartTotal:      s.CartTotal().StringFixed(2),
		PendingPayment: toPendingPaymentResponse(s.Pending()),
		Version:        s.Version(),
		UpdatedAt:      s.UpdatedAt(),
	}
}

type saleResultResponse struct {
	Outcome        string                  `json:"outcome"`
	PaymentMethod  string                  `json:"payment_method"`
	AmountDue      string                  `json:"amount_due"`
	Confirmation   string                  `json:"confirmation,omitempty"`
	Lines          []cartLineResponse      `json:"lines"`
	PendingPayment *pendingPaymentResponse `json:"pending_payment,omitempty"`
	Notification   domain.Notification     `json:"notification"`
	CompletedAt    *time.Time              `json:"completed_at,omitempty"`
}

type saleResponse struct {
	Result  saleResultResponse `json:"result"`
	Session sessionResponse    `json:"session"`
}

func toSaleResponse(out *service.SaleOutcome) saleResponse {
	res := out.Result
	return saleResponse{
		Result: saleResultResponse{
			Outcome:        string(res.Outcome),
			PaymentMethod:  string(res.PaymentMethod),
			AmountDue:      res.AmountDue.StringFixed(2),
			Confirmation:   string(res.Confirmation),
			Lines:          toCartLineResponses(res.Lines),
			PendingPayment: toPendingPaymentResponse(res.Pending),
			Notification:   res.Notification,
			CompletedAt:    res.CompletedAt,
		},
		Session: toSessionResponse(out.Session),
	}
}

type dashboardResponse struct {
	InventoryItems    int    `json:"inventory_items"`
	StockUnits        int    `json:"stock_units"`
	LowStockItems     int    `json:"low_stock_items"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	Customers         int    `json:"customers"`
	TodaySales        string `json:"today_sales"`
	TodaySaleCount    int    `json:"today_sale_count"`
}

func toDashboardResponse(s *service.DashboardSummary) dashboardResponse {
	return dashboardResponse{
		InventoryItems:    s.InventoryItems,
		StockUnits:        s.StockUnits,
		LowStockItems:     s.LowStockItems,
		LowStockThreshold: s.LowStockThreshold,
		Customers:         s.Customers,
		TodaySales:        s.TodaySales.StringFixed(2),
		TodaySaleCount:    s.TodaySaleCount,
	}
}
