package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wellknownalpha/bloom-pos/internal/service"
	"github.com/wellknownalpha/bloom-pos/pkg/health"
	"github.com/wellknownalpha/bloom-pos/pkg/middleware"
)

const serviceName = "bloom-pos"

// Services groups the business services the router exposes.
type Services struct {
	Checkout    *service.CheckoutService
	Inventory   *service.InventoryService
	Customers   *service.CustomerService
	Suggestions *service.SuggestionService
	Dashboard   *service.DashboardService
}

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	RequestTimeout     time.Duration
	CORSAllowedOrigins []string
	CatalogCacheMaxAge int
	PprofCIDRs         []string
}

// NewRouter creates a chi router with all Bloom POS routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins}))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	inventoryHandler := NewInventoryHandler(svcs.Inventory, logger)
	customerHandler := NewCustomerHandler(svcs.Customers, logger)
	posHandler := NewPOSHandler(svcs.Checkout, logger)
	suggestionHandler := NewSuggestionHandler(svcs.Suggestions, logger)
	dashboardHandler := NewDashboardHandler(svcs.Dashboard, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/inventory", func(r chi.Router) {
			if cfg.CatalogCacheMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CatalogCacheMaxAge))
			}
			r.Get("/", inventoryHandler.List)
			r.Post("/", inventoryHandler.Create)
			r.Get("/{id}", inventoryHandler.Get)
			r.Put("/{id}", inventoryHandler.Update)
			r.Delete("/{id}", inventoryHandler.Delete)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customerHandler.List)
			r.Post("/", customerHandler.Create)
			r.Get("/{id}", customerHandler.Get)
			r.Put("/{id}", customerHandler.Update)
			r.Delete("/{id}", customerHandler.Delete)
		})

		r.Route("/pos", func(r chi.Router) {
			r.Use(middleware.NoStore())
			r.Use(RequireTerminalID)

			r.Get("/session", posHandler.GetSession)
			r.Post("/cart/items", posHandler.AddItem)
			r.Put("/cart/items/{productId}", posHandler.UpdateItemQuantity)
			r.Delete("/cart/items/{productId}", posHandler.RemoveItem)
			r.Put("/payment-method", posHandler.SelectPaymentMethod)
			r.Post("/sale", posHandler.ProcessSale)
			r.Post("/sale/confirm", posHandler.ConfirmMobilePayment)
		})

		r.Post("/suggestions", suggestionHandler.Suggest)
		r.Get("/dashboard", dashboardHandler.Get)
	})

	return r
}
