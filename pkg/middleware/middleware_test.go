package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellknownalpha/bloom-pos/pkg/logger"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Recovery ---

func TestRecovery_ReturnsInternalError(t *testing.T) {
	h := Recovery(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("vase shattered")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, rec.Body.String(), "vase shattered")
}

// --- RequestLogging / RequestLogger ---

func TestRequestLogging_PropagatesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("test", "info", &buf)

	var seen string
	h := RequestLogging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/session", nil)
	req.Header.Set(HeaderCorrelationID, "corr-1")
	req.Header.Set(HeaderTerminalID, "till-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-1", seen)
	assert.Equal(t, "corr-1", rec.Header().Get(HeaderCorrelationID))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, "till-1", line["terminal_id"])
}

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	h := RequestLogging(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, rec.Header().Get(HeaderCorrelationID), 36)
}

func TestRequestLogger_StoresEnrichedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("test", "info", &buf)

	h := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "till-7", logger.TerminalIDFromContext(r.Context()))
		logger.FromContext(r.Context()).Info("inside")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderTerminalID, "till-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "till-7", line["terminal_id"])
}

// --- PrometheusMetrics ---

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-test"))
	r.Get("/api/v1/inventory/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/inventory/42", nil))

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-test", "GET", "/api/v1/inventory/{id}", "404"))
	assert.Equal(t, float64(1), got)
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("duration-test"))
	r.Post("/api/v1/pos/sale", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/pos/sale", nil))
	}

	hist, ok := httpRequestDuration.WithLabelValues("duration-test", "POST", "/api/v1/pos/sale").(prometheus.Histogram)
	require.True(t, ok)

	var m dto.Metric
	require.NoError(t, hist.Write(&m))
	require.NotNil(t, m.GetHistogram())
	assert.Equal(t, uint64(3), m.GetHistogram().GetSampleCount())
	assert.Zero(t, testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("duration-test")))
}

// --- CORS ---

func TestCORS_Preflight(t *testing.T) {
	h := CORS(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/pos/sale", nil)
	req.Header.Set("Origin", "http://till.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), HeaderTerminalID)
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"https://shop.example"}})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// --- IPAllowlist ---

func TestIPAllowlist(t *testing.T) {
	h := IPAllowlist([]string{"127.0.0.0/8", "not-a-cidr"}, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:5555", http.StatusOK},
		{"10.1.2.3:5555", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
		req.RemoteAddr = tt.remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, tt.remote)
	}
}

// --- Cache headers ---

func TestCacheControl(t *testing.T) {
	h := CacheControl(30)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "public, max-age=30", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestNoStore(t *testing.T) {
	h := NoStore()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
