package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellknownalpha/bloom-pos/internal/assistant"
	"github.com/wellknownalpha/bloom-pos/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewApp_InMemoryServesRequests(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)

	a, err := NewApp(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(a.closeAll)

	assert.Nil(t, a.pool)
	assert.Nil(t, a.rdb)
	assert.Nil(t, a.producer)

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitAssistant_SelectsProvider(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"ASSISTANT_PROVIDER": "gemini",
		"GOOGLE_API_KEY":     "test-key",
	})
	require.NoError(t, err)

	a := &App{cfg: cfg, logger: testLogger()}
	s, err := a.initAssistant()
	require.NoError(t, err)
	assert.IsType(t, &assistant.Gemini{}, s)

	cfg.AssistantProvider = config.ProviderMock
	s, err = a.initAssistant()
	require.NoError(t, err)
	assert.IsType(t, assistant.Mock{}, s)
}
