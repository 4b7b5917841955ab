package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/chat-recap/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	var cfg config.Config
	cfg.Log.Level = "error"
	cfg.Analyzer.Timezone = "UTC"
	cfg.Analyzer.DateOrder = "dmy"
	cfg.Analyzer.MaxTranscriptBytes = 1 << 20

	a, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	return a
}

func TestHealthAndReadiness(t *testing.T) {
	a := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestDocsServeSpec(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])

	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/analyses")
	assert.Contains(t, paths, "/analyses/{id}/reanalyze")

	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/docs/openapi.yaml")
}

func TestAnalyzeWithoutStorage(t *testing.T) {
	a := newTestApp(t)

	transcript := "01/02/2024, 10:00 - Andi: halo\n01/02/2024, 10:01 - Budi: hai\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(transcript))
	req.Header.Set("Content-Type", "text/plain")

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			TotalMessages int `json:"totalMessages"`
			BalanceScore  int `json:"balanceScore"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Data.TotalMessages)
	assert.Equal(t, 100, body.Data.BalanceScore)

	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestNewApp_RejectsBadTimezone(t *testing.T) {
	var cfg config.Config
	cfg.Analyzer.Timezone = "Mars/Olympus"

	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}
