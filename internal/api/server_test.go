// internal/api/server_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newthinker/augur/internal/api/response"
	"github.com/newthinker/augur/internal/app"
	"github.com/newthinker/augur/internal/metrics"
)

func newTestServer(t *testing.T, apiKey string, reg *metrics.Registry) *Server {
	t.Helper()
	srv, err := NewServer(Config{
		Host:    "localhost",
		Port:    0,
		APIKey:  apiKey,
		MaxJobs: 10,
		JobTTL:  time.Hour,
	}, Dependencies{
		Backend: app.NewPipeline(app.Deps{Metrics: reg}, app.Config{}, nil),
		Metrics: reg,
	}, zap.NewNop())
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, "secret", nil)

	w := serve(srv, "GET", "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data.(map[string]any)["status"])
}

func TestServer_NilBackend(t *testing.T) {
	_, err := NewServer(Config{}, Dependencies{}, nil)
	assert.Error(t, err)
}

func TestServer_APIRequiresKey(t *testing.T) {
	srv := newTestServer(t, "secret", nil)

	w := serve(srv, "GET", "/api/v1/model-performance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(srv, "GET", "/api/v1/model-performance", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t, "", nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"POST", "/api/v1/signals/process", `{"strike":22500,"type":"PE","signal":"S3","action":"Entry"}`, http.StatusOK},
		{"POST", "/api/v1/signals/process", `{"strike":0,"type":"PE","signal":"S3"}`, http.StatusBadRequest},
		{"GET", "/api/v1/signals/recent", "", http.StatusOK},
		{"GET", "/api/v1/model-performance", "", http.StatusOK},
		{"POST", "/api/v1/models/train", `{"from":"2025-02-01","to":"2025-03-01"}`, http.StatusAccepted},
		{"GET", "/api/v1/jobs/missing", "", http.StatusNotFound},
		{"GET", "/api/v1/sentiment?symbol=NIFTY", "", http.StatusOK},
		{"POST", "/api/v1/patterns", `{"strike":22500,"type":"PE","signal":"S3"}`, http.StatusOK},
		{"GET", "/api/v1/dashboard", "", http.StatusOK},
		{"GET", "/api/v1/signals/process", "", http.StatusMethodNotAllowed},
		{"GET", "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(srv, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestServer_TrainJobLifecycle(t *testing.T) {
	srv := newTestServer(t, "", nil)

	w := serve(srv, "POST", "/api/v1/models/train", `{"from":"2025-02-01","to":"2025-03-01"}`, nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	id := resp.Data.(map[string]any)["job_id"].(string)

	require.Eventually(t, func() bool {
		w := serve(srv, "GET", "/api/v1/jobs/"+id, "", nil)
		return strings.Contains(w.Body.String(), `"status":"failed"`)
	}, 2*time.Second, 10*time.Millisecond, "empty trade log should fail training")

	w = serve(srv, "GET", "/api/v1/jobs/"+id, "", nil)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_TRAINING_DATA")
}

func TestServer_Metrics(t *testing.T) {
	reg := metrics.NewRegistry()
	srv := newTestServer(t, "", reg)

	serve(srv, "POST", "/api/v1/signals/process", `{"strike":22500,"type":"PE","signal":"S3","action":"Entry"}`, nil)
	w := serve(srv, "GET", "/metrics", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "augur_signals_processed_total")
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestServer_NoMetricsRoute(t *testing.T) {
	srv := newTestServer(t, "", nil)

	w := serve(srv, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
