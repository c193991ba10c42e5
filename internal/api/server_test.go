package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apianalysis "insight/internal/api/analysis"
	"insight/internal/api/health"
	domain "insight/internal/domain/analysis"
	"insight/internal/metrics"
	service "insight/internal/services/analysis"
	"insight/pkg/logger"
)

type echoAnalyzer struct{}

func (echoAnalyzer) Analyze(_ context.Context, req service.Request) (*service.Response, error) {
	return &service.Response{
		CallID:  "c1",
		Records: []domain.Record{{"provider": req.Provider}},
		Dropped: []int{},
	}, nil
}

func newTestServer() *Server {
	log := logger.Nop()
	return NewServer(ServerConfig{
		ServiceName:     "insight",
		Version:         "test",
		AnalysisHandler: apianalysis.NewHandler(echoAnalyzer{}, 1<<20, log),
	}, health.New(log, "insight", "test", nil), log)
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer().Handler()

	tests := []struct {
		method string
		path   string
		body   string
		code   int
		want   string
	}{
		{http.MethodGet, "/", "", http.StatusOK, `"service":"insight"`},
		{http.MethodGet, "/live", "", http.StatusOK, "alive"},
		{http.MethodGet, "/ready", "", http.StatusOK, "healthy"},
		{http.MethodGet, "/health", "", http.StatusOK, "healthy"},
		{http.MethodGet, "/nope", "", http.StatusNotFound, ""},
		{http.MethodPost, "/v1/analysis/aws/entities", `{"input":"x"}`, http.StatusOK, `"provider":"aws"`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.code, rec.Code)
			if tt.want != "" {
				assert.Contains(t, rec.Body.String(), tt.want)
			}
		})
	}
}

func TestServer_RecordsRequestMetrics(t *testing.T) {
	h := newTestServer().Handler()
	counter := metrics.HTTPRequests.WithLabelValues(apianalysis.Route, http.StatusText(http.StatusNotFound))
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analysis/aws/translate", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestServer_MetricsRouteIsCounted(t *testing.T) {
	h := newTestServer().Handler()
	counter := metrics.HTTPRequests.WithLabelValues("/metrics", http.StatusText(http.StatusOK))
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "insight_http_requests_total")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	s := newTestServer()
	require.NoError(t, s.Shutdown(context.Background()))
}
