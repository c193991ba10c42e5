package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapters "insight/internal/adapters/analysis"
	"insight/internal/adapters/analysis/azure"
	domain "insight/internal/domain/analysis"
	service "insight/internal/services/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

type fakeAnalyzer struct {
	got  service.Request
	resp *service.Response
	err  error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req service.Request) (*service.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(t *testing.T, a Analyzer, maxBody int64, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(Route, NewHandler(a, maxBody, logger.Nop()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	return rec
}

func TestServeHTTP_Success(t *testing.T) {
	a := &fakeAnalyzer{resp: &service.Response{
		CallID:  "call-1",
		Records: []domain.Record{{"index": 0, "sentiment": "POSITIVE"}},
		Dropped: []int{2},
		Retried: true,
	}}

	rec := serve(t, a, 0, "/v1/analysis/aws/sentiment",
		`{"credentials":{"key":"ak","secret":"sk"},"input":["a","b","c"],"options":{"region":"eu-west-1","maxLabels":5}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "aws", a.got.Provider)
	assert.Equal(t, domain.CapabilitySentiment, a.got.Capability)
	assert.Equal(t, "ak", a.got.Credentials.Key)
	assert.Equal(t, "sk", a.got.Credentials.Secret)
	assert.Equal(t, []any{"a", "b", "c"}, a.got.Input)
	assert.Equal(t, "eu-west-1", a.got.Options["region"])
	assert.Equal(t, json.Number("5"), a.got.Options["maxLabels"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "call-1", body["callId"])
	assert.Equal(t, true, body["retried"])
	assert.Equal(t, []any{float64(2)}, body["dropped"])
	assert.Len(t, body["records"], 1)
}

func TestServeHTTP_ImageBase64(t *testing.T) {
	a := &fakeAnalyzer{resp: &service.Response{Records: []domain.Record{}, Dropped: []int{}}}

	rec := serve(t, a, 0, "/v1/analysis/azure/vision", `{"imageBase64":"aGVsbG8="}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("hello"), a.got.Input)
	assert.Equal(t, domain.CapabilityVision, a.got.Capability)
}

func TestServeHTTP_ImageBase64OnTextCapability(t *testing.T) {
	a := &fakeAnalyzer{}

	rec := serve(t, a, 0, "/v1/analysis/azure/entities", `{"imageBase64":"aGVsbG8="}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), service.KindInvalidInput)
}

func TestServeHTTP_InvalidBase64(t *testing.T) {
	rec := serve(t, &fakeAnalyzer{}, 0, "/v1/analysis/aws/vision", `{"imageBase64":"%%%"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeHTTP_UnknownCapability(t *testing.T) {
	a := &fakeAnalyzer{}

	rec := serve(t, a, 0, "/v1/analysis/aws/translate", `{"input":"x"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), service.KindNotFound)
	assert.Empty(t, a.got.Provider)
}

func TestServeHTTP_MalformedBody(t *testing.T) {
	rec := serve(t, &fakeAnalyzer{}, 0, "/v1/analysis/aws/entities", `{"input":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeHTTP_BodyTooLarge(t *testing.T) {
	body := `{"input":"` + strings.Repeat("x", 256) + `"}`
	rec := serve(t, &fakeAnalyzer{}, 64, "/v1/analysis/aws/entities", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle(Route, NewHandler(&fakeAnalyzer{}, 0, logger.Nop()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analysis/aws/entities", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeHTTP_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"input kind", errors.NewInputKindError(42, ""), http.StatusBadRequest, service.KindUnsupportedInputKind},
		{"option", errors.NewOptionError("maxLabels", "expected an integer", "x"), http.StatusBadRequest, service.KindInvalidOption},
		{"validation", errors.NewValidationError("text", "required", nil), http.StatusBadRequest, service.KindInvalidInput},
		{"transport", errors.NewTransportError("BatchDetectEntities", 503, errors.New("unavailable")), http.StatusBadGateway, service.KindTransportFailure},
		{"provider", errors.Wrapf(errors.ErrNotFound, "provider %s", "gcp"), http.StatusNotFound, service.KindNotFound},
		{"capability", errors.Wrap(errors.ErrUnsupportedCapability, "azure"), http.StatusNotImplemented, service.KindUnsupportedCapability},
		{"internal", errors.New("boom"), http.StatusInternalServerError, service.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeAnalyzer{err: tt.err}, 0, "/v1/analysis/aws/entities", `{"input":"x"}`)

			assert.Equal(t, tt.code, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Kind)
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestServeHTTP_NumericDocumentIDs(t *testing.T) {
	var posted []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/text/analytics/v2.1/sentiment", r.URL.Path)
		posted, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"documents":[{"id":"5","score":0.9}],"errors":[]}`))
	}))
	defer upstream.Close()

	registry := adapters.NewRegistry(logger.Nop())
	require.NoError(t, registry.Register(azure.Name, adapters.AzureConstructor()))
	svc := service.NewService(registry, nil, nil, logger.Nop())

	rec := serve(t, svc, 0, "/v1/analysis/azure/sentiment",
		`{"credentials":{"url":"`+upstream.URL+`","key":"k"},"input":[{"id":5,"text":"x"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sent struct {
		Documents []map[string]any `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(posted, &sent))
	require.Len(t, sent.Documents, 1)
	assert.Equal(t, "5", sent.Documents[0]["id"])

	var body struct {
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, "5", body.Records[0]["id"])
}

func TestServeHTTP_UnsupportedDocumentID(t *testing.T) {
	registry := adapters.NewRegistry(logger.Nop())
	require.NoError(t, registry.Register(azure.Name, adapters.AzureConstructor()))
	svc := service.NewService(registry, nil, nil, logger.Nop())

	rec := serve(t, svc, 0, "/v1/analysis/azure/sentiment",
		`{"credentials":{"url":"https://example.invalid","key":"k"},"input":[{"id":true,"text":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
