package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight/internal/adapters/analysis/retry"
	domain "insight/internal/domain/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

type echoProvider struct {
	calls []string
}

func (p *echoProvider) Name() string { return "echo" }

func (p *echoProvider) result(name string) (*retry.Result, error) {
	p.calls = append(p.calls, name)
	return &retry.Result{Records: []domain.Record{{"capability": name}}, State: retry.StateComplete}, nil
}

func (p *echoProvider) Entities(ctx context.Context, input any, options map[string]any) (*retry.Result, error) {
	return p.result("entities")
}

func (p *echoProvider) Sentiment(ctx context.Context, input any, options map[string]any) (*retry.Result, error) {
	return p.result("sentiment")
}

func (p *echoProvider) KeyPhrases(ctx context.Context, input any, options map[string]any) (*retry.Result, error) {
	return p.result("keyPhrases")
}

func (p *echoProvider) Vision(ctx context.Context, input any, options map[string]any) (*retry.Result, error) {
	return p.result("vision")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(logger.Nop())
	echo := &echoProvider{}

	require.NoError(t, r.Register("echo", func(Credentials, *logger.Logger) (Provider, error) { return echo, nil }))
	assert.Error(t, r.Register("echo", func(Credentials, *logger.Logger) (Provider, error) { return echo, nil }))
	assert.Error(t, r.Register("nil", nil))

	p, err := r.New("echo", Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "echo", p.Name())

	_, err = r.New("gcp", Credentials{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	assert.Equal(t, []string{"echo"}, r.Names())
}

func TestInvoke_RoutesEveryCapability(t *testing.T) {
	echo := &echoProvider{}
	for _, c := range domain.Capabilities {
		result, err := Invoke(context.Background(), echo, c, "x", nil)
		require.NoError(t, err)
		assert.Equal(t, c.String(), result.Records[0]["capability"])
	}
	assert.Equal(t, []string{"entities", "sentiment", "keyPhrases", "vision"}, echo.calls)

	_, err := Invoke(context.Background(), echo, domain.Capability("translate"), "x", nil)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedCapability))
}

func TestDefaultRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[{"id":"0","score":0.9}]}`))
	}))
	defer srv.Close()

	r := NewDefaultRegistry(logger.Nop(), "", nil)
	assert.Equal(t, []string{"aws", "azure"}, r.Names())

	p, err := r.New("azure", Credentials{URL: srv.URL, Key: "k"})
	require.NoError(t, err)

	result, err := Invoke(context.Background(), p, domain.CapabilitySentiment, "great", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.9, result.Records[0]["score"])

	_, err = r.New("azure", Credentials{Key: "k"})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = r.New("aws", Credentials{Key: "only-key"})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
