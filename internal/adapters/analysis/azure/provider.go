package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"insight/internal/adapters/analysis/retry"
	"insight/internal/domain/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// Name is the provider identifier used in routes, metrics and events.
const Name = "azure"

const (
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
	maxErrorBodyBytes     = 4 << 10
	maxResponseBytes      = 16 << 20
)

// Config configures the Azure provider for one call.
type Config struct {
	BaseURL string
	Key     string

	// HTTPClient replaces the per-call client built from the timeout options.
	HTTPClient *http.Client
}

// Option customizes the provider.
type Option func(*Provider)

// WithDefaults replaces the option defaults callers overlay.
func WithDefaults(defaults analysis.Options) Option {
	return func(p *Provider) {
		p.defaults = defaults
	}
}

// Provider runs analysis against Cognitive Services Text Analytics and
// Computer Vision endpoints.
type Provider struct {
	baseURL    string
	key        string
	httpClient *http.Client
	defaults   analysis.Options
	log        *logger.Logger
}

// DefaultOptions returns the Azure option defaults.
func DefaultOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	opts.VisionOperation = analysis.VisionAnalyze
	return opts
}

// NewProvider creates a new Azure provider.
func NewProvider(cfg Config, log *logger.Logger, opts ...Option) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewValidationError("url", "azure endpoint url is required", cfg.BaseURL)
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewValidationError("url", "azure endpoint url must be absolute", cfg.BaseURL)
	}
	if cfg.Key == "" {
		return nil, errors.NewValidationError("key", "azure subscription key is required", nil)
	}

	p := &Provider{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		key:        cfg.Key,
		httpClient: cfg.HTTPClient,
		defaults:   DefaultOptions(),
		log:        log.With("component", "azure_provider", "host", u.Host),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) Entities(ctx context.Context, input any, options map[string]any) (*retry.Result, error) {
	return p.analyzeText(ctx, analysis.CapabilityEntities, input, options)
}

func (p *Provider) Sentiment(ctx context.Context, input any, options map[string]any) (*retry.Result, error) {
	return p.analyzeText(ctx, analysis.CapabilitySentiment, input, options)
}

func (p *Provider) KeyPhrases(ctx context.Context, input any, options map[string]any) (*retry.Result, error) {
	return p.analyzeText(ctx, analysis.CapabilityKeyPhrases, input, options)
}

func (p *Provider) Vision(ctx context.Context, input any, options map[string]any) (*retry.Result, error) {
	unit, err := analysis.NormalizeImage(input)
	if err != nil {
		return nil, err
	}
	opts, err := analysis.Resolve(p.defaults, options)
	if err != nil {
		return nil, err
	}
	endpoint, err := lookupVisionEndpoint(opts.VisionOperation)
	if err != nil {
		return nil, err
	}

	d := &visionDispatcher{
		provider: p,
		client:   p.client(opts),
		endpoint: endpoint,
		opts:     opts,
	}
	exec := retry.New(retry.Config{Provider: Name, Capability: analysis.CapabilityVision}, p.log)
	return exec.Execute(ctx, d, []analysis.Unit{unit})
}

func (p *Provider) analyzeText(ctx context.Context, capability analysis.Capability, input any, options map[string]any) (*retry.Result, error) {
	units, err := analysis.NormalizeText(input)
	if err != nil {
		return nil, err
	}
	opts, err := analysis.Resolve(p.defaults, options)
	if err != nil {
		return nil, err
	}
	path, ok := textPaths[capability]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnsupportedCapability, "azure: %s", capability)
	}

	// documents carry a language only when the caller asked for one
	var language string
	if v, ok := options[analysis.OptLanguage]; ok && v != nil {
		language = opts.Language
	}

	d := &documentsDispatcher{
		provider: p,
		client:   p.client(opts),
		path:     path,
		language: language,
	}
	exec := retry.New(retry.Config{Provider: Name, Capability: capability}, p.log)
	return exec.Execute(ctx, d, units)
}

func (p *Provider) client(opts analysis.Options) *http.Client {
	if p.httpClient != nil {
		return p.httpClient
	}
	return &http.Client{
		Timeout: opts.RequestTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: opts.ConnectionTimeout}).DialContext,
			TLSHandshakeTimeout: opts.ConnectionTimeout,
		},
	}
}

// post sends body to path and returns the response body. Network errors,
// timeouts and non-2xx statuses are transport failures.
func (p *Provider) post(ctx context.Context, client *http.Client, path string, query url.Values, contentType string, body []byte) ([]byte, error) {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(subscriptionKeyHeader, p.key)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(path, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, errors.NewTransportError(path, resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(snippet))))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewTransportError(path, resp.StatusCode, err)
	}

	p.log.Debugw("Azure request complete",
		"path", path,
		"sent", humanize.Bytes(uint64(len(body))),
		"received", humanize.Bytes(uint64(len(data))),
		"duration", time.Since(start),
	)
	return data, nil
}

// documentsDispatcher posts text units as one documents array. The service
// reports per-document errors, but these are not retried.
type documentsDispatcher struct {
	provider *Provider
	client   *http.Client
	path     string
	language string
}

func (d *documentsDispatcher) SupportsPartialFailureSignal() bool {
	return false
}

func (d *documentsDispatcher) Dispatch(ctx context.Context, units []analysis.Unit) (*analysis.BatchOutcome, error) {
	req, ordinals, err := buildDocuments(units, d.language)
	if err != nil {
		return nil, err
	}
	body, err := encodeJSON(req)
	if err != nil {
		return nil, err
	}

	data, err := d.provider.post(ctx, d.client, d.path, nil, contentTypeJSON, body)
	if err != nil {
		return nil, err
	}

	outcome, docErrors, err := parseDocuments(data, ordinals)
	if err != nil {
		return nil, errors.NewTransportError(d.path, http.StatusOK, err)
	}
	for _, e := range docErrors {
		d.provider.log.Warnw("Document rejected",
			"id", e.ID,
			"message", e.Message,
		)
	}
	return outcome, nil
}

// visionDispatcher posts one image to a Computer Vision operation.
type visionDispatcher struct {
	provider *Provider
	client   *http.Client
	endpoint visionEndpoint
	opts     analysis.Options
}

func (d *visionDispatcher) SupportsPartialFailureSignal() bool {
	return false
}

func (d *visionDispatcher) Dispatch(ctx context.Context, units []analysis.Unit) (*analysis.BatchOutcome, error) {
	outcome := &analysis.BatchOutcome{}
	for _, u := range units {
		body, contentType, err := buildVisionBody(u)
		if err != nil {
			return nil, err
		}
		data, err := d.provider.post(ctx, d.client, d.endpoint.path, d.endpoint.query(d.opts), contentType, body)
		if err != nil {
			return nil, err
		}
		record, err := parseVision(data)
		if err != nil {
			return nil, errors.NewTransportError(d.endpoint.path, http.StatusOK, err)
		}
		outcome.Succeeded = append(outcome.Succeeded, analysis.Item{Ordinal: u.Ordinal, Record: record})
	}
	return outcome, nil
}
