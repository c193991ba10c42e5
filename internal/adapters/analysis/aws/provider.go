package aws

import (
	"context"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"github.com/aws/aws-sdk-go/service/comprehend/comprehendiface"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"

	"insight/internal/adapters/analysis/fetch"
	"insight/internal/adapters/analysis/retry"
	"insight/internal/domain/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// Name is the provider identifier used in routes, metrics and events.
const Name = "aws"

// Config configures the AWS provider for one call.
type Config struct {
	AccessKey string
	SecretKey string

	// Endpoint overrides the service endpoint, e.g. for a local stack.
	Endpoint string
}

// Option customizes the provider.
type Option func(*Provider)

// WithComprehendAPI replaces the session-backed Comprehend client.
func WithComprehendAPI(api comprehendiface.ComprehendAPI) Option {
	return func(p *Provider) {
		p.comprehend = func(analysis.Options) (comprehendiface.ComprehendAPI, error) { return api, nil }
	}
}

// WithRekognitionAPI replaces the session-backed Rekognition client.
func WithRekognitionAPI(api rekognitioniface.RekognitionAPI) Option {
	return func(p *Provider) {
		p.rekognition = func(analysis.Options) (rekognitioniface.RekognitionAPI, error) { return api, nil }
	}
}

// WithFetcher sets how image URLs are downloaded.
func WithFetcher(f ImageFetcher) Option {
	return func(p *Provider) {
		p.fetcher = f
	}
}

// WithDefaults replaces the option defaults callers overlay.
func WithDefaults(defaults analysis.Options) Option {
	return func(p *Provider) {
		p.defaults = defaults
	}
}

// Provider runs analysis on Comprehend (text) and Rekognition (vision).
// It is built per call and holds only call-scoped values.
type Provider struct {
	cfg      Config
	defaults analysis.Options
	fetcher  ImageFetcher
	log      *logger.Logger

	comprehend  func(opts analysis.Options) (comprehendiface.ComprehendAPI, error)
	rekognition func(opts analysis.Options) (rekognitioniface.RekognitionAPI, error)
}

// DefaultOptions returns the AWS option defaults.
func DefaultOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	opts.VisionOperation = analysis.VisionDetectLabels
	return opts
}

// NewProvider creates a new AWS provider.
func NewProvider(cfg Config, log *logger.Logger, opts ...Option) (*Provider, error) {
	if cfg.AccessKey == "" && cfg.SecretKey != "" {
		return nil, errors.NewValidationError("accessKey", "access key required when secret key provided", nil)
	}
	if cfg.SecretKey == "" && cfg.AccessKey != "" {
		return nil, errors.NewValidationError("secretKey", "secret key required when access key provided", nil)
	}

	p := &Provider{
		cfg:      cfg,
		defaults: DefaultOptions(),
		log:      log.With("component", "aws_provider"),
	}
	p.comprehend = func(o analysis.Options) (comprehendiface.ComprehendAPI, error) {
		sess, err := p.session(o)
		if err != nil {
			return nil, err
		}
		return comprehend.New(sess), nil
	}
	p.rekognition = func(o analysis.Options) (rekognitioniface.RekognitionAPI, error) {
		sess, err := p.session(o)
		if err != nil {
			return nil, err
		}
		return rekognition.New(sess), nil
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = fetch.New(fetch.Config{}, log)
	}

	return p, nil
}

func (p *Provider) Name() string {
	return Name
}

// session builds an SDK session from call credentials and options.
// SDK retries are off; the retry executor owns retry policy.
func (p *Provider) session(opts analysis.Options) (*session.Session, error) {
	if p.cfg.AccessKey == "" || p.cfg.SecretKey == "" {
		return nil, errors.NewValidationError("credentials", "aws access key and secret key are required", nil)
	}

	httpClient := &http.Client{
		Timeout: opts.RequestTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: opts.ConnectionTimeout}).DialContext,
			TLSHandshakeTimeout: opts.ConnectionTimeout,
		},
	}

	awsCfg := &aws.Config{
		Region:      aws.String(opts.Region),
		Credentials: credentials.NewStaticCredentials(p.cfg.AccessKey, p.cfg.SecretKey, ""),
		HTTPClient:  httpClient,
		MaxRetries:  aws.Int(0),
		DisableSSL:  aws.Bool(false),
	}
	if p.cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(p.cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create aws session")
	}
	return sess, nil
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
	op, err := lookupVisionOp(opts.VisionOperation)
	if err != nil {
		return nil, err
	}
	api, err := p.rekognition(opts)
	if err != nil {
		return nil, err
	}

	d := &rekognitionDispatcher{
		api:     api,
		fetcher: p.fetcher,
		op:      op,
		opts:    opts,
		log:     p.log,
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
	if len(units) == 0 {
		return &retry.Result{Records: []analysis.Record{}, Dropped: []int{}, State: retry.StateComplete}, nil
	}
	api, err := p.comprehend(opts)
	if err != nil {
		return nil, err
	}

	d := &comprehendDispatcher{
		api:        api,
		capability: capability,
		language:   opts.Language,
		log:        p.log,
	}
	exec := retry.New(retry.Config{Provider: Name, Capability: capability}, p.log)
	return exec.Execute(ctx, d, units)
}
