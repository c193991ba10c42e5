package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	adapters "insight/internal/adapters/analysis"
	"insight/internal/adapters/analysis/retry"
	domain "insight/internal/domain/analysis"
	"insight/internal/events"
	"insight/internal/metrics"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// ProviderFactory creates a provider for one call
type ProviderFactory interface {
	New(name string, creds adapters.Credentials) (adapters.Provider, error)
}

// Request is one analysis call
type Request struct {
	Provider    string
	Capability  domain.Capability
	Credentials adapters.Credentials
	Input       any
	Options     map[string]any
}

// Response is the caller-facing result of a call
type Response struct {
	CallID  string          `json:"callId"`
	Records []domain.Record `json:"records"`
	Dropped []int           `json:"dropped"`
	Retried bool            `json:"retried"`
}

// Option customizes the service
type Option func(*Service)

// WithFallbackCredentials sets credentials used when a request carries none
func WithFallbackCredentials(provider string, creds adapters.Credentials) Option {
	return func(s *Service) {
		if !creds.IsZero() {
			s.fallback[provider] = creds
		}
	}
}

// WithCapabilityFallback sets credentials for one capability of a provider.
// They take precedence over the provider-wide fallback.
func WithCapabilityFallback(provider string, capability domain.Capability, creds adapters.Credentials) Option {
	return func(s *Service) {
		if !creds.IsZero() {
			s.fallback[provider+"/"+capability.String()] = creds
		}
	}
}

// Service orchestrates analysis calls: provider creation, dispatch,
// metrics, diagnostics events and error tracking. It keeps no call state.
type Service struct {
	factory   ProviderFactory
	publisher events.Publisher
	tracker   errors.Tracker
	fallback  map[string]adapters.Credentials
	log       *logger.Logger
}

// NewService creates a new analysis service
func NewService(factory ProviderFactory, publisher events.Publisher, tracker errors.Tracker, log *logger.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	s := &Service{
		factory:   factory,
		publisher: publisher,
		tracker:   tracker,
		fallback:  make(map[string]adapters.Credentials),
		log:       log.With("component", "analysis_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs one call end to end. Units that fail both dispatches are
// listed in Response.Dropped and do not produce an error.
func (s *Service) Analyze(ctx context.Context, req Request) (*Response, error) {
	callID := uuid.NewString()
	ctx = errors.WithCallID(ctx, callID)
	start := time.Now()

	log := s.log.With(
		"call_id", callID,
		"provider", req.Provider,
		"capability", req.Capability.String(),
	)

	result, units, err := s.invoke(ctx, req)
	duration := time.Since(start)
	metrics.RecordCall(req.Provider, req.Capability.String(), duration, err)

	event := events.NewCallCompleted(callID, req.Provider, req.Capability.String())
	event.Units = units
	event.DurationMs = duration.Milliseconds()
	if err != nil {
		event.Error = err.Error()
		event.ErrorKind = ErrorKind(err)
	} else {
		event.Records = len(result.Records)
		if result.Dropped != nil {
			event.Dropped = result.Dropped
		}
		event.Retried = result.Retried
	}
	if pubErr := s.publisher.PublishCallCompleted(ctx, event); pubErr != nil {
		log.Warnw("Failed to publish call event", "error", pubErr)
	}

	if err != nil {
		s.report(ctx, log, req, err)
		return nil, err
	}

	log.Infow("Analysis call complete",
		"records", len(result.Records),
		"dropped", len(result.Dropped),
		"retried", result.Retried,
		"duration", duration,
	)

	resp := &Response{
		CallID:  callID,
		Records: result.Records,
		Dropped: result.Dropped,
		Retried: result.Retried,
	}
	if resp.Records == nil {
		resp.Records = []domain.Record{}
	}
	if resp.Dropped == nil {
		resp.Dropped = []int{}
	}
	return resp, nil
}

func (s *Service) invoke(ctx context.Context, req Request) (*retry.Result, int, error) {
	creds := req.Credentials
	if creds.IsZero() {
		var ok bool
		if creds, ok = s.fallback[req.Provider+"/"+req.Capability.String()]; !ok {
			creds = s.fallback[req.Provider]
		}
	}

	provider, err := s.factory.New(req.Provider, creds)
	if err != nil {
		return nil, 0, err
	}

	if s.tracker != nil {
		s.tracker.AddBreadcrumb(ctx, "dispatch", "analysis", errors.LevelInfo, map[string]interface{}{
			"provider":   req.Provider,
			"capability": req.Capability.String(),
		})
	}

	result, err := adapters.Invoke(ctx, provider, req.Capability, req.Input, req.Options)
	if err != nil {
		return nil, countUnits(req), err
	}
	return result, countUnits(req), nil
}

// countUnits reports the unit count for diagnostics. Invalid input counts zero.
func countUnits(req Request) int {
	if !req.Capability.IsText() {
		if _, err := domain.NormalizeImage(req.Input); err != nil {
			return 0
		}
		return 1
	}
	units, err := domain.NormalizeText(req.Input)
	if err != nil {
		return 0
	}
	return len(units)
}

// report sends provider-side failures to the error tracker. Caller mistakes
// are logged at warn level only.
func (s *Service) report(ctx context.Context, log *logger.Logger, req Request, err error) {
	kind := ErrorKind(err)
	if !IsCallerError(err) {
		log.Errorw("Analysis call failed", "kind", kind, "error", err)
		if s.tracker != nil {
			_ = s.tracker.CaptureError(ctx, err, map[string]string{
				"provider":   req.Provider,
				"capability": req.Capability.String(),
				"kind":       kind,
			})
		}
		return
	}
	log.Warnw("Analysis call rejected", "kind", kind, "error", err)
}
