package analysis

import (
	"context"

	"insight/internal/adapters/analysis/retry"
	domain "insight/internal/domain/analysis"
)

// Provider is the uniform capability contract every analysis backend satisfies.
//
// input is caller-shaped (string, list, index-keyed mapping, image reference)
// and options is the raw option map; both are normalized by the provider.
type Provider interface {
	Name() string

	Entities(ctx context.Context, input any, options map[string]any) (*retry.Result, error)
	Sentiment(ctx context.Context, input any, options map[string]any) (*retry.Result, error)
	KeyPhrases(ctx context.Context, input any, options map[string]any) (*retry.Result, error)
	Vision(ctx context.Context, input any, options map[string]any) (*retry.Result, error)
}

// Credentials are passed explicitly on every call and never cached.
// AWS uses Key and Secret; Azure uses URL and Key.
type Credentials struct {
	Key    string `json:"key"`
	Secret string `json:"secret,omitempty"`
	URL    string `json:"url,omitempty"`
}

// IsZero reports whether no credential field is set
func (c Credentials) IsZero() bool {
	return c.Key == "" && c.Secret == "" && c.URL == ""
}

// Invoke runs capability on p.
func Invoke(ctx context.Context, p Provider, capability domain.Capability, input any, options map[string]any) (*retry.Result, error) {
	switch capability {
	case domain.CapabilityEntities:
		return p.Entities(ctx, input, options)
	case domain.CapabilitySentiment:
		return p.Sentiment(ctx, input, options)
	case domain.CapabilityKeyPhrases:
		return p.KeyPhrases(ctx, input, options)
	case domain.CapabilityVision:
		return p.Vision(ctx, input, options)
	default:
		return nil, unsupported(p.Name(), capability)
	}
}
