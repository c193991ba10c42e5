package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"insight/pkg/errors"
	"insight/pkg/logger"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 5 << 20
)

// Config configures the image fetcher.
type Config struct {
	Timeout  time.Duration
	MaxBytes int64

	HTTPClient *http.Client
}

// Fetcher downloads images for providers that only accept raw bytes.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	log      *logger.Logger
}

// New creates a new fetcher
func New(cfg Config, log *logger.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Fetcher{
		client:   httpClient,
		maxBytes: cfg.MaxBytes,
		log:      log.With("component", "image_fetcher"),
	}
}

// Fetch GETs url and returns the body. Non-2xx responses and network errors
// are transport failures; a body above MaxBytes is invalid input.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewValidationError("url", err.Error(), url)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.NewTransportError("fetch image", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewTransportError("fetch image", resp.StatusCode, fmt.Errorf("unexpected status fetching %s", url))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, errors.NewTransportError("fetch image", resp.StatusCode, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errors.NewValidationError("url",
			fmt.Sprintf("image exceeds %s", humanize.IBytes(uint64(f.maxBytes))), url)
	}

	f.log.Debugw("Fetched image",
		"url", url,
		"size", humanize.Bytes(uint64(len(data))),
		"duration", time.Since(start),
	)
	return data, nil
}
