package analysis

import (
	"sort"
	"sync"

	"insight/internal/adapters/analysis/aws"
	"insight/internal/adapters/analysis/azure"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

var (
	_ Provider = (*aws.Provider)(nil)
	_ Provider = (*azure.Provider)(nil)
)

// Constructor builds a provider for one call from its credentials.
type Constructor func(creds Credentials, log *logger.Logger) (Provider, error)

// Registry maps provider names to constructors. Providers are created per
// call; the registry holds no call state.
type Registry struct {
	constructors map[string]Constructor
	mu           sync.RWMutex
	log          *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		log:          log,
	}
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, ctor Constructor) error {
	if ctor == nil {
		return errors.Newf("constructor for %s is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; exists {
		return errors.Newf("provider %s already registered", name)
	}
	r.constructors[name] = ctor
	return nil
}

// New creates the named provider with creds.
func (r *Registry) New(name string, creds Credentials) (Provider, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "provider %s", name)
	}
	return ctor(creds, r.log)
}

// Names returns registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AWSConstructor builds Comprehend/Rekognition providers. An empty region
// keeps the provider default; fetcher may be nil.
func AWSConstructor(endpoint, region string, fetcher aws.ImageFetcher) Constructor {
	return func(creds Credentials, log *logger.Logger) (Provider, error) {
		var opts []aws.Option
		if fetcher != nil {
			opts = append(opts, aws.WithFetcher(fetcher))
		}
		if region != "" {
			defaults := aws.DefaultOptions()
			defaults.Region = region
			opts = append(opts, aws.WithDefaults(defaults))
		}
		p, err := aws.NewProvider(aws.Config{
			AccessKey: creds.Key,
			SecretKey: creds.Secret,
			Endpoint:  endpoint,
		}, log, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// AzureConstructor builds Cognitive Services providers.
func AzureConstructor() Constructor {
	return func(creds Credentials, log *logger.Logger) (Provider, error) {
		p, err := azure.NewProvider(azure.Config{
			BaseURL: creds.URL,
			Key:     creds.Key,
		}, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// NewDefaultRegistry registers the aws and azure providers.
func NewDefaultRegistry(log *logger.Logger, awsRegion string, fetcher aws.ImageFetcher) *Registry {
	r := NewRegistry(log)
	_ = r.Register(aws.Name, AWSConstructor("", awsRegion, fetcher))
	_ = r.Register(azure.Name, AzureConstructor())
	return r
}
