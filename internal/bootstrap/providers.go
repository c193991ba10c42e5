package bootstrap

import (
	adapters "insight/internal/adapters/analysis"
	"insight/internal/adapters/analysis/aws"
	"insight/internal/adapters/analysis/azure"
	"insight/internal/adapters/analysis/fetch"
	"insight/internal/adapters/config"
	errnoop "insight/internal/adapters/errors/noop"
	"insight/internal/adapters/errors/sentry"
	"insight/internal/adapters/kafka"
	"insight/internal/api"
	apianalysis "insight/internal/api/analysis"
	"insight/internal/api/health"
	domain "insight/internal/domain/analysis"
	"insight/internal/events"
	"insight/internal/metrics"
	analysissvc "insight/internal/services/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration, initializes logger and metrics
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg
	c.Lifecycle.shutdownTimeout = cfg.HTTP.ShutdownTimeout

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	// Initialize error tracker
	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Adapters
// ========================================

// MustInitAdapters initializes the image fetcher, provider registry and
// diagnostics publisher
func (c *Container) MustInitAdapters() {
	c.Adapters.Fetcher = fetch.New(fetch.Config{
		Timeout:  c.Config.Fetch.Timeout,
		MaxBytes: c.Config.Fetch.MaxBytes,
	}, c.Log)

	c.Adapters.Providers = adapters.NewDefaultRegistry(c.Log, c.Config.AWS.Region, c.Adapters.Fetcher)
	c.Log.Infow("✓ Analysis providers registered", "providers", c.Adapters.Providers.Names())

	if c.Config.Kafka.Enabled {
		c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	}

	publisher, err := provideEventPublisher(c.Config, c.Adapters.KafkaProducer, c.Log)
	if err != nil {
		c.Log.Fatalf("failed to init event publisher: %v", err)
	}
	c.Adapters.Publisher = publisher
}

// ========================================
// Phase 3: Services
// ========================================

// MustInitServices initializes the analysis service
func (c *Container) MustInitServices() {
	c.Services.Analysis = analysissvc.NewService(
		c.Adapters.Providers,
		c.Adapters.Publisher,
		c.ErrorTracker,
		c.Log,
		fallbackCredentials(c.Config)...,
	)
	c.Log.Info("✓ Analysis service initialized")
}

// ========================================
// Phase 4: Application (HTTP)
// ========================================

// MustInitApplication initializes handlers and the HTTP server
func (c *Container) MustInitApplication() {
	checks := map[string]health.Check{}
	if c.Adapters.KafkaProducer != nil {
		checks["kafka"] = c.Adapters.KafkaProducer.Ping
	}

	c.Application.HealthHandler = health.New(c.Log, c.Config.App.Name, c.Config.App.Version, checks)
	c.Application.AnalysisHandler = apianalysis.NewHandler(c.Services.Analysis, c.Config.HTTP.MaxBodyBytes, c.Log)
	c.Application.HTTPServer = provideHTTPServer(c.Config, c.Application.HealthHandler, c.Application.AnalysisHandler, c.Log)
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Info("Initializing Kafka producer...")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, using default localhost:9092")
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	}, log)
	log.Infow("✓ Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
	return producer
}

func provideEventPublisher(cfg *config.Config, producer *kafka.Producer, log *logger.Logger) (events.Publisher, error) {
	if producer == nil {
		log.Info("Call events disabled")
		return events.NoopPublisher{}, nil
	}
	publisher, err := events.NewKafkaPublisher(producer, cfg.Kafka.Topic, cfg.Kafka.Encoding, log)
	if err != nil {
		return nil, err
	}
	log.Infow("✓ Call events enabled", "topic", cfg.Kafka.Topic, "encoding", cfg.Kafka.Encoding)
	return publisher, nil
}

// fallbackCredentials maps environment credentials onto providers. Azure
// vision runs on its own endpoint and key.
func fallbackCredentials(cfg *config.Config) []analysissvc.Option {
	return []analysissvc.Option{
		analysissvc.WithFallbackCredentials(aws.Name, adapters.Credentials{
			Key:    cfg.AWS.AccessKey,
			Secret: cfg.AWS.SecretKey,
		}),
		analysissvc.WithFallbackCredentials(azure.Name, adapters.Credentials{
			URL: cfg.Azure.TextURL,
			Key: cfg.Azure.TextKey,
		}),
		analysissvc.WithCapabilityFallback(azure.Name, domain.CapabilityVision, adapters.Credentials{
			URL: cfg.Azure.VisionURL,
			Key: cfg.Azure.VisionKey,
		}),
	}
}

func provideHTTPServer(
	cfg *config.Config,
	healthHandler *health.Handler,
	analysisHandler *apianalysis.Handler,
	log *logger.Logger,
) *api.Server {
	return api.NewServer(api.ServerConfig{
		Addr:            cfg.HTTP.Addr(),
		ServiceName:     cfg.App.Name,
		Version:         cfg.App.Version,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		AnalysisHandler: analysisHandler,
	}, healthHandler, log)
}
