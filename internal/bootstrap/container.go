package bootstrap

import (
	"context"
	"sync"

	adapters "insight/internal/adapters/analysis"
	"insight/internal/adapters/analysis/fetch"
	"insight/internal/adapters/config"
	"insight/internal/adapters/kafka"
	"insight/internal/api"
	apianalysis "insight/internal/api/analysis"
	"insight/internal/api/health"
	"insight/internal/events"
	analysissvc "insight/internal/services/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	Adapters    *Adapters
	Services    *Services
	Application *Application

	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Adapters groups outbound integrations
type Adapters struct {
	KafkaProducer *kafka.Producer // nil when Kafka is disabled
	Publisher     events.Publisher
	Fetcher       *fetch.Fetcher
	Providers     *adapters.Registry
}

// Services groups business services
type Services struct {
	Analysis *analysissvc.Service
}

// Application groups inbound surfaces
type Application struct {
	HealthHandler   *health.Handler
	AnalysisHandler *apianalysis.Handler
	HTTPServer      *api.Server
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Adapters:    &Adapters{},
		Services:    &Services{},
		Application: &Application{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitApplication()
}

// Start starts the HTTP server in the background
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Adapters.KafkaProducer,
		c.ErrorTracker,
		c.Log,
	)
}
