package bootstrap

import (
	"context"
	"sync"
	"time"

	"tripcast/internal/adapters/config"
	"tripcast/internal/adapters/kafka"
	pgclient "tripcast/internal/adapters/postgres"
	redisclient "tripcast/internal/adapters/redis"
	"tripcast/internal/api"
	"tripcast/internal/domain/trip"
	"tripcast/internal/events"
	"tripcast/internal/ml"
	predictionsvc "tripcast/internal/services/prediction"
	"tripcast/internal/workers"
	"tripcast/pkg/errors"
	"tripcast/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure layer. Postgres, Redis and Kafka are optional; a nil
	// client means the component runs in degraded mode without it.
	PG       *pgclient.Client
	Redis    *redisclient.Client
	Producer *kafka.Producer

	// Domain layer
	Repos    *Repositories
	Pipeline *ModelPipeline

	// Application layer
	Prediction *predictionsvc.Service
	HTTPServer *api.Server
	Scheduler  *workers.Scheduler

	// Lifecycle management
	WG      *sync.WaitGroup
	Context context.Context
	Cancel  context.CancelFunc
}

// Repositories groups the persistence repositories
type Repositories struct {
	Trips       trip.Repository
	Predictions trip.PredictionRepository
}

// ModelPipeline groups the artifact-to-predictor machinery
type ModelPipeline struct {
	Resolver *ml.Resolver
	Loader   *ml.Loader
}

// NewContainer creates an empty container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:    &Repositories{},
		Pipeline: &ModelPipeline{},
		WG:       &sync.WaitGroup{},
		Context:  ctx,
		Cancel:   cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitModelPipeline()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start starts the HTTP server and the worker scheduler
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	if err := c.Scheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Stop accepting HTTP traffic first
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if c.HTTPServer != nil {
		if err := c.HTTPServer.Shutdown(shutdownCtx); err != nil {
			c.Log.Errorw("Error stopping HTTP server", "error", err)
		}
	}

	// Signal workers and any remaining goroutines
	c.Cancel()

	if c.Scheduler != nil && c.Scheduler.IsRunning() {
		if err := c.Scheduler.Stop(); err != nil {
			c.Log.Errorw("Error stopping workers", "error", err)
		}
	}

	c.waitForGoroutines(30 * time.Second)

	// Close event producer before the stores it may still reference
	if c.Producer != nil {
		if err := c.Producer.Close(); err != nil {
			c.Log.Errorw("Error closing Kafka producer", "error", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Errorw("Error closing Redis", "error", err)
		}
	}

	if c.PG != nil {
		if err := c.PG.Close(); err != nil {
			c.Log.Errorw("Error closing PostgreSQL", "error", err)
		}
	}

	if c.ErrorTracker != nil {
		if err := c.ErrorTracker.Flush(shutdownCtx); err != nil {
			c.Log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	c.Log.Info("✓ Shutdown complete")
}

// waitForGoroutines waits for container-managed goroutines with a timeout
func (c *Container) waitForGoroutines(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.WG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		c.Log.Warn("Timed out waiting for goroutines to finish")
	}
}

// publisher returns the event publisher, or nil when Kafka is disabled
func (c *Container) publisher() *events.Publisher {
	if c.Producer == nil {
		return nil
	}
	return events.NewPublisher(c.Producer)
}
