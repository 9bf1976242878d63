package bootstrap

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"tripcast/internal/adapters/config"
	noopTracker "tripcast/internal/adapters/errors/noop"
	sentryTracker "tripcast/internal/adapters/errors/sentry"
	"tripcast/internal/adapters/kafka"
	pgclient "tripcast/internal/adapters/postgres"
	redisclient "tripcast/internal/adapters/redis"
	"tripcast/internal/api"
	"tripcast/internal/api/health"
	predictionapi "tripcast/internal/api/prediction"
	"tripcast/internal/domain/trip"
	"tripcast/internal/metrics"
	"tripcast/internal/ml"
	"tripcast/internal/repository/fsstore"
	pgrepo "tripcast/internal/repository/postgres"
	predictionsvc "tripcast/internal/services/prediction"
	"tripcast/internal/workers"
	"tripcast/pkg/errors"
	"tripcast/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Observability
// ========================================

// MustInitConfig loads configuration and initializes logging, error
// tracking and metrics
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the optional data stores. Each one is
// skipped, with a warning, when not configured.
func (c *Container) MustInitInfrastructure() {
	var err error

	if c.Config.Postgres.Enabled() {
		c.Log.Info("Connecting to PostgreSQL...")
		c.PG, err = pgclient.NewClient(c.Config.Postgres)
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	} else {
		c.Log.Warn("PostgreSQL not configured, trip stats and prediction log disabled")
	}

	if c.Config.Redis.Enabled() {
		c.Log.Info("Connecting to Redis...")
		c.Redis, err = redisclient.NewClient(c.Config.Redis)
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	} else {
		c.Log.Warn("Redis not configured, prediction response cache disabled")
	}

	if c.Config.Kafka.Enabled() {
		c.Producer = kafka.NewProducer(kafka.ProducerConfig{Brokers: c.Config.Kafka.Brokers})
		c.Log.Info("✓ Kafka producer configured")
	} else {
		c.Log.Warn("Kafka not configured, event publishing disabled")
	}
}

// ========================================
// Phase 3: Model Pipeline
// ========================================

// MustInitModelPipeline wires the artifact store, resolver and loader
func (c *Container) MustInitModelPipeline() {
	store := fsstore.New(c.Config.Artifacts.StoreRoot)

	c.Pipeline.Resolver = ml.NewResolver(store)
	c.Pipeline.Loader = ml.NewLoader(
		ml.DefaultStrategies(c.Config.Artifacts.RegistryRoot, store),
		c.Config.Artifacts.LoadAttemptTimeout,
	)

	c.Log.Infow("Model pipeline initialized",
		"store_root", c.Config.Artifacts.StoreRoot,
		"registry_root", c.Config.Artifacts.RegistryRoot,
	)
}

// ========================================
// Phase 4: Services
// ========================================

// MustInitServices builds the prediction orchestrator with whatever optional
// collaborators the infrastructure phase produced
func (c *Container) MustInitServices() {
	if c.PG != nil {
		c.Repos.Trips = pgrepo.NewTripRepository(c.PG.DB())
		c.Repos.Predictions = pgrepo.NewPredictionRepository(c.PG.DB())
	}

	region := trip.Region{
		MinLatitude:  c.Config.Region.MinLatitude,
		MaxLatitude:  c.Config.Region.MaxLatitude,
		MinLongitude: c.Config.Region.MinLongitude,
		MaxLongitude: c.Config.Region.MaxLongitude,
	}
	extractor := trip.NewExtractor(region)

	opts := []predictionsvc.Option{}
	if c.Redis != nil {
		opts = append(opts, predictionsvc.WithResponseCache(c.Redis, c.Config.Redis.PredictionTTL))
	}
	if c.Repos.Predictions != nil {
		opts = append(opts, predictionsvc.WithPredictionLog(c.Repos.Predictions))
	}
	if publisher := c.publisher(); publisher != nil {
		opts = append(opts, predictionsvc.WithPublisher(publisher))
	}

	c.Prediction = predictionsvc.NewService(
		c.Config.Model,
		extractor,
		c.Pipeline.Resolver,
		c.Pipeline.Loader,
		opts...,
	)
}

// ========================================
// Phase 5: Application Layer
// ========================================

// MustInitApplication builds the HTTP server
func (c *Container) MustInitApplication() {
	predictionHandler := predictionapi.NewHandler(
		c.Prediction,
		c.tripStats(),
		c.Config.Server.ReloadPerMinute,
	)

	healthHandler := health.New(
		c.Log,
		c.sqlDB(),
		c.redisClient(),
		c.Prediction,
		c.Config.App.Name,
		c.Config.App.Version,
	)

	c.HTTPServer = api.NewServer(api.ServerConfig{
		Port:        c.Config.Server.Port,
		ServiceName: c.Config.App.Name,
		Version:     c.Config.App.Version,
	}, predictionHandler, healthHandler, c.Log)
}

// ========================================
// Phase 6: Background Workers
// ========================================

// MustInitBackground registers background workers
func (c *Container) MustInitBackground() {
	c.Scheduler = workers.NewScheduler()
	c.Scheduler.RegisterWorker(workers.NewModelRefreshWorker(
		c.Pipeline.Resolver,
		c.Prediction,
		c.Config.Workers.ModelRefreshInterval,
		c.Config.Workers.ModelRefreshEnabled,
	))
}

// ========================================
// Providers
// ========================================

// provideErrorTracker initializes error tracking (Sentry or no-op)
func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noopTracker.New()
	}

	tracker, err := sentryTracker.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noopTracker.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// tripStats returns the stats provider, typed nil-free for the handler
func (c *Container) tripStats() predictionapi.TripStatsProvider {
	if c.Repos.Trips == nil {
		return nil
	}
	return c.Repos.Trips
}

func (c *Container) sqlDB() *sqlx.DB {
	if c.PG == nil {
		return nil
	}
	return c.PG.DB()
}

func (c *Container) redisClient() *redis.Client {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Client()
}
