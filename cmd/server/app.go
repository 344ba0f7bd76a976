package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"schemeflow/internal/analytics"
	analyticskafka "schemeflow/internal/analytics/kafka"
	analyticsmetrics "schemeflow/internal/analytics/metrics"
	apphandler "schemeflow/internal/application/handler"
	appmetrics "schemeflow/internal/application/metrics"
	appservice "schemeflow/internal/application/service"
	"schemeflow/internal/application/status"
	appstore "schemeflow/internal/application/store"
	"schemeflow/internal/application/tracking"
	eligibilityhandler "schemeflow/internal/eligibility/handler"
	eligibilitymetrics "schemeflow/internal/eligibility/metrics"
	eligibilityservice "schemeflow/internal/eligibility/service"
	httpapi "schemeflow/internal/http"
	"schemeflow/internal/platform/config"
	"schemeflow/internal/platform/metrics"
	"schemeflow/internal/platform/postgres"
	"schemeflow/internal/platform/redis"
	schemehandler "schemeflow/internal/scheme/handler"
	schemeservice "schemeflow/internal/scheme/service"
	schemestore "schemeflow/internal/scheme/store"
	sessionhandler "schemeflow/internal/session/handler"
	sessionmetrics "schemeflow/internal/session/metrics"
	sessionservice "schemeflow/internal/session/service"
	sessionstore "schemeflow/internal/session/store"
)

const (
	analyticsTopicPartitions  = 3
	analyticsTopicReplication = 1
)

type application struct {
	router          http.Handler
	publisher       *analytics.Publisher
	analyticsWorker *analytics.Worker
	sweeper         *sessionservice.Sweeper
	closers         []func() error
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// build wires every module. Postgres, Redis and Kafka are each optional; when
// unset the in-memory adapter for that concern is used instead.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{}
	checks := map[string]httpapi.ReadinessCheck{}

	catalog, err := buildCatalog(cfg.Catalog, log)
	if err != nil {
		return nil, err
	}

	analyticsMetrics := analyticsmetrics.New()
	sink, err := buildAnalyticsSink(ctx, cfg.Kafka, app, checks, log, analyticsMetrics)
	if err != nil {
		app.close()
		return nil, err
	}
	app.publisher = analytics.NewPublisher(
		analytics.WithBufferSize(cfg.Analytics.BufferSize),
		analytics.WithMetrics(analyticsMetrics),
	)
	app.analyticsWorker = analytics.NewWorker(sink, app.publisher.Events(), log, analyticsMetrics)

	sessions, err := buildSessionStore(ctx, cfg.Redis, app, checks, log)
	if err != nil {
		app.close()
		return nil, err
	}
	sessionSvc := sessionservice.New(sessions,
		sessionservice.WithLogger(log),
		sessionservice.WithMetrics(sessionmetrics.New()),
		sessionservice.WithTTL(cfg.Session.TTL),
	)
	app.sweeper = sessionservice.NewSweeper(sessionSvc, cfg.Session.SweepInterval, log)

	appMetrics := appmetrics.New()
	applications, registry, err := buildApplicationStore(ctx, cfg.Postgres, app, checks, log)
	if err != nil {
		app.close()
		return nil, err
	}
	generator := tracking.NewGenerator(registry,
		tracking.WithPrefix(cfg.Tracking.Prefix),
		tracking.WithMetrics(appMetrics),
	)
	applicationSvc := appservice.New(applications, catalog, sessionSvc, generator, status.NewInMemory(),
		appservice.WithLogger(log),
		appservice.WithMetrics(appMetrics),
		appservice.WithAnalytics(app.publisher),
	)

	schemeSvc := schemeservice.New(catalog,
		schemeservice.WithLogger(log),
		schemeservice.WithAnalytics(app.publisher),
	)
	eligibilitySvc := eligibilityservice.New(catalog,
		eligibilityservice.WithLogger(log),
		eligibilityservice.WithMetrics(eligibilitymetrics.New()),
		eligibilityservice.WithAnalytics(app.publisher),
	)

	app.router = httpapi.NewRouter(httpapi.Config{
		Logger:  log,
		Metrics: metrics.New(),
		Handlers: []httpapi.Registrar{
			schemehandler.New(schemeSvc, log),
			eligibilityhandler.New(eligibilitySvc, log),
			sessionhandler.New(sessionSvc, log),
			apphandler.New(applicationSvc, log),
		},
		Checks: checks,
	})
	return app, nil
}

func buildCatalog(cfg config.Catalog, log *slog.Logger) (*schemestore.InMemory, error) {
	if cfg.Path == "" {
		log.Info("using embedded scheme catalog")
		return schemestore.NewDefault()
	}
	schemes, err := schemestore.LoadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load scheme catalog: %w", err)
	}
	log.Info("scheme catalog loaded", "path", cfg.Path, "schemes", len(schemes))
	return schemestore.NewInMemory(schemes), nil
}

func buildAnalyticsSink(ctx context.Context, cfg config.Kafka, app *application, checks map[string]httpapi.ReadinessCheck, log *slog.Logger, m *analyticsmetrics.Metrics) (analytics.Sink, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("analytics kept in memory; KAFKA_BROKERS not set")
		return analytics.NewMemorySink(), nil
	}
	client, err := analyticskafka.NewClient(cfg.Brokers, cfg.ClientID)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error { client.Close(); return nil })
	if err := analyticskafka.EnsureTopic(ctx, client, cfg.Topic, analyticsTopicPartitions, analyticsTopicReplication); err != nil {
		return nil, err
	}
	checks["kafka"] = client.Ping
	log.Info("analytics forwarded to kafka", "topic", cfg.Topic)
	// while the broker is down events are counted in memory instead of lost
	return analytics.NewFallbackSink(analyticskafka.NewSink(client, cfg.Topic), analytics.NewMemorySink(),
		analytics.WithFallbackLogger(log),
		analytics.WithFallbackMetrics(m),
	), nil
}

func buildSessionStore(ctx context.Context, cfg config.Redis, app *application, checks map[string]httpapi.ReadinessCheck, log *slog.Logger) (sessionservice.Store, error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Info("sessions kept in memory; REDIS_URL not set")
		return sessionstore.NewInMemory(), nil
	}
	app.closers = append(app.closers, client.Close)
	checks["redis"] = client.Health
	return sessionstore.NewRedis(client.Client), nil
}

func buildApplicationStore(ctx context.Context, cfg config.Postgres, app *application, checks map[string]httpapi.ReadinessCheck, log *slog.Logger) (appservice.Store, tracking.Registry, error) {
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		log.Info("applications kept in memory; DATABASE_URL not set")
		return appstore.NewInMemory(), tracking.NewInMemoryRegistry(), nil
	}
	app.closers = append(app.closers, db.Close)
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, nil, err
	}
	checks["postgres"] = db.PingContext
	// applications.tracking_reference references tracking_references, so the
	// registry must live in the same database
	return appstore.NewPostgres(db), tracking.NewPostgresRegistry(db), nil
}
