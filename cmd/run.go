package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"arcade/config"
	"arcade/database"
	"arcade/events"
	"arcade/infrastructure"
	"arcade/infrastructure/observability"
	"arcade/repository"
	"arcade/server"
	"arcade/service"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// ConfigureLogging applies the configured level and format to logrus
func ConfigureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	if err := ConfigureLogging(cfg); err != nil {
		return err
	}

	log.WithField("environment", cfg.Environment).Info("Starting arcade...")

	progression, err := config.LoadProgression(cfg.ProgressionFile)
	if err != nil {
		return fmt.Errorf("failed to load progression config: %w", err)
	}

	curve, err := service.NewLevelCurve(progression.Levels.Breakpoints)
	if err != nil {
		return fmt.Errorf("failed to build level curve: %w", err)
	}
	catalog, err := service.NewCatalog(progression.Definitions())
	if err != nil {
		return fmt.Errorf("failed to build achievement catalog: %w", err)
	}
	log.WithFields(log.Fields{
		"maxLevel":     curve.MaxLevel(),
		"achievements": catalog.Len(),
	}).Info("Progression config loaded")

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	engine := service.NewProgressionEngine(curve)
	evaluator := service.NewAchievementEvaluator(catalog, engine)

	leaderboard, err := service.NewLeaderboard(
		repository.NewRankingRepository(db),
		cfg.LeaderboardCacheSize,
		cfg.LeaderboardCacheTTL,
	)
	if err != nil {
		return fmt.Errorf("failed to create leaderboard: %w", err)
	}

	// Any committed change to stats can reorder the board. Invalidation runs
	// inside the commit so the writer's next read sees its own change.
	invalidate := func(context.Context, events.Event) { leaderboard.Invalidate() }
	eventBus.SubscribeSync(events.EventTypeScoreRecorded, invalidate)
	eventBus.SubscribeSync(events.EventTypeUserCreated, invalidate)
	eventBus.SubscribeSync(events.EventTypeAchievementUnlocked, invalidate)

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics.Subscribe(eventBus)

	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := natsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		if err := natsClient.EnsureStream(cfg.NATSStream, infrastructure.AllSubjects()); err != nil {
			natsClient.Close()
			return err
		}
		infrastructure.NewNATSEventForwarder(natsClient).Register(eventBus)
	} else {
		log.Info("NATS_SERVERS not set, event forwarding disabled")
	}

	if cfg.DiscordWebhookURL != "" {
		announcer, err := infrastructure.NewDiscordAnnouncer(cfg.DiscordWebhookURL)
		if err != nil {
			return err
		}
		announcer.Register(eventBus)
		log.Info("Discord announcements enabled")
	}

	srv := server.New(cfg, server.Deps{
		Users:        service.NewUserService(uowFactory, catalog, curve),
		Scores:       service.NewScoreService(uowFactory, engine, evaluator, cfg.RequestTimeout),
		Achievements: service.NewAchievementService(uowFactory, catalog, evaluator, cfg.RequestTimeout),
		Leaderboard:  leaderboard,
		Metrics:      metrics,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := srv.Listen(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down HTTP server")
		}
		if natsClient != nil {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Error("Error closing NATS connection")
			}
		}
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down metrics")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Shutdown completed")
	return nil
}
