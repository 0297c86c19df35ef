package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"arcade/config"
	"arcade/events"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the arcade service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	scoresSubmittedCounter  metric.Int64Counter
	achievementsCounter     metric.Int64Counter
	levelsGainedCounter     metric.Int64Counter
	leaderboardDurationHist metric.Float64Histogram
	httpRequestDurationHist metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.MetricsEnabled {
		log.Info("Metrics disabled")
		mp.markInitialized(false)
		return nil
	}

	var reader sdkmetric.Reader
	switch mp.config.MetricsExporter {
	case "stdout":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(mp.config.MetricsExportInterval))
		log.Info("Using stdout metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(mp.config.MetricsExportInterval))
		log.WithField("endpoint", mp.config.OTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter 'none')")
		mp.markInitialized(false)
		return nil

	default:
		return fmt.Errorf("unknown metrics exporter: %s", mp.config.MetricsExporter)
	}

	return mp.initializeWithReader(reader)
}

// initializeWithReader builds the meter provider around reader
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.MetricsServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("arcade")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized")
	return nil
}

func (mp *MetricsProvider) markInitialized(enabled bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.initialized = true
	mp.enabled = enabled
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.scoresSubmittedCounter, err = mp.meter.Int64Counter(
		ScoresSubmittedTotal,
		metric.WithDescription("Total number of recorded score submissions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create scores submitted counter: %w", err)
	}

	mp.achievementsCounter, err = mp.meter.Int64Counter(
		AchievementsUnlocked,
		metric.WithDescription("Total number of achievement unlocks"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create achievements counter: %w", err)
	}

	mp.levelsGainedCounter, err = mp.meter.Int64Counter(
		LevelsGained,
		metric.WithDescription("Total number of levels gained"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create levels gained counter: %w", err)
	}

	mp.leaderboardDurationHist, err = mp.meter.Float64Histogram(
		LeaderboardDuration,
		metric.WithDescription("Duration of leaderboard reads in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	if err != nil {
		return fmt.Errorf("failed to create leaderboard duration histogram: %w", err)
	}

	mp.httpRequestDurationHist, err = mp.meter.Float64Histogram(
		HTTPRequestDuration,
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP duration histogram: %w", err)
	}

	return nil
}

// Subscribe records progression counters from committed bus events
func (mp *MetricsProvider) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeScoreRecorded, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.ScoreRecordedEvent); ok {
			mp.RecordScoreSubmitted(e.GameName)
		}
	})
	bus.Subscribe(events.EventTypeAchievementUnlocked, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.AchievementUnlockedEvent); ok {
			mp.RecordAchievementUnlocked(e.AchievementID)
		}
	})
	bus.Subscribe(events.EventTypeLevelUp, func(ctx context.Context, event events.Event) {
		if _, ok := event.(events.LevelUpEvent); ok {
			mp.RecordLevelGained()
		}
	})
}

// Shutdown flushes and stops the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordScoreSubmitted counts a recorded score for a game
func (mp *MetricsProvider) RecordScoreSubmitted(game string) {
	if !mp.isEnabled() {
		return
	}
	mp.scoresSubmittedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelGame, game)),
	)
}

// RecordAchievementUnlocked counts an achievement unlock
func (mp *MetricsProvider) RecordAchievementUnlocked(achievementID string) {
	if !mp.isEnabled() {
		return
	}
	mp.achievementsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelAchievement, achievementID)),
	)
}

// RecordLevelGained counts one level gained by any user
func (mp *MetricsProvider) RecordLevelGained() {
	if !mp.isEnabled() {
		return
	}
	mp.levelsGainedCounter.Add(context.Background(), 1)
}

// MeasureLeaderboard returns a function that records the leaderboard read duration
// Usage:
//
//	defer mp.MeasureLeaderboard()()
func (mp *MetricsProvider) MeasureLeaderboard() func() {
	start := time.Now()
	return func() {
		if !mp.isEnabled() {
			return
		}
		mp.leaderboardDurationHist.Record(context.Background(), time.Since(start).Seconds())
	}
}

// RecordHTTPRequest records one handled HTTP request
func (mp *MetricsProvider) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	mp.httpRequestDurationHist.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(
			attribute.String(LabelMethod, method),
			attribute.String(LabelRoute, route),
			attribute.String(LabelStatus, strconv.Itoa(status)),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
