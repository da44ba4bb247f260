package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/disaster-hotspots/internal/adapter/download"
	"github.com/couchcryptid/disaster-hotspots/internal/adapter/duckduckgo"
	"github.com/couchcryptid/disaster-hotspots/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/disaster-hotspots/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-hotspots/internal/adapter/mapbox"
	proseadapter "github.com/couchcryptid/disaster-hotspots/internal/adapter/prose"
	"github.com/couchcryptid/disaster-hotspots/internal/adapter/storage"
	"github.com/couchcryptid/disaster-hotspots/internal/config"
	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/observability"
	"github.com/couchcryptid/disaster-hotspots/internal/pipeline"
	"github.com/couchcryptid/disaster-hotspots/internal/store"
	"github.com/couchcryptid/disaster-hotspots/internal/story"
	"github.com/couchcryptid/disaster-hotspots/internal/visuals"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	imageStore, err := newImageStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure image store", "error", err)
		os.Exit(1)
	}
	fetcher := visuals.NewFetcher(
		duckduckgo.NewClient(cfg.ImageSearchRegion, cfg.ImageSearchTimeout, logger),
		download.NewClient(cfg.DownloadTimeout),
		imageStore,
		logger,
		metrics,
	)

	var publisher pipeline.SummaryPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("hotspot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	enricher := pipeline.NewContextEnricher(proseadapter.NewRecognizer(logger), geocoder, logger, metrics)
	p := pipeline.New(
		store.NewCSVSource(cfg.ReportsPath, logger),
		enricher,
		fetcher,
		publisher,
		logger,
		metrics,
		pipeline.Options{Resolution: cfg.H3Resolution, VisualsLimit: cfg.VisualsLimit},
	)
	if err := p.Load(ctx); err != nil {
		logger.Error("failed to load reports", "path", cfg.ReportsPath, "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Hotspots:  p,
		Sessions:  story.NewSessionStore(nil, story.SessionLimits{TTL: cfg.SessionTTL, MaxSessions: cfg.MaxSessions}, logger, metrics),
		Pacer:     story.NewPacer(nil, cfg.StageDelay, logger),
		Documents: store.Documents{TweetsPath: cfg.TweetsPath, MapDocumentPath: cfg.MapDocumentPath},
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newImageStore picks S3 when a bucket is configured, local disk otherwise.
func newImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (visuals.ImageStore, error) {
	if cfg.VisualsS3Bucket == "" {
		local := storage.NewLocalStore(cfg.MediaDir)
		logger.Info("storing visuals locally", "dir", local.Dir())
		return local, nil
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, err
	}
	logger.Info("storing visuals in s3", "bucket", cfg.VisualsS3Bucket, "region", cfg.AWSRegion)
	return storage.NewS3Store(awsCfg, cfg.VisualsS3Bucket), nil
}
