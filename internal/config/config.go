package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/hotspot"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Inputs.
	ReportsPath     string
	TweetsPath      string
	MapDocumentPath string

	// Aggregation and story pacing.
	H3Resolution int
	StageDelay   time.Duration

	// Story sessions.
	SessionTTL  time.Duration
	MaxSessions int

	// Visual enrichment.
	MediaDir           string
	VisualsLimit       int
	ImageSearchRegion  string
	ImageSearchTimeout time.Duration
	DownloadTimeout    time.Duration
	VisualsS3Bucket    string
	AWSRegion          string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Hotspot summary publishing.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	resolution, err := parseInt("H3_RESOLUTION", 7)
	if err != nil {
		return nil, err
	}
	if resolution < hotspot.MinResolution || resolution > hotspot.MaxResolution {
		return nil, &domain.ConfigurationError{
			Setting: "H3_RESOLUTION",
			Value:   resolution,
			Reason:  fmt.Sprintf("must be between %d and %d", hotspot.MinResolution, hotspot.MaxResolution),
		}
	}

	visualsLimit, err := parseInt("VISUALS_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	if visualsLimit <= 0 {
		return nil, errors.New("invalid VISUALS_LIMIT: must be positive")
	}

	stageDelay, err := parseDuration("STAGE_DELAY", "1s", true)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := parseDuration("SESSION_TTL", "2h", false)
	if err != nil {
		return nil, err
	}
	maxSessions, err := parseInt("MAX_SESSIONS", 10000)
	if err != nil {
		return nil, err
	}
	if maxSessions <= 0 {
		return nil, errors.New("invalid MAX_SESSIONS: must be positive")
	}
	searchTimeout, err := parseDuration("IMAGE_SEARCH_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := parseDuration("DOWNLOAD_TIMEOUT", "15s", false)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ReportsPath:     sharedcfg.EnvOrDefault("REPORTS_PATH", "final_geocoded_reports.csv"),
		TweetsPath:      sharedcfg.EnvOrDefault("TWEETS_PATH", "tweets.json"),
		MapDocumentPath: sharedcfg.EnvOrDefault("MAP_DOCUMENT_PATH", "hotspot_map.html"),

		H3Resolution: resolution,
		StageDelay:   stageDelay,

		SessionTTL:  sessionTTL,
		MaxSessions: maxSessions,

		MediaDir:           sharedcfg.EnvOrDefault("MEDIA_DIR", "media"),
		VisualsLimit:       visualsLimit,
		ImageSearchRegion:  sharedcfg.EnvOrDefault("IMAGE_SEARCH_REGION", "in-en"),
		ImageSearchTimeout: searchTimeout,
		DownloadTimeout:    downloadTimeout,
		VisualsS3Bucket:    os.Getenv("VISUALS_S3_BUCKET"),
		AWSRegion:          sharedcfg.EnvOrDefault("AWS_REGION", "us-east-1"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "disaster-hotspots"),
	}

	if cfg.ReportsPath == "" {
		return nil, errors.New("REPORTS_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func parseDuration(name, def string, zeroOkay bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d < 0 || (d == 0 && !zeroOkay) {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
