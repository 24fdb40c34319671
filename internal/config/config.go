package config

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Inputs.
	CrashDataFile     string
	CauseDecoderFile  string
	CauseDecoderMode  string
	StreetDecoderFile string
	HolidaysFile      string
	FactorsFile       string
	RegionsFile       string

	// Enrichment.
	TimeZone string
	Twilight string

	// Processing.
	Workers     int
	BatchSize   int
	LoadRetries int

	// Sinks.
	OutputFile         string
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSinkTopic     string
	BatchFlushInterval time.Duration
	PostgresDSN        string
	PostgresTable      string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxRateLimit float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	loadRetries, err := parsePositiveInt("LOAD_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MAPBOX_RATE_LIMIT", "10"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid MAPBOX_RATE_LIMIT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		CrashDataFile:     os.Getenv("CRASH_DATA_FILE"),
		CauseDecoderFile:  os.Getenv("CAUSE_DECODER_FILE"),
		CauseDecoderMode:  sharedcfg.EnvOrDefault("CAUSE_DECODER_MODE", "primary"),
		StreetDecoderFile: os.Getenv("STREET_DECODER_FILE"),
		HolidaysFile:      os.Getenv("HOLIDAYS_FILE"),
		FactorsFile:       os.Getenv("FACTORS_FILE"),
		RegionsFile:       os.Getenv("REGIONS_FILE"),

		TimeZone: sharedcfg.EnvOrDefault("TIMEZONE", "Pacific/Auckland"),
		Twilight: sharedcfg.EnvOrDefault("TWILIGHT", "civil"),

		Workers:     workers,
		BatchSize:   batchSize,
		LoadRetries: loadRetries,

		OutputFile:         sharedcfg.EnvOrDefault("OUTPUT_FILE", "crashes.geojson"),
		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "enriched-crash-records"),
		BatchFlushInterval: flushInterval,
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		PostgresTable:      sharedcfg.EnvOrDefault("POSTGRES_TABLE", "crashes"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		MapboxRateLimit: rateLimit,
	}

	if cfg.CauseDecoderMode != "primary" && cfg.CauseDecoderMode != "legacy" {
		return nil, errors.New("CAUSE_DECODER_MODE must be primary or legacy")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.PostgresDSN != "" && !validTableName(cfg.PostgresTable) {
		return nil, errors.New("POSTGRES_TABLE must be a plain identifier")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// ValidateInputs reports the first missing input path needed to process a
// crash file.
func (c *Config) ValidateInputs() error {
	if c.CrashDataFile == "" {
		return errors.New("CRASH_DATA_FILE is required")
	}
	if c.CauseDecoderFile == "" {
		return errors.New("CAUSE_DECODER_FILE is required")
	}
	if c.StreetDecoderFile == "" {
		return errors.New("STREET_DECODER_FILE is required")
	}
	return nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func validTableName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
