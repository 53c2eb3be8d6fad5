package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"trading-featuresv1/internal/trigger"
)

// Config holds the curation run configuration loaded from environment variables.
type Config struct {
	// Bar source
	BarFormat  string // "sqlite" or "parquet"
	SQLitePath string
	ParquetDir string
	BasePeriod int // period of the stored bars, in seconds

	// Reference series cache (optional: empty RedisAddr disables it)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Observability
	MetricsAddr   string
	LogLevel      string
	NotifyWebhook string // run summaries are POSTed here; empty logs them

	// Curation
	Triggers            string // comma-separated variant names, empty for all
	Instruments         string // comma-separated, empty for every stored instrument
	ReferenceInstrument string
	Preset              string
	PruneKeep           int // inputs kept by pruning, 0 disables pruning
	OutputDir           string
	ShuffleSeed         int64
	ArchiveRows         bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory, if present, seeds the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file, using environment only")
	}

	c := &Config{
		BarFormat:  strings.ToLower(getEnv("BAR_FORMAT", "sqlite")),
		SQLitePath: getEnv("SQLITE_PATH", "data/bars.db"),
		BasePeriod: getEnvInt("BASE_PERIOD", int(trigger.FiveMinutes)),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),

		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		NotifyWebhook: getEnv("NOTIFY_WEBHOOK_URL", ""),

		Triggers:            getEnv("TRIGGERS", ""),
		Instruments:         getEnv("INSTRUMENTS", ""),
		ReferenceInstrument: getEnv("REFERENCE_INSTRUMENT", "BTC"),
		Preset:              getEnv("PRESET", "sell"),
		PruneKeep:           getEnvInt("PRUNE_KEEP", 140),
		OutputDir:           getEnv("OUTPUT_DIR", "data/datasets"),
		ShuffleSeed:         int64(getEnvInt("SHUFFLE_SEED", 1)),
		ArchiveRows:         getEnv("ARCHIVE_ROWS", "false") == "true",
	}
	if c.BarFormat == "parquet" {
		c.ParquetDir = mustEnv("PARQUET_DIR")
	}
	return c
}

// ParseTriggers returns the configured variant names, all of them when
// TRIGGERS is empty. Unknown names are logged and skipped.
func (c *Config) ParseTriggers() []string {
	if strings.TrimSpace(c.Triggers) == "" {
		return trigger.Names()
	}
	parts := strings.Split(c.Triggers, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		if _, ok := trigger.Lookup(p); !ok {
			log.Printf("[config] skipping unknown trigger: %q", p)
			continue
		}
		seen[p] = true
		names = append(names, p)
	}
	return names
}

// ParseInstruments splits INSTRUMENTS; nil means every stored instrument.
func (c *Config) ParseInstruments() []string {
	var out []string
	for _, p := range strings.Split(c.Instruments, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
