package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the feature engine.
type Metrics struct {
	BarsScanned  *prometheus.CounterVec // labels: trigger
	TriggersHit  *prometheus.CounterVec // labels: trigger
	RowsInserted *prometheus.CounterVec // labels: trigger
	RowsSkipped  *prometheus.CounterVec // labels: trigger

	MaterializeDur  prometheus.Histogram
	SQLiteCommitDur prometheus.Histogram

	// Reference series cache
	CacheHits   *prometheus.CounterVec // labels: layer=memory|redis
	CacheMisses prometheus.Counter

	// Circuit breaker around the redis cache backend
	CacheBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	CacheBreakerTrips prometheus.Counter
}

// NewMetrics registers and returns all metrics on the default registry.
func NewMetrics() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BarsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureengine_bars_scanned_total",
			Help: "Bars evaluated by a trigger condition",
		}, []string{"trigger"}),
		TriggersHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureengine_triggers_total",
			Help: "Trigger evaluations that produced a row or a skip",
		}, []string{"trigger"}),
		RowsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureengine_rows_inserted_total",
			Help: "Feature vectors inserted into a trigger dataset",
		}, []string{"trigger"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureengine_rows_skipped_total",
			Help: "Rows skipped for missing history or reference bars",
		}, []string{"trigger"}),

		MaterializeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "featureengine_materialize_duration_seconds",
			Help:    "Time to evaluate one index, including materialization when triggered",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "featureengine_sqlite_commit_duration_seconds",
			Help:    "SQLite batch commit latency",
			Buckets: prometheus.DefBuckets,
		}),

		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featureengine_cache_hits_total",
			Help: "Reference series served from cache (by layer)",
		}, []string{"layer"}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featureengine_cache_misses_total",
			Help: "Reference series loaded from the bar store",
		}),

		CacheBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "featureengine_cache_breaker_state",
			Help: "Redis cache circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		CacheBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featureengine_cache_breaker_trips_total",
			Help: "Times the redis cache circuit breaker tripped open",
		}),
	}

	reg.MustRegister(
		m.BarsScanned,
		m.TriggersHit,
		m.RowsInserted,
		m.RowsSkipped,
		m.MaterializeDur,
		m.SQLiteCommitDur,
		m.CacheHits,
		m.CacheMisses,
		m.CacheBreakerState,
		m.CacheBreakerTrips,
	)

	return m
}

// HealthStatus represents the state of a curation run.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	Scanning       bool      `json:"scanning"`
	Triggers       []string  `json:"triggers"`
	LastScanAt     time.Time `json:"last_scan_at"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetScanning(v bool) {
	h.mu.Lock()
	h.Scanning = v
	if !v {
		h.LastScanAt = time.Now()
	}
	h.mu.Unlock()
}

func (h *HealthStatus) SetTriggers(names []string) {
	h.mu.Lock()
	h.Triggers = names
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Either client may be nil.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. Redis is optional, so only the
// bar store decides the status code.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.SQLiteOK {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	lastScan := ""
	if !h.LastScanAt.IsZero() {
		lastScan = h.LastScanAt.Format(time.RFC3339)
	}

	status := struct {
		Status          string   `json:"status"`
		Uptime          string   `json:"uptime"`
		Scanning        bool     `json:"scanning"`
		Triggers        []string `json:"triggers"`
		LastScanAt      string   `json:"last_scan_at"`
		RedisConnected  bool     `json:"redis_connected"`
		RedisLatencyMs  float64  `json:"redis_latency_ms"`
		SQLiteOK        bool     `json:"sqlite_ok"`
		SQLiteLatencyMs float64  `json:"sqlite_latency_ms"`
		LastCheckAt     string   `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		Scanning:        h.Scanning,
		Triggers:        h.Triggers,
		LastScanAt:      lastScan,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
