// Package redis stores reference bar series in Redis for reuse across runs.
// Every call goes through a Breaker so an unreachable server costs one
// timeout per cooldown rather than one per lookup.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"trading-featuresv1/internal/metrics"
	"trading-featuresv1/internal/model"
)

const (
	keyPrefix         = "series:"
	defaultTTL        = 24 * time.Hour
	defaultMaxPending = 64
)

// Config configures the series backend.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // expiry of stored series, default 24h

	MaxFailures int           // consecutive failures before the breaker opens, default 3
	Cooldown    time.Duration // breaker cooldown, default 10s
	MaxPending  int           // puts held while the breaker is open, default 64
}

// Backend implements model.SeriesBackend on a Redis client.
type Backend struct {
	client  *goredis.Client
	ttl     time.Duration
	breaker *Breaker
	metrics *metrics.Metrics

	mu         sync.Mutex
	pending    map[string][]byte // key → encoded bars, replayed when the breaker closes
	maxPending int
}

// Connect creates a backend and pings the server.
func Connect(cfg Config, m *metrics.Metrics) (*Backend, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return NewBackend(client, cfg, m), nil
}

// NewBackend wraps an existing client. m may be nil.
func NewBackend(client *goredis.Client, cfg Config, m *metrics.Metrics) *Backend {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 10 * time.Second
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = defaultMaxPending
	}

	b := &Backend{
		client:     client,
		ttl:        cfg.TTL,
		breaker:    NewBreaker(cfg.MaxFailures, cfg.Cooldown),
		metrics:    m,
		pending:    make(map[string][]byte),
		maxPending: cfg.MaxPending,
	}
	b.breaker.OnStateChange = func(from, to State) {
		log.Printf("[redis] breaker %s -> %s", from, to)
		if m != nil {
			m.CacheBreakerState.Set(float64(to))
			if to == StateOpen {
				m.CacheBreakerTrips.Inc()
			}
		}
		if to == StateClosed {
			go b.flushPending()
		}
	}
	return b
}

// Client returns the underlying client for health checks.
func (b *Backend) Client() *goredis.Client { return b.client }

// Breaker returns the breaker guarding the backend.
func (b *Backend) Breaker() *Breaker { return b.breaker }

// GetSeries returns the stored bars for key. A missing key is (nil, false, nil).
func (b *Backend) GetSeries(ctx context.Context, key model.SeriesKey) ([]model.Bar, bool, error) {
	var data []byte
	err := b.breaker.Execute(func() error {
		var err error
		data, err = b.client.Get(ctx, keyPrefix+key.String()).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if data == nil {
		return nil, false, nil
	}
	var bars []model.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, false, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return bars, true, nil
}

// PutSeries stores bars under key with the configured TTL. While the breaker
// is open the write is held back and replayed once it closes.
func (b *Backend) PutSeries(ctx context.Context, key model.SeriesKey, bars []model.Bar) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	k := keyPrefix + key.String()
	err = b.breaker.Execute(func() error {
		return b.client.Set(ctx, k, data, b.ttl).Err()
	})
	if errors.Is(err, ErrCircuitOpen) {
		b.hold(k, data)
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// hold keeps a put for replay; past maxPending new puts are dropped.
func (b *Backend) hold(k string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pending[k]; !ok && len(b.pending) >= b.maxPending {
		log.Printf("[redis] pending full (%d), dropping put %s", b.maxPending, k)
		return
	}
	b.pending[k] = data
}

// Pending returns how many puts are waiting for the breaker to close.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *Backend) flushPending() {
	b.mu.Lock()
	held := b.pending
	b.pending = make(map[string][]byte)
	b.mu.Unlock()
	if len(held) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flushed := 0
	for k, data := range held {
		if err := b.client.Set(ctx, k, data, b.ttl).Err(); err != nil {
			log.Printf("[redis] replay %s: %v", k, err)
			continue
		}
		flushed++
	}
	log.Printf("[redis] replayed %d/%d held puts", flushed, len(held))
}

// Close closes the client.
func (b *Backend) Close() error {
	return b.client.Close()
}
