package seriescache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"trading-featuresv1/internal/metrics"
	"trading-featuresv1/internal/model"
)

// memBackend is an in-memory model.SeriesBackend.
type memBackend struct {
	mu     sync.Mutex
	series map[model.SeriesKey][]model.Bar
	getErr error
	gets   int
	puts   int
}

func newMemBackend() *memBackend {
	return &memBackend{series: make(map[model.SeriesKey][]model.Bar)}
}

func (m *memBackend) GetSeries(_ context.Context, key model.SeriesKey) ([]model.Bar, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	bars, ok := m.series[key]
	return bars, ok, nil
}

func (m *memBackend) PutSeries(_ context.Context, key model.SeriesKey, bars []model.Bar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.series[key] = bars
	return nil
}

func countingLoader(calls *int32) Loader {
	return func(_ context.Context, key model.SeriesKey) ([]model.Bar, error) {
		atomic.AddInt32(calls, 1)
		return []model.Bar{{Timestamp: int64(key.Period), Close: 1}}, nil
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, layer string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if layer == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "layer" && lp.GetValue() == layer {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

var btc = model.SeriesKey{Instrument: "BTC", Period: 1800}

func TestGet_LoadsOnceThenServesFromMemory(t *testing.T) {
	reg := prometheus.NewRegistry()
	var calls int32
	be := newMemBackend()
	c := New(countingLoader(&calls), be, metrics.NewWithRegistry(reg))

	for i := 0; i < 3; i++ {
		bars, err := c.Get(context.Background(), btc)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(bars) != 1 || bars[0].Timestamp != 1800 {
			t.Fatalf("unexpected bars %+v", bars)
		}
	}
	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}
	if be.puts != 1 {
		t.Errorf("backend puts = %d, want 1", be.puts)
	}
	if got := counterValue(t, reg, "featureengine_cache_misses_total", ""); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := counterValue(t, reg, "featureengine_cache_hits_total", "memory"); got != 2 {
		t.Errorf("memory hits = %v, want 2", got)
	}
}

func TestGet_BackendHitSkipsLoader(t *testing.T) {
	reg := prometheus.NewRegistry()
	var calls int32
	be := newMemBackend()
	be.series[btc] = []model.Bar{{Timestamp: 42}}
	c := New(countingLoader(&calls), be, metrics.NewWithRegistry(reg))

	bars, err := c.Get(context.Background(), btc)
	if err != nil {
		t.Fatal(err)
	}
	if bars[0].Timestamp != 42 {
		t.Errorf("expected the backend copy, got %+v", bars)
	}
	if calls != 0 {
		t.Errorf("loader ran %d times on a backend hit", calls)
	}
	if got := counterValue(t, reg, "featureengine_cache_hits_total", "redis"); got != 1 {
		t.Errorf("redis hits = %v, want 1", got)
	}
}

func TestGet_BackendErrorFallsBackToLoader(t *testing.T) {
	var calls int32
	be := newMemBackend()
	be.getErr = errors.New("connection refused")
	c := New(countingLoader(&calls), be, nil)

	if _, err := c.Get(context.Background(), btc); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}
}

func TestGet_LoadErrorIsNotCached(t *testing.T) {
	errStore := errors.New("no such table")
	fail := true
	c := New(func(context.Context, model.SeriesKey) ([]model.Bar, error) {
		if fail {
			return nil, errStore
		}
		return []model.Bar{{}}, nil
	}, nil, nil)

	if _, err := c.Get(context.Background(), btc); !errors.Is(err, errStore) {
		t.Fatalf("expected errStore, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed load left %d entries", c.Len())
	}
	fail = false
	if _, err := c.Get(context.Background(), btc); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestGet_KeysArePerPeriod(t *testing.T) {
	var calls int32
	c := New(countingLoader(&calls), nil, nil)
	ctx := context.Background()
	c.Get(ctx, btc)
	c.Get(ctx, model.SeriesKey{Instrument: "BTC", Period: 7200})
	if calls != 2 || c.Len() != 2 {
		t.Errorf("calls=%d len=%d, want 2 and 2", calls, c.Len())
	}

	c.Invalidate(btc)
	c.Get(ctx, btc)
	if calls != 3 {
		t.Errorf("calls = %d after invalidate, want 3", calls)
	}
}

func TestGet_ConcurrentCallersShareOneLoad(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	c := New(func(context.Context, model.SeriesKey) ([]model.Bar, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []model.Bar{{Close: 7}}, nil
	}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bars, err := c.Get(context.Background(), btc)
			if err != nil || bars[0].Close != 7 {
				t.Errorf("Get: %v %+v", err, bars)
			}
		}()
	}
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}
}
