package model

import "context"

// ── Storage Port Interfaces ──
// These interfaces decouple the scan pipeline from concrete storage
// implementations (SQLite, Parquet, Redis).

// BarReader loads stored bar series.
type BarReader interface {
	// ReadBars reads the bars of one series with Timestamp >= fromTS, ordered by time.
	ReadBars(key SeriesKey, fromTS int64) ([]Bar, error)

	// Close releases underlying resources.
	Close() error
}

// BarWriter persists bar series.
type BarWriter interface {
	// WriteBars upserts bars for one series.
	WriteBars(key SeriesKey, bars []Bar) error

	// Close releases underlying resources.
	Close() error
}

// NormalisationStore persists fitted normalisation parameters as plain
// per-column vectors: mean, std, min, max.
type NormalisationStore interface {
	SaveNormalisation(name string, columns []string, mean, std, min, max []float64) error

	// ReadNormalisation returns the vectors saved under name.
	// Returns nil slices and a nil error if nothing was saved.
	ReadNormalisation(name string) (columns []string, mean, std, min, max []float64, err error)
}

// SeriesBackend is a remote store for cached reference series.
type SeriesBackend interface {
	GetSeries(ctx context.Context, key SeriesKey) ([]Bar, bool, error)
	PutSeries(ctx context.Context, key SeriesKey, bars []Bar) error
}
