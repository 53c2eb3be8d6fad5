package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"trading-featuresv1/internal/model"
)

// Reader provides read-only access to the bar and normalisation tables.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (r *Reader) DB() *sql.DB { return r.db }

// ReadBars reads bars of one series with ts >= fromTS, oldest first.
func (r *Reader) ReadBars(key model.SeriesKey, fromTS int64) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT ts, open, high, low, close, volume, quote_volume, weighted_average
		FROM bars
		WHERE instrument = ? AND period = ? AND ts >= ?
		ORDER BY ts ASC
	`, key.Instrument, key.Period, fromTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var vol, qvol, wa sql.NullFloat64
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &vol, &qvol, &wa); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		b.Volume, b.QuoteVolume, b.WeightedAverage = vol.Float64, qvol.Float64, wa.Float64
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Instruments lists the instruments stored at period.
func (r *Reader) Instruments(period int) ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT instrument FROM bars WHERE period = ? ORDER BY instrument`, period)
	if err != nil {
		return nil, fmt.Errorf("sqlite query instruments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlite scan instruments: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LastTimestamp returns the newest stored timestamp of a series, or 0.
func (r *Reader) LastTimestamp(key model.SeriesKey) (int64, error) {
	var ts sql.NullInt64
	err := r.db.QueryRow(
		`SELECT MAX(ts) FROM bars WHERE instrument = ? AND period = ?`,
		key.Instrument, key.Period,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// ReadNormalisation returns the vectors stored under name in column order.
// Nothing stored is not an error: all slices are nil.
func (r *Reader) ReadNormalisation(name string) (columns []string, mean, std, min, max []float64, err error) {
	rows, err := r.db.Query(`
		SELECT column_name, mean, std, min, max
		FROM normalisations
		WHERE name = ?
		ORDER BY position ASC
	`, name)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("sqlite read normalisation %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c string
		var m, s, lo, hi float64
		if err := rows.Scan(&c, &m, &s, &lo, &hi); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("sqlite scan normalisation %s: %w", name, err)
		}
		columns = append(columns, c)
		mean = append(mean, m)
		std = append(std, s)
		min = append(min, lo)
		max = append(max, hi)
	}
	return columns, mean, std, min, max, rows.Err()
}

// ReadArchivedRow returns one archived dataset row as column name to value,
// NaN where a non-finite value was stored. A missing row is (nil, nil).
func (r *Reader) ReadArchivedRow(runID, trigger string, row int) (map[string]float64, error) {
	var data string
	err := r.db.QueryRow(
		`SELECT data FROM dataset_rows WHERE run_id = ? AND trigger_name = ? AND row = ?`,
		runID, trigger, row,
	).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite read archived row: %w", err)
	}
	var raw map[string]*float64
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal archived row: %w", err)
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if v == nil {
			out[k] = math.NaN()
			continue
		}
		out[k] = *v
	}
	return out, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
