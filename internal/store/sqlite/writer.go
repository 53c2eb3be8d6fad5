// Package sqlite persists bar series, fitted normalisations and archived
// dataset rows in a single SQLite file opened in WAL mode.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trading-featuresv1/internal/dataset"
	"trading-featuresv1/internal/metrics"
	"trading-featuresv1/internal/model"
)

const (
	defaultBatchSize = 500
	dsnOptions       = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath  string           // e.g. "data/bars.db"
	Metrics *metrics.Metrics // optional
}

// Writer is a single-connection SQLite writer with transaction batching.
type Writer struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New opens the database with WAL mode and creates the schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db, metrics: cfg.Metrics}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			instrument       TEXT    NOT NULL,
			period           INTEGER NOT NULL,
			ts               INTEGER NOT NULL,
			open             REAL    NOT NULL,
			high             REAL    NOT NULL,
			low              REAL    NOT NULL,
			close            REAL    NOT NULL,
			volume           REAL,
			quote_volume     REAL,
			weighted_average REAL,
			PRIMARY KEY (instrument, period, ts)
		);

		CREATE TABLE IF NOT EXISTS normalisations (
			name        TEXT    NOT NULL,
			position    INTEGER NOT NULL,
			column_name TEXT    NOT NULL,
			mean        REAL    NOT NULL,
			std         REAL    NOT NULL,
			min         REAL    NOT NULL,
			max         REAL    NOT NULL,
			created_at  INTEGER NOT NULL,
			PRIMARY KEY (name, position)
		);

		CREATE TABLE IF NOT EXISTS dataset_rows (
			run_id       TEXT    NOT NULL,
			trigger_name TEXT    NOT NULL,
			row          INTEGER NOT NULL,
			data         TEXT    NOT NULL,
			PRIMARY KEY (run_id, trigger_name, row)
		);
	`)
	return err
}

// WriteBars upserts bars for one series, defaultBatchSize rows per transaction.
func (w *Writer) WriteBars(key model.SeriesKey, bars []model.Bar) error {
	for start := 0; start < len(bars); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(bars))
		if err := w.insertBatch(key, bars[start:end]); err != nil {
			return fmt.Errorf("sqlite write bars %s: %w", key, err)
		}
	}
	return nil
}

// insertBatch inserts a batch of bars in a single transaction.
func (w *Writer) insertBatch(key model.SeriesKey, bars []model.Bar) error {
	start := time.Now()
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars (instrument, period, ts, open, high, low, close, volume, quote_volume, weighted_average)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.Exec(key.Instrument, key.Period, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume, b.QuoteVolume, b.WeightedAverage)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	w.observeCommit(start)
	return nil
}

func (w *Writer) observeCommit(start time.Time) {
	if w.metrics != nil {
		w.metrics.SQLiteCommitDur.Observe(time.Since(start).Seconds())
	}
}

// SaveNormalisation replaces the normalisation stored under name.
func (w *Writer) SaveNormalisation(name string, columns []string, mean, std, min, max []float64) error {
	n := len(columns)
	if len(mean) != n || len(std) != n || len(min) != n || len(max) != n {
		return fmt.Errorf("sqlite save normalisation %s: %d columns, vectors %d/%d/%d/%d",
			name, n, len(mean), len(std), len(min), len(max))
	}

	start := time.Now()
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite save normalisation %s: %w", name, err)
	}
	if _, err := tx.Exec(`DELETE FROM normalisations WHERE name = ?`, name); err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite save normalisation %s: %w", name, err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO normalisations (name, position, column_name, mean, std, min, max, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite save normalisation %s: %w", name, err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i, col := range columns {
		if _, err := stmt.Exec(name, i, col, mean[i], std[i], min[i], max[i], now); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite save normalisation %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite save normalisation %s: %w", name, err)
	}
	w.observeCommit(start)
	return nil
}

// ArchiveRows stores every row of d under (runID, trigger) as a JSON object
// of column name to value; non-finite values are stored as null. Returns the
// number of rows written.
func (w *Writer) ArchiveRows(runID, trigger string, d *dataset.DataSet) (int, error) {
	names := d.Schema().Names()

	start := time.Now()
	tx, err := w.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("sqlite archive %s: %w", trigger, err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO dataset_rows (run_id, trigger_name, row, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("sqlite archive %s: %w", trigger, err)
	}
	defer stmt.Close()

	for i := 0; i < d.Len(); i++ {
		obj := make(map[string]*float64, len(names))
		for j, v := range d.Row(i).Values() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				obj[names[j]] = nil
				continue
			}
			obj[names[j]] = &v
		}
		data, err := json.Marshal(obj)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite archive %s row %d: %w", trigger, i, err)
		}
		if _, err := stmt.Exec(runID, trigger, i, string(data)); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite archive %s row %d: %w", trigger, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite archive %s: %w", trigger, err)
	}
	w.observeCommit(start)
	log.Printf("[sqlite] archived %d rows of %s (run %s)", d.Len(), trigger, runID)
	return d.Len(), nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
