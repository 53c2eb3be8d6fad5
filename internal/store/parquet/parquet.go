// Package parquet keeps bar series as one parquet file per series under a
// directory, named <instrument>_<period>.parquet.
package parquet

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"trading-featuresv1/internal/model"
)

// Store implements model.BarReader and model.BarWriter on a directory.
// A Store does not lock files; one writer per series at a time.
type Store struct {
	dir string
}

// Open creates dir if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("parquet open %s: %w", dir, err)
	}
	log.Printf("[parquet] bar files under %s", dir)
	return &Store{dir: dir}, nil
}

// Path returns the file backing key.
func (s *Store) Path(key model.SeriesKey) string {
	name := strings.NewReplacer("/", "-", ":", "-").Replace(key.Instrument)
	return filepath.Join(s.dir, name+"_"+strconv.Itoa(key.Period)+".parquet")
}

// ReadBars reads the bars of key with Timestamp >= fromTS. A series with no
// file has no bars.
func (s *Store) ReadBars(key model.SeriesKey, fromTS int64) ([]model.Bar, error) {
	bars, err := s.readAll(key)
	if err != nil {
		return nil, err
	}
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Timestamp >= fromTS })
	return bars[i:], nil
}

func (s *Store) readAll(key model.SeriesKey) ([]model.Bar, error) {
	bars, err := parquet.ReadFile[model.Bar](s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parquet read %s: %w", key, err)
	}
	return bars, nil
}

// WriteBars merges bars into the series file. Bars sharing a timestamp with
// a stored bar replace it. The file is rewritten through a temp file.
func (s *Store) WriteBars(key model.SeriesKey, bars []model.Bar) error {
	stored, err := s.readAll(key)
	if err != nil {
		return err
	}
	merged := merge(stored, bars)

	path := s.Path(key)
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, merged); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("parquet write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("parquet write %s: %w", key, err)
	}
	log.Printf("[parquet] wrote %d bars to %s", len(merged), path)
	return nil
}

// merge returns the union of a and b ordered by timestamp, b winning ties.
func merge(a, b []model.Bar) []model.Bar {
	byTS := make(map[int64]model.Bar, len(a)+len(b))
	for _, x := range a {
		byTS[x.Timestamp] = x
	}
	for _, x := range b {
		byTS[x.Timestamp] = x
	}
	out := make([]model.Bar, 0, len(byTS))
	for _, x := range byTS {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Close is a no-op; files are closed after every call.
func (s *Store) Close() error { return nil }
