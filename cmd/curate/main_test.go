package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trading-featuresv1/internal/dataset"
	"trading-featuresv1/internal/model"
	sqlitestore "trading-featuresv1/internal/store/sqlite"
)

// memBars is an in-memory model.BarReader.
type memBars map[model.SeriesKey][]model.Bar

func (m memBars) ReadBars(key model.SeriesKey, fromTS int64) ([]model.Bar, error) {
	var out []model.Bar
	for _, b := range m[key] {
		if b.Timestamp >= fromTS {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memBars) Close() error { return nil }

func fiveMinute(n int) []model.Bar {
	out := make([]model.Bar, n)
	for i := range out {
		p := float64(100 + i)
		out[i] = model.Bar{Timestamp: int64(i) * 300, Open: p, High: p + 1, Low: p - 1, Close: p + 0.5, Volume: 1, WeightedAverage: p}
	}
	return out
}

func TestLoader_ResamplesFromBasePeriod(t *testing.T) {
	store := memBars{{Instrument: "ETH", Period: 300}: fiveMinute(12)}
	load := loader(store, 300)

	same, err := load(context.Background(), model.SeriesKey{Instrument: "ETH", Period: 300})
	if err != nil || len(same) != 12 {
		t.Fatalf("base period: %d bars, %v", len(same), err)
	}

	half, err := load(context.Background(), model.SeriesKey{Instrument: "ETH", Period: 1800})
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if len(half) != 2 || half[0].Open != 100 || half[0].Close != 105.5 {
		t.Errorf("half-hour bars = %+v", half)
	}

	if _, err := load(context.Background(), model.SeriesKey{Instrument: "ETH", Period: 450}); err == nil {
		t.Error("expected an error for a period that is not a multiple of the base")
	}
}

func TestFit_StoresTrainingFoldNormalisation(t *testing.T) {
	dir := t.TempDir()

	d := dataset.New()
	if _, err := d.AddFeatures("rsi", "tmf", "percentageatsell"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		fv := d.NewVector()
		fv.Set("rsi", float64(i))
		fv.Set("tmf", float64(-i))
		fv.Set("percentageatsell", float64(i%3))
		if err := d.Insert(fv); err != nil {
			t.Fatal(err)
		}
	}
	csvPath := filepath.Join(dir, "output-rsi.csv")
	f, err := os.Create(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteCSV(f, false); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dbPath := filepath.Join(dir, "bars.db")
	w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := fit(w, csvPath, "percentageatsell", 5, 0, 7); err != nil {
		t.Fatalf("fit: %v", err)
	}

	r, err := sqlitestore.NewReader(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	cols, mean, _, lo, hi, err := r.ReadNormalisation("output-rsi.csv-fold0-of-5")
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || cols[0] != "rsi" || cols[1] != "tmf" {
		t.Fatalf("columns = %v", cols)
	}
	// 8 of 10 rows train; the shuffle decides which, but the bounds stay inside the data
	if lo[0] < 0 || hi[0] > 9 || mean[0] < lo[0] || mean[0] > hi[0] {
		t.Errorf("rsi stat out of range: mean=%v min=%v max=%v", mean[0], lo[0], hi[0])
	}

	if err := fit(w, csvPath, "nosuch", 5, 0, 7); err == nil {
		t.Error("expected an error for an unknown output column")
	}
}
