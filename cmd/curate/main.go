// cmd/curate scans stored bar series with every configured trigger and
// writes one CSV dataset per trigger, plus the normalisation fitted to its
// inputs.
//
// Usage:
//
//	go run ./cmd/curate --triggers=rsi,suddenpump --instruments=ETH,XRP
//	go run ./cmd/curate --fit=data/datasets/output-rsi.csv --output=percentageatsell --k=5
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"trading-featuresv1/config"
	"trading-featuresv1/internal/dataset"
	"trading-featuresv1/internal/logger"
	"trading-featuresv1/internal/metrics"
	"trading-featuresv1/internal/model"
	"trading-featuresv1/internal/norm"
	"trading-featuresv1/internal/notification"
	"trading-featuresv1/internal/resample"
	"trading-featuresv1/internal/seriescache"
	parquetstore "trading-featuresv1/internal/store/parquet"
	redisstore "trading-featuresv1/internal/store/redis"
	sqlitestore "trading-featuresv1/internal/store/sqlite"
	"trading-featuresv1/internal/trigger"
)

func main() {
	cfg := config.Load()

	triggers := flag.String("triggers", cfg.Triggers, "Comma-separated trigger variants (empty = all)")
	instruments := flag.String("instruments", cfg.Instruments, "Comma-separated instruments (empty = every stored instrument)")
	preset := flag.String("preset", cfg.Preset, "Training target: sell, max, didpump, didpumpimmediate")
	outDir := flag.String("out", cfg.OutputDir, "Directory for the CSV datasets")
	fitPath := flag.String("fit", "", "Fit a normalisation to the training fold of an existing CSV instead of scanning")
	fitOutput := flag.String("output", trigger.LabelSell, "Output column of the --fit dataset")
	folds := flag.Int("k", 5, "Fold count for --fit")
	fold := flag.Int("fold", 0, "Evaluation fold for --fit")
	flag.Parse()

	cfg.Triggers, cfg.Instruments, cfg.Preset, cfg.OutputDir = *triggers, *instruments, *preset, *outDir

	slogger := logger.Init("curate", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithRunID(ctx, logger.NewRunID("curate", time.Now()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogger.Info("shutdown signal received, stopping scans", logger.Attrs(ctx)...)
		cancel()
	}()

	if *fitPath != "" {
		w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Fatalf("[curate] sqlite open failed: %v", err)
		}
		defer w.Close()
		if err := fit(w, *fitPath, *fitOutput, *folds, *fold, cfg.ShuffleSeed); err != nil {
			log.Fatalf("[curate] fit: %v", err)
		}
		return
	}

	m := metrics.NewMetrics()

	// SQLite always holds normalisations, and bars unless BAR_FORMAT=parquet
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath, Metrics: m})
	if err != nil {
		log.Fatalf("[curate] sqlite open failed: %v", err)
	}
	defer writer.Close()

	health := metrics.NewHealthStatus()
	srv := metrics.NewServer(cfg.MetricsAddr, health)
	srv.Start()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		srv.Stop(shutdownCtx)
	}()

	bars, names, err := openBars(cfg)
	if err != nil {
		log.Fatalf("[curate] bar store: %v", err)
	}
	defer bars.Close()

	var backend model.SeriesBackend
	var redisBackend *redisstore.Backend
	if cfg.RedisAddr != "" {
		redisBackend, err = redisstore.Connect(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		}, m)
		if err != nil {
			log.Printf("[curate] redis unavailable, caching in memory only: %v", err)
		} else {
			backend = redisBackend
			defer redisBackend.Close()
			health.SetRedisConnected(true)
		}
	}

	health.CheckSQLite(ctx, writer.DB())
	if redisBackend != nil {
		health.StartLivenessChecker(ctx, redisBackend.Client(), writer.DB(), 15*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, writer.DB(), 15*time.Second)
	}

	cache := seriescache.New(loader(bars, cfg.BasePeriod), backend, m)

	insts := cfg.ParseInstruments()
	if len(insts) == 0 {
		if insts, err = names(cfg.BasePeriod); err != nil {
			log.Fatalf("[curate] list instruments: %v", err)
		}
	}
	variants := cfg.ParseTriggers()
	if len(variants) == 0 || len(insts) == 0 {
		log.Fatalf("[curate] nothing to do: %d triggers, %d instruments", len(variants), len(insts))
	}
	p, ok := trigger.PresetByName(cfg.Preset)
	if !ok {
		log.Fatalf("[curate] unknown preset %q", cfg.Preset)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatalf("[curate] output dir: %v", err)
	}

	health.SetTriggers(variants)
	health.SetScanning(true)
	slogger.Info("curation started", append(logger.Attrs(ctx),
		"triggers", variants, "instruments", insts, "preset", p.Name)...)

	c := &curator{
		cfg:     cfg,
		preset:  p,
		cache:   cache,
		writer:  writer,
		scanner: &trigger.Scanner{Metrics: m, Logger: slogger},
		log:     slogger,
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]string, len(variants))
		failed  int
	)
	for _, name := range variants {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			rows, err := c.run(ctx, name, insts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				results[name] = "failed: " + err.Error()
				slogger.Error("trigger failed", append(logger.Attrs(ctx), "trigger", name, "error", err)...)
				return
			}
			results[name] = strconv.Itoa(rows) + " rows"
		}(name)
	}
	wg.Wait()
	health.SetScanning(false)

	slogger.Info("curation finished", append(logger.Attrs(ctx),
		"triggers", len(variants), "failed", failed, "cached_series", cache.Len())...)

	alert := notification.Alert{
		Level:   notification.LevelInfo,
		Title:   "curation finished",
		Message: fmt.Sprintf("%d triggers over %d instruments, %d failed", len(variants), len(insts), failed),
		RunID:   logger.RunID(ctx),
		Fields:  results,
	}
	if failed > 0 {
		alert.Level = notification.LevelError
	}
	notifyCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	if err := notification.New(cfg.NotifyWebhook).Send(notifyCtx, alert); err != nil {
		log.Printf("[curate] notify: %v", err)
	}
	done()

	if failed > 0 {
		os.Exit(1)
	}
}

// openBars returns the configured bar store and a way to list its instruments.
func openBars(cfg *config.Config) (model.BarReader, func(period int) ([]string, error), error) {
	switch cfg.BarFormat {
	case "sqlite":
		r, err := sqlitestore.NewReader(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Instruments, nil
	case "parquet":
		s, err := parquetstore.Open(cfg.ParquetDir)
		if err != nil {
			return nil, nil, err
		}
		list := func(int) ([]string, error) {
			return nil, fmt.Errorf("parquet store cannot list instruments, set INSTRUMENTS")
		}
		return s, list, nil
	default:
		return nil, nil, fmt.Errorf("unknown BAR_FORMAT %q", cfg.BarFormat)
	}
}

// loader reads a series at the stored base period and resamples it to the
// requested one.
func loader(r model.BarReader, base int) seriescache.Loader {
	return func(ctx context.Context, key model.SeriesKey) ([]model.Bar, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if key.Period%base != 0 {
			return nil, fmt.Errorf("period %d is not a multiple of the stored %d", key.Period, base)
		}
		raw, err := r.ReadBars(model.SeriesKey{Instrument: key.Instrument, Period: base}, 0)
		if err != nil {
			return nil, err
		}
		if key.Period == base {
			return raw, nil
		}
		return resample.Aggregate(raw, key.Period)
	}
}

type curator struct {
	cfg     *config.Config
	preset  trigger.Preset
	cache   *seriescache.Cache
	writer  *sqlitestore.Writer
	scanner *trigger.Scanner
	log     *slog.Logger
}

// run scans every instrument with one trigger, then exports its dataset.
// It returns the number of rows exported.
func (c *curator) run(ctx context.Context, name string, instruments []string) (int, error) {
	t, err := trigger.NewByName(name)
	if err != nil {
		return 0, err
	}
	refKey := model.SeriesKey{Instrument: c.cfg.ReferenceInstrument, Period: t.Period()}
	ref, err := c.cache.Get(ctx, refKey)
	if err != nil {
		return 0, fmt.Errorf("reference series: %w", err)
	}

	for _, inst := range instruments {
		series, err := c.cache.Get(ctx, model.SeriesKey{Instrument: inst, Period: t.Period()})
		if err != nil {
			return 0, err
		}
		if _, err := c.scanner.Scan(ctx, t, inst, series, ref); err != nil {
			return 0, err
		}
	}
	if err := c.export(ctx, t); err != nil {
		return 0, err
	}
	return t.DataSet().Len(), nil
}

// export applies the preset, prunes, writes the CSV and stores the
// normalisation of the remaining inputs.
func (c *curator) export(ctx context.Context, t *trigger.Trigger) error {
	d := t.DataSet()
	if d.Len() == 0 {
		c.log.Warn("no rows, nothing exported", append(logger.Attrs(ctx), "trigger", t.Name())...)
		return nil
	}

	p := c.preset
	if err := t.ApplyPreset(p); err != nil {
		// the variant does not carry the preset's label: train on its first one
		p = trigger.Preset{Name: "first-label", Output: t.LabelNames()[0]}
		c.log.Warn("preset not applicable", append(logger.Attrs(ctx),
			"trigger", t.Name(), "preset", c.preset.Name, "fallback", p.Output)...)
		if err := t.ApplyPreset(p); err != nil {
			return err
		}
	}

	if c.cfg.PruneKeep > 0 {
		kept, err := d.PruneUseless(c.cfg.PruneKeep)
		if err != nil {
			return err
		}
		if len(kept) > 0 {
			c.log.Info("pruned inputs", append(logger.Attrs(ctx),
				"trigger", t.Name(), "kept", len(kept), "best", kept[0].Name)...)
		}
	}

	if c.cfg.ArchiveRows {
		if _, err := c.writer.ArchiveRows(logger.RunID(ctx), t.Name(), d); err != nil {
			return err
		}
	}

	path := filepath.Join(c.cfg.OutputDir, t.FileName())
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.WriteCSV(f, false); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := saveNormalisation(c.writer, t.Name()+"-"+p.Name, d, dataset.All); err != nil {
		return err
	}
	c.log.Info("dataset written", append(logger.Attrs(ctx),
		"trigger", t.Name(), "rows", d.Len(), "inputs", d.InputCount(), "output", p.Output, "path", path)...)
	return nil
}

// saveNormalisation fits a normalisation to the fold's inputs and stores it.
func saveNormalisation(w model.NormalisationStore, name string, d *dataset.DataSet, f dataset.Fold) error {
	inputs, err := d.Inputs(f)
	if err != nil {
		return err
	}
	n, err := norm.New(inputs)
	if err != nil {
		return err
	}
	mean, std, lo, hi := n.Vectors()
	return w.SaveNormalisation(name, d.InputNames(), mean, std, lo, hi)
}

// fit loads a dataset written by an earlier run, shuffles it once and
// stores the normalisation of its training fold.
func fit(w *sqlitestore.Writer, path, output string, k, index int, seed int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d, err := dataset.Load(f, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	if err := d.MarkOutput(output); err != nil {
		return err
	}
	train := dataset.TrainFold(k, index)
	rows, err := d.Indexes(train)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s-fold%d-of-%d", filepath.Base(path), index, k)
	if err := saveNormalisation(w, name, d, train); err != nil {
		return err
	}
	log.Printf("[curate] stored normalisation %s fitted to %d of %d rows", name, len(rows), d.Len())
	return nil
}
