package trigger

import (
	"context"
	"log/slog"
	"time"

	"trading-featuresv1/internal/logger"
	"trading-featuresv1/internal/metrics"
	"trading-featuresv1/internal/model"
)

// startMargin is added to a month of history before the first scanned index.
const startMargin = 50

// Start is the first index a scan evaluates at period.
func Start(period int) int { return Ratio(OneMonth, period) + startMargin }

// Summary counts what one scan did.
type Summary struct {
	Trigger    string
	Instrument string
	Scanned    int
	Inserted   int
	Skipped    int
}

// Scanner feeds every index of a series to a trigger. Metrics may be nil.
type Scanner struct {
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Scan runs t over bars from Start(t.Period()). ref is the reference series
// at the same period; it is aligned to bars by timestamp first. The context
// is checked between bars.
func (s *Scanner) Scan(ctx context.Context, t *Trigger, instrument string, bars, ref []model.Bar) (Summary, error) {
	sum := Summary{Trigger: t.Name(), Instrument: instrument}
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(append(logger.Attrs(ctx), "trigger", t.Name(), "instrument", instrument)...)

	aligned := Align(bars, ref)
	for i := Start(t.Period()); i < len(bars); i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		start := time.Now()
		outcome, err := t.AddIfTriggered(bars, aligned, i, instrument)
		if err != nil {
			log.Error("scan failed", "index", i, "error", err)
			return sum, err
		}
		sum.Scanned++
		switch outcome {
		case Inserted:
			sum.Inserted++
		case Skipped:
			sum.Skipped++
		}
		s.observe(t.Name(), outcome, time.Since(start))
	}
	log.Info("scan complete",
		"scanned", sum.Scanned,
		"inserted", sum.Inserted,
		"skipped", sum.Skipped,
		"rows", t.DataSet().Len(),
	)
	return sum, nil
}

func (s *Scanner) observe(name string, outcome Outcome, d time.Duration) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.BarsScanned.WithLabelValues(name).Inc()
	s.Metrics.MaterializeDur.Observe(d.Seconds())
	switch outcome {
	case Inserted:
		s.Metrics.TriggersHit.WithLabelValues(name).Inc()
		s.Metrics.RowsInserted.WithLabelValues(name).Inc()
	case Skipped:
		s.Metrics.TriggersHit.WithLabelValues(name).Inc()
		s.Metrics.RowsSkipped.WithLabelValues(name).Inc()
	}
}

// Align returns ref reindexed to bars: element i is the reference bar with
// bars[i]'s timestamp, or a zero Bar when the reference has none. Both
// series must be ordered by timestamp.
func Align(bars, ref []model.Bar) []model.Bar {
	out := make([]model.Bar, len(bars))
	j := 0
	for i, b := range bars {
		for j < len(ref) && ref[j].Timestamp < b.Timestamp {
			j++
		}
		if j < len(ref) && ref[j].Timestamp == b.Timestamp {
			out[i] = ref[j]
		}
	}
	return out
}
