package model

import (
	"encoding/json"
	"math"
)

// Bar is one OHLCV sample of a series at a fixed period.
// Bars of a series are ordered by Timestamp and never mutated after loading.
type Bar struct {
	Timestamp       int64   `json:"date" parquet:"date"` // Unix seconds, bucket start
	Open            float64 `json:"open" parquet:"open"`
	High            float64 `json:"high" parquet:"high"`
	Low             float64 `json:"low" parquet:"low"`
	Close           float64 `json:"close" parquet:"close"`
	Volume          float64 `json:"volume" parquet:"volume"`
	QuoteVolume     float64 `json:"quoteVolume" parquet:"quote_volume"`
	WeightedAverage float64 `json:"weightedAverage" parquet:"weighted_average"`
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// Delta is the percentage change from open to close.
func (b Bar) Delta() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open * 100
}

// WeightAveragePos places the weighted average inside the bar's range, scaled to [-1, 1].
// Zero-range bars report 0.
func (b Bar) WeightAveragePos() float64 {
	if b.High-b.Low == 0 {
		return 0
	}
	return ((b.WeightedAverage-b.Low)/(b.High-b.Low) - 0.5) * 2
}

// ShadowToBody is the bar body size capped at 5. When the range-to-body ratio
// evaluates to exactly zero the range/5 is used instead.
func (b Bar) ShadowToBody() float64 {
	rng := b.High - b.Low
	body := b.Close - b.Open
	v := body
	if rng/body == 0 {
		v = rng / 5
	}
	return math.Min(math.Abs(v), 5)
}

// ShadowPosition is 1 when the whole shadow sits above the body and -1 when it
// sits below. Doji bars report the absolute imbalance.
func (b Bar) ShadowPosition() float64 {
	var above, below float64
	switch {
	case b.Close > b.Open:
		above, below = b.High-b.Open, b.Close-b.Low
	case b.Open > b.Close:
		above, below = b.High-b.Close, b.Open-b.Low
	default:
		above, below = b.High-b.Open, b.High-b.Close
		if above+below == 0 {
			return 0
		}
		return math.Abs((above - below) / (above + below))
	}
	if above+below == 0 {
		return 0
	}
	return (above - below) / (above + below)
}
