package model

import "strconv"

// SeriesKey identifies one bar series: an instrument sampled at a period (seconds).
type SeriesKey struct {
	Instrument string
	Period     int
}

// String returns "instrument:period", the key used by caches and file names.
func (k SeriesKey) String() string {
	return k.Instrument + ":" + strconv.Itoa(k.Period)
}

// Series is a keyed, timestamp-ordered run of bars.
type Series struct {
	Key  SeriesKey
	Bars []Bar
}

// IndexOf returns the index of the bar whose timestamp equals ts, or -1.
// Bars are ordered, so the lookup is a binary search.
func (s *Series) IndexOf(ts int64) int {
	lo, hi := 0, len(s.Bars)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch t := s.Bars[mid].Timestamp; {
		case t == ts:
			return mid
		case t < ts:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}
