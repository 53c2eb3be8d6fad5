package trigger

// Durations in seconds. A bar period is one of these as well.
const (
	FiveMinutes = 300
	QuarterHour = 900
	HalfHour    = 1800
	OneHour     = 3600
	TwoHours    = 2 * OneHour
	FourHours   = 4 * OneHour
	SixHours    = 6 * OneHour
	TwelveHours = 12 * OneHour
	OneDay      = 24 * OneHour
	TwoDays     = 2 * OneDay
	ThreeDays   = 3 * OneDay
	FiveDays    = 5 * OneDay
	OneWeek     = 7 * OneDay
	Fortnight   = 14 * OneDay
	OneMonth    = 28 * OneDay
)

// Ratio is the number of bars of the given period that cover duration,
// rounded up so a window never falls short of the duration.
func Ratio(duration, period int) int {
	if period <= 0 {
		return 0
	}
	return (duration + period - 1) / period
}
