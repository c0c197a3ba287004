package model

import "time"

// BytesPerGB is the conversion factor between raw byte counters and
// gigabyte-denominated values. vnstat reports binary units (GiB), so the
// factor is 2^30, not 10^9. Mixing this up against a quota stated in decimal
// GB over-reports usage by roughly 7%.
const BytesPerGB = float64(1 << 30)

// BytesToGB converts a raw byte counter to gigabytes using the binary factor.
func BytesToGB(b uint64) float64 {
	return float64(b) / BytesPerGB
}

// Sample is one poll of the traffic counters. Samples are immutable and
// discarded once the tracker has classified them.
type Sample struct {
	MonthlyGB float64   `json:"monthly_gb"`
	DailyGB   float64   `json:"daily_gb"`
	SampledAt time.Time `json:"sampled_at"`
}

// DailyUsage is one day of the historical series, oldest first.
type DailyUsage struct {
	Date    string  `json:"date"` // 2006-01-02
	TotalGB float64 `json:"total_gb"`
}

// PeriodKey returns the billing-period identifier for a point in time.
// Periods follow the calendar month, matching vnstat's own monthly counters.
func PeriodKey(t time.Time) string {
	return t.Format("2006-01")
}
