package monitor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
)

// remainingDaysInMonth returns whole days left until the first of the next
// month.
func remainingDaysInMonth(now time.Time) int {
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	return int(firstOfNext.Sub(now).Hours() / 24)
}

// monthEndEstimate projects the month total assuming the daily average so
// far continues.
func monthEndEstimate(now time.Time, monthlyGB float64) (dailyAvg, estimate float64) {
	dailyAvg = monthlyGB / float64(now.Day())
	estimate = monthlyGB + dailyAvg*float64(remainingDaysInMonth(now))
	return dailyAvg, estimate
}

// nextIntervalThreshold returns the first interval boundary above the
// current usage, or 0 when usage is already past the last one.
func nextIntervalThreshold(monthlyGB float64, t Thresholds) float64 {
	next := (math.Floor(monthlyGB/t.IntervalGB) + 1) * t.IntervalGB
	if next > t.TotalLimitGB {
		return 0
	}
	return next
}

func appendTrend(b *strings.Builder, now time.Time, history []model.DailyUsage) {
	byDate := make(map[string]float64, len(history))
	for _, d := range history {
		byDate[d.Date] = d.TotalGB
	}

	b.WriteString("\nLast 7 Days Traffic Trend:\n")
	for i := 7; i >= 1; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		fmt.Fprintf(b, "- %s: %.2fGB\n", date, byDate[date])
	}
}

// buildStatusSummary renders the startup/status report for the current
// usage level.
func buildStatusSummary(now time.Time, sample model.Sample, t Thresholds, checkInterval time.Duration, history []model.DailyUsage) string {
	pct := (sample.MonthlyGB / t.TotalLimitGB) * 100
	dailyAvg, estimate := monthEndEstimate(now, sample.MonthlyGB)

	var b strings.Builder
	b.WriteString("Traffic Monitoring System Status Report\n\n")
	b.WriteString("Current Traffic Usage Summary:\n----------------------\n")
	fmt.Fprintf(&b, "Current Date: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Current Month Usage: %.2fGB / %.0fGB (%.1f%%)\n", sample.MonthlyGB, t.TotalLimitGB, pct)
	if sample.MonthlyGB >= t.CriticalGB() {
		b.WriteString("Warning: shutdown threshold exceeded!\n")
	}
	fmt.Fprintf(&b, "\nDaily Average Usage: %.2fGB/day\n", dailyAvg)
	fmt.Fprintf(&b, "Remaining Days in Month: %d days\n", remainingDaysInMonth(now))
	fmt.Fprintf(&b, "Estimated Month-End Total: %.2fGB\n", estimate)

	if next := nextIntervalThreshold(sample.MonthlyGB, t); next > 0 {
		fmt.Fprintf(&b, "\nTraffic until next threshold (%.0fGB): %.2fGB\n", next, next-sample.MonthlyGB)
	}
	if remaining := t.CriticalGB() - sample.MonthlyGB; remaining > 0 {
		fmt.Fprintf(&b, "Traffic until shutdown threshold (%.0fGB): %.2fGB\n", t.CriticalGB(), remaining)
	}

	if len(history) > 0 {
		appendTrend(&b, now, history)
	}

	b.WriteString("\nTraffic Monitor Settings:\n----------------------\n")
	fmt.Fprintf(&b, "Total Traffic Limit: %.0fGB\n", t.TotalLimitGB)
	fmt.Fprintf(&b, "Warning Threshold Interval: warning sent every %.0fGB\n", t.IntervalGB)
	fmt.Fprintf(&b, "Shutdown Threshold: %.0fGB (%.0f%%)\n", t.CriticalGB(), t.CriticalPct)
	fmt.Fprintf(&b, "Check Interval: %s\n", checkInterval)
	b.WriteString("\nThis is an automated notification, please do not reply.\n")

	return b.String()
}

// buildDailyReport renders the once-a-day traffic report.
func buildDailyReport(now time.Time, sample model.Sample, t Thresholds, history []model.DailyUsage, includeTrend bool) string {
	pct := (sample.MonthlyGB / t.TotalLimitGB) * 100
	dailyAvg, estimate := monthEndEstimate(now, sample.MonthlyGB)

	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	var yesterdayGB float64
	for _, d := range history {
		if d.Date == yesterday {
			yesterdayGB = d.TotalGB
			break
		}
	}

	var b strings.Builder
	b.WriteString("Traffic Monitoring System - Daily Traffic Report\n\n")
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format("2006-01-02"))
	b.WriteString("Yesterday's Traffic Usage:\n----------------------\n")
	fmt.Fprintf(&b, "Yesterday's Total Usage: %.2fGB\n", yesterdayGB)
	if yesterdayGB > dailyAvg*1.5 {
		b.WriteString("Warning: yesterday's traffic was high!\n")
	}
	b.WriteString("\nCurrent Month Cumulative Traffic Usage:\n----------------------\n")
	fmt.Fprintf(&b, "Current Month Total: %.2fGB / %.0fGB (%.1f%%)\n", sample.MonthlyGB, t.TotalLimitGB, pct)
	fmt.Fprintf(&b, "Daily Average Usage: %.2fGB/day\n", dailyAvg)
	fmt.Fprintf(&b, "Remaining Days: %d days\n", remainingDaysInMonth(now))
	fmt.Fprintf(&b, "Month-End Estimate: %.2fGB\n", estimate)

	if includeTrend && len(history) > 0 {
		appendTrend(&b, now, history)
	}

	if pct > 70 {
		fmt.Fprintf(&b, "\nWarning: current traffic has used %.1f%% of the monthly quota!\n", pct)
	}
	if estimate > t.TotalLimitGB {
		b.WriteString("\nWarning: at the current usage rate the total traffic limit will be exceeded this month!\n")
	}
	if sample.MonthlyGB >= t.CriticalGB() {
		fmt.Fprintf(&b, "\nCritical Warning: shutdown threshold reached (%.0f%%)! System may shut down at any time.\n", t.CriticalPct)
	}

	b.WriteString("\nThis is an automated traffic report, please do not reply.\n")
	return b.String()
}
