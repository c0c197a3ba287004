package monitor

import (
	"testing"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestRemainingDaysInMonth(t *testing.T) {
	// 2025-04-13 12:00 -> 17 full days until May 1st.
	assert.Equal(t, 17, remainingDaysInMonth(april))

	lastDay := time.Date(2025, 4, 30, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, remainingDaysInMonth(lastDay))
}

func TestMonthEndEstimate(t *testing.T) {
	// 650GB by day 13: 50GB/day average, 17 days left.
	avg, estimate := monthEndEstimate(april, 650)
	assert.InDelta(t, 50.0, avg, 0.001)
	assert.InDelta(t, 1500.0, estimate, 0.001)
}

func TestNextIntervalThreshold(t *testing.T) {
	th := testThresholds()
	assert.InDelta(t, 100.0, nextIntervalThreshold(95, th), 0.001)
	assert.InDelta(t, 200.0, nextIntervalThreshold(101, th), 0.001)
	assert.InDelta(t, 2000.0, nextIntervalThreshold(1950, th), 0.001)
	// Past the limit there is no next threshold.
	assert.Zero(t, nextIntervalThreshold(2005, th))
}

func TestBuildStatusSummary(t *testing.T) {
	history := []model.DailyUsage{
		{Date: "2025-04-12", TotalGB: 8.28},
		{Date: "2025-04-11", TotalGB: 9.59},
	}
	out := buildStatusSummary(april, sampleAt(650, april), testThresholds(), time.Hour, history)

	assert.Contains(t, out, "Current Month Usage: 650.00GB / 2000GB (32.5%)")
	assert.Contains(t, out, "Daily Average Usage: 50.00GB/day")
	assert.Contains(t, out, "Traffic until next threshold (700GB): 50.00GB")
	assert.Contains(t, out, "Traffic until shutdown threshold (1800GB): 1150.00GB")
	assert.Contains(t, out, "- 2025-04-12: 8.28GB")
	assert.Contains(t, out, "Check Interval: 1h0m0s")
	assert.NotContains(t, out, "shutdown threshold exceeded")
}

func TestBuildStatusSummary_Critical(t *testing.T) {
	out := buildStatusSummary(april, sampleAt(1850, april), testThresholds(), time.Hour, nil)
	assert.Contains(t, out, "shutdown threshold exceeded")
}

func TestBuildDailyReport(t *testing.T) {
	history := []model.DailyUsage{
		{Date: "2025-04-12", TotalGB: 120.0},
	}
	out := buildDailyReport(april, sampleAt(650, april), testThresholds(), history, true)

	assert.Contains(t, out, "Date: 2025-04-13")
	assert.Contains(t, out, "Yesterday's Total Usage: 120.00GB")
	// 120 > 1.5x the 50GB/day average.
	assert.Contains(t, out, "yesterday's traffic was high")
	assert.Contains(t, out, "Month-End Estimate: 1500.00GB")
	assert.NotContains(t, out, "monthly quota")
}

func TestBuildDailyReport_Warnings(t *testing.T) {
	out := buildDailyReport(april, sampleAt(1850, april), testThresholds(), nil, false)

	assert.Contains(t, out, "92.5% of the monthly quota")
	assert.Contains(t, out, "total traffic limit will be exceeded")
	assert.Contains(t, out, "Critical Warning: shutdown threshold reached (90%)")
}
