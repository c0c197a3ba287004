package monitor

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testThresholds() Thresholds {
	return Thresholds{TotalLimitGB: 2000, IntervalGB: 100, CriticalPct: 90}
}

func sampleAt(monthlyGB float64, t time.Time) model.Sample {
	return model.Sample{MonthlyGB: monthlyGB, SampledAt: t}
}

var april = time.Date(2025, 4, 13, 12, 0, 0, 0, time.UTC)

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		th      Thresholds
		wantErr string
	}{
		{"valid", Thresholds{TotalLimitGB: 2000, IntervalGB: 100, CriticalPct: 90}, ""},
		{"full percentage", Thresholds{TotalLimitGB: 100, IntervalGB: 10, CriticalPct: 100}, ""},
		{"zero limit", Thresholds{TotalLimitGB: 0, IntervalGB: 100, CriticalPct: 90}, "total_limit_gb"},
		{"negative interval", Thresholds{TotalLimitGB: 2000, IntervalGB: -1, CriticalPct: 90}, "interval_gb"},
		{"zero interval", Thresholds{TotalLimitGB: 2000, IntervalGB: 0, CriticalPct: 90}, "interval_gb"},
		{"zero percentage", Thresholds{TotalLimitGB: 2000, IntervalGB: 100, CriticalPct: 0}, "critical_percentage"},
		{"over 100", Thresholds{TotalLimitGB: 2000, IntervalGB: 100, CriticalPct: 101}, "critical_percentage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.th.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestThresholds_CriticalGB(t *testing.T) {
	assert.InDelta(t, 1800.0, testThresholds().CriticalGB(), 0.001)
}

func TestTracker_Classify_IntervalSequence(t *testing.T) {
	// 95 -> 101 -> 150 -> 199 -> 205: interval events only at 101 and 205.
	tracker := NewTracker(testThresholds(), testLogger())
	st := &TrackerState{}

	type step struct {
		usage     float64
		wantEvent bool
		wantIndex int
	}
	steps := []step{
		{95, false, 0},
		{101, true, 1},
		{150, false, 1},
		{199, false, 1},
		{205, true, 2},
	}

	for _, s := range steps {
		events := tracker.Classify(sampleAt(s.usage, april), st)
		if s.wantEvent {
			require.Len(t, events, 1, "usage %.0f", s.usage)
			assert.Equal(t, alerts.KindInterval, events[0].Kind)
			assert.Equal(t, alerts.LevelWarning, events[0].Level)
		} else {
			assert.Empty(t, events, "usage %.0f", s.usage)
		}
		assert.Equal(t, s.wantIndex, st.LastInterval, "usage %.0f", s.usage)
	}
}

func TestTracker_Classify_LargeJumpSingleEvent(t *testing.T) {
	// A jump over several boundaries (e.g. after downtime) emits one
	// summarizing event, not one per crossed step.
	tracker := NewTracker(testThresholds(), testLogger())
	st := &TrackerState{}

	events := tracker.Classify(sampleAt(550, april), st)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Subject, "500GB")
	assert.Equal(t, 5, st.LastInterval)

	// Re-sampling at the same index emits nothing.
	events = tracker.Classify(sampleAt(550, april), st)
	assert.Empty(t, events)
}

func TestTracker_Classify_CriticalBoundary(t *testing.T) {
	// limit 2000, pct 90: critical fires first at exactly 1800.
	tracker := NewTracker(testThresholds(), testLogger())

	st := &TrackerState{Month: model.PeriodKey(april), LastInterval: 17}
	events := tracker.Classify(sampleAt(1799.9, april), st)
	for _, e := range events {
		assert.NotEqual(t, alerts.KindCritical, e.Kind)
	}
	assert.False(t, st.CriticalFired)

	st = &TrackerState{Month: model.PeriodKey(april), LastInterval: 18}
	events = tracker.Classify(sampleAt(1800.0, april), st)
	require.Len(t, events, 1)
	assert.Equal(t, alerts.KindCritical, events[0].Kind)
	assert.Equal(t, alerts.LevelCritical, events[0].Level)
	assert.True(t, st.CriticalFired)
}

func TestTracker_Classify_CriticalFiresOncePerPeriod(t *testing.T) {
	tracker := NewTracker(testThresholds(), testLogger())
	st := &TrackerState{Month: model.PeriodKey(april), LastInterval: 18}

	critical := 0
	for _, usage := range []float64{1850, 1860, 1870, 1900} {
		for _, e := range tracker.Classify(sampleAt(usage, april), st) {
			if e.Kind == alerts.KindCritical {
				critical++
			}
		}
	}
	assert.Equal(t, 1, critical)
}

func TestTracker_Classify_IntervalAndCriticalTogether(t *testing.T) {
	// One sample can cross an interval boundary and the critical threshold.
	tracker := NewTracker(testThresholds(), testLogger())
	st := &TrackerState{Month: model.PeriodKey(april), LastInterval: 17}

	events := tracker.Classify(sampleAt(1805, april), st)
	require.Len(t, events, 2)
	assert.Equal(t, alerts.KindInterval, events[0].Kind)
	assert.Equal(t, alerts.KindCritical, events[1].Kind)
}

func TestTracker_Classify_MonthRolloverResets(t *testing.T) {
	// Usage dropping from 1850 to 5 at a month boundary resets both the
	// interval index and the critical flag.
	tracker := NewTracker(testThresholds(), testLogger())
	st := &TrackerState{}

	events := tracker.Classify(sampleAt(1850, april), st)
	require.NotEmpty(t, events)
	assert.True(t, st.CriticalFired)
	assert.Equal(t, 18, st.LastInterval)

	may := time.Date(2025, 5, 1, 0, 30, 0, 0, time.UTC)
	events = tracker.Classify(sampleAt(5, may), st)
	assert.Empty(t, events)
	assert.Equal(t, model.PeriodKey(may), st.Month)
	assert.Zero(t, st.LastInterval)
	assert.False(t, st.CriticalFired)
}

func TestTracker_Classify_CounterGlitchNoReset(t *testing.T) {
	// A raw decrease inside the same month is a reader glitch: no alert,
	// no reset, no duplicate when the counter recovers.
	tracker := NewTracker(testThresholds(), testLogger())
	st := &TrackerState{}

	tracker.Classify(sampleAt(250, april), st)
	require.Equal(t, 2, st.LastInterval)

	events := tracker.Classify(sampleAt(30, april.Add(time.Hour)), st)
	assert.Empty(t, events)
	assert.Equal(t, 2, st.LastInterval)

	events = tracker.Classify(sampleAt(255, april.Add(2*time.Hour)), st)
	assert.Empty(t, events)
	assert.Equal(t, 2, st.LastInterval)
}

func TestTracker_Classify_ExactBoundary(t *testing.T) {
	tracker := NewTracker(testThresholds(), testLogger())
	st := &TrackerState{}

	events := tracker.Classify(sampleAt(100.0, april), st)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Subject, "100GB")
	assert.Equal(t, 1, st.LastInterval)
}
