package monitor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
)

// Thresholds defines the traffic limits the tracker classifies against.
// Loaded once at startup and immutable for the process lifetime.
type Thresholds struct {
	TotalLimitGB float64
	IntervalGB   float64
	CriticalPct  float64
}

// Validate rejects unusable threshold configuration. Called at startup so
// classification never has to handle degenerate values.
func (t Thresholds) Validate() error {
	if t.TotalLimitGB <= 0 {
		return errors.New("total_limit_gb must be positive")
	}
	if t.IntervalGB <= 0 {
		return errors.New("interval_gb must be positive")
	}
	if t.CriticalPct <= 0 || t.CriticalPct > 100 {
		return errors.New("critical_percentage must be in (0, 100]")
	}
	return nil
}

// CriticalGB returns the usage level at which the critical alert fires.
func (t Thresholds) CriticalGB() float64 {
	return t.TotalLimitGB * t.CriticalPct / 100
}

// TrackerState is the per-billing-period bookkeeping. It is owned by the
// scheduler loop and mutated only by Classify.
type TrackerState struct {
	Month         string
	LastInterval  int
	CriticalFired bool
}

// Tracker decides which alerts a usage sample triggers.
type Tracker struct {
	thresholds Thresholds
	logger     *slog.Logger
}

// NewTracker creates a tracker. Thresholds must already be validated.
func NewTracker(thresholds Thresholds, logger *slog.Logger) *Tracker {
	return &Tracker{thresholds: thresholds, logger: logger}
}

// Classify evaluates one sample against the thresholds, mutating state as it
// goes. It returns zero, one, or two events: at most one interval alert (a
// large jump produces a single summarizing event, not one per crossed step)
// and at most one critical alert per billing period.
//
// Rollover detection is calendar-based: a sample from a new month resets the
// state. A raw counter decrease inside the same month is treated as a reader
// glitch and produces no alert and no reset.
func (t *Tracker) Classify(sample model.Sample, state *TrackerState) []alerts.Event {
	month := model.PeriodKey(sample.SampledAt)
	if state.Month != month {
		if state.Month != "" {
			t.logger.Info("billing period rollover, resetting notification state",
				"previous", state.Month,
				"current", month,
			)
		}
		*state = TrackerState{Month: month}
	}

	var events []alerts.Event

	idx := int(math.Floor(sample.MonthlyGB / t.thresholds.IntervalGB))
	if idx > state.LastInterval {
		threshold := float64(idx) * t.thresholds.IntervalGB
		events = append(events, alerts.Event{
			ID:      uuid.New().String(),
			Kind:    alerts.KindInterval,
			Level:   alerts.LevelWarning,
			Subject: fmt.Sprintf("Traffic Alert: %.0fGB threshold reached", threshold),
			Message: fmt.Sprintf(
				"Your network traffic has reached %.0fGB out of your %.0fGB limit. Current usage: %.2fGB.",
				threshold, t.thresholds.TotalLimitGB, sample.MonthlyGB,
			),
			MonthlyGB: sample.MonthlyGB,
			LimitGB:   t.thresholds.TotalLimitGB,
			At:        sample.SampledAt,
		})
		state.LastInterval = idx
	}

	if sample.MonthlyGB >= t.thresholds.CriticalGB() && !state.CriticalFired {
		events = append(events, alerts.Event{
			ID:      uuid.New().String(),
			Kind:    alerts.KindCritical,
			Level:   alerts.LevelCritical,
			Subject: "CRITICAL: Traffic Limit Nearly Exceeded - System Shutdown Imminent",
			Message: fmt.Sprintf(
				"CRITICAL WARNING: Your network traffic has reached %.2fGB, which exceeds the critical threshold of %.2fGB (%.0f%% of your %.0fGB limit). The system will now shut down to prevent exceeding your limit.",
				sample.MonthlyGB, t.thresholds.CriticalGB(), t.thresholds.CriticalPct, t.thresholds.TotalLimitGB,
			),
			MonthlyGB: sample.MonthlyGB,
			LimitGB:   t.thresholds.TotalLimitGB,
			At:        sample.SampledAt,
		})
		state.CriticalFired = true
	}

	return events
}
