package alerts

import (
	"context"
	"time"
)

// Level indicates the severity of an alert.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Kind identifies what triggered an alert.
type Kind string

const (
	KindStartup     Kind = "startup"
	KindInterval    Kind = "interval_reached"
	KindCritical    Kind = "critical"
	KindDailyReport Kind = "daily_report"
)

// Event is a single alert produced by the tracker or scheduler and consumed
// by the notifier sink.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Level     Level     `json:"level"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	MonthlyGB float64   `json:"monthly_gb"`
	LimitGB   float64   `json:"limit_gb"`
	At        time.Time `json:"at"`
}

// UsagePct returns monthly usage as a percentage of the limit.
func (e Event) UsagePct() float64 {
	if e.LimitGB <= 0 {
		return 0
	}
	return (e.MonthlyGB / e.LimitGB) * 100
}

// Notifier delivers alerts to one external channel.
type Notifier interface {
	// Name returns the channel identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, event Event) error
}
