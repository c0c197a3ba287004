// Package monitor contains the threshold tracker and the scheduler loop
// driving periodic traffic checks.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/state"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/vnstat"
)

// Shutdowner triggers the critical-threshold response.
type Shutdowner interface {
	Trigger(ctx context.Context) error
}

// StateStore persists tracker bookkeeping between restarts. A nil store
// keeps state in memory only.
type StateStore interface {
	Load(ctx context.Context, month string) (*state.Record, error)
	Save(ctx context.Context, rec *state.Record) error
}

// Config controls scheduler behavior.
type Config struct {
	CheckInterval             time.Duration
	DailyReportHour           int
	EnableStartupNotification bool
	EnableDailyReport         bool
	IncludeTrafficTrend       bool
	IncludeDailyBreakdown     bool
}

// Monitor composes the reader, tracker, sink and shutdown action into the
// polling loop. All mutable state is owned by the loop's goroutine.
type Monitor struct {
	reader   vnstat.Reader
	tracker  *Tracker
	sink     *alerts.Sink
	shutdown Shutdowner
	store    StateStore
	cfg      Config
	logger   *slog.Logger

	thresholds Thresholds
	state      TrackerState
	lastReport string // date of the last daily report, 2006-01-02

	now func() time.Time // test hook
}

// New wires up a monitor. store may be nil.
func New(reader vnstat.Reader, thresholds Thresholds, sink *alerts.Sink, shutdown Shutdowner, store StateStore, cfg Config, logger *slog.Logger) *Monitor {
	return &Monitor{
		reader:     reader,
		tracker:    NewTracker(thresholds, logger),
		sink:       sink,
		shutdown:   shutdown,
		store:      store,
		cfg:        cfg,
		logger:     logger,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Run executes the scheduler loop until ctx is cancelled. Startup errors
// (state load) are returned; per-cycle errors are logged and the loop keeps
// going.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.restoreState(ctx); err != nil {
		return err
	}

	m.logger.Info("starting traffic monitoring",
		"check_interval", m.cfg.CheckInterval,
		"total_limit_gb", m.thresholds.TotalLimitGB,
		"interval_gb", m.thresholds.IntervalGB,
		"critical_gb", m.thresholds.CriticalGB(),
	)

	if m.cfg.EnableStartupNotification {
		m.sendStartupNotification(ctx)
	}

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("traffic monitoring stopped")
			return nil
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) restoreState(ctx context.Context) error {
	if m.store == nil {
		m.state = TrackerState{Month: model.PeriodKey(m.now())}
		return nil
	}

	rec, err := m.store.Load(ctx, model.PeriodKey(m.now()))
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	m.state = TrackerState{
		Month:         rec.Month,
		LastInterval:  rec.LastInterval,
		CriticalFired: rec.CriticalFired,
	}
	m.lastReport = rec.LastReportDate

	if rec.LastInterval > 0 || rec.CriticalFired {
		m.logger.Info("restored notification state",
			"month", rec.Month,
			"last_interval", rec.LastInterval,
			"critical_fired", rec.CriticalFired,
		)
	}
	return nil
}

func (m *Monitor) persistState(ctx context.Context) {
	if m.store == nil {
		return
	}
	err := m.store.Save(ctx, &state.Record{
		Month:          m.state.Month,
		LastInterval:   m.state.LastInterval,
		CriticalFired:  m.state.CriticalFired,
		LastReportDate: m.lastReport,
	})
	if err != nil {
		m.logger.Error("persist state", "error", err)
	}
}

// poll runs one cycle: sample, classify, dispatch, shutdown on critical,
// then the daily report check. Failures skip the cycle; the next tick
// retries.
func (m *Monitor) poll(ctx context.Context) {
	sample, err := m.reader.Sample(ctx)
	if err != nil {
		m.logger.Error("sample traffic", "error", err)
		return
	}

	m.logger.Debug("sampled traffic",
		"monthly_gb", sample.MonthlyGB,
		"daily_gb", sample.DailyGB,
	)

	events := m.tracker.Classify(sample, &m.state)
	if len(events) > 0 {
		m.persistState(ctx)
	}

	for _, event := range events {
		m.sink.Dispatch(ctx, event)

		if event.Kind == alerts.KindCritical {
			m.logger.Warn("critical threshold reached, triggering shutdown",
				"monthly_gb", sample.MonthlyGB,
				"critical_gb", m.thresholds.CriticalGB(),
			)
			if err := m.shutdown.Trigger(ctx); err != nil {
				m.logger.Error("shutdown trigger failed", "error", err)
			}
		}
	}

	m.maybeSendDailyReport(ctx, sample)
}

// level grades an event by how close usage is to the limits, matching the
// thresholds used for staged report notifications.
func (m *Monitor) level(monthlyGB float64) alerts.Level {
	switch {
	case monthlyGB >= m.thresholds.CriticalGB():
		return alerts.LevelCritical
	case monthlyGB >= m.thresholds.TotalLimitGB*0.7:
		return alerts.LevelWarning
	default:
		return alerts.LevelInfo
	}
}

func (m *Monitor) history(ctx context.Context, days int) []model.DailyUsage {
	history, err := m.reader.DailyHistory(ctx, days)
	if err != nil {
		m.logger.Warn("daily history unavailable", "error", err)
		return nil
	}
	return history
}

func (m *Monitor) sendStartupNotification(ctx context.Context) {
	sample, err := m.reader.Sample(ctx)
	if err != nil {
		m.logger.Error("startup notification: sample traffic", "error", err)
		return
	}

	now := m.now()
	var history []model.DailyUsage
	if m.cfg.IncludeTrafficTrend {
		history = m.history(ctx, 7)
	}

	pct := (sample.MonthlyGB / m.thresholds.TotalLimitGB) * 100
	event := alerts.Event{
		ID:    uuid.New().String(),
		Kind:  alerts.KindStartup,
		Level: m.level(sample.MonthlyGB),
		Subject: fmt.Sprintf("Traffic Monitoring System Started - Current Usage: %.2fGB (%.1f%%)",
			sample.MonthlyGB, pct),
		Message:   buildStatusSummary(now, sample, m.thresholds, m.cfg.CheckInterval, history),
		MonthlyGB: sample.MonthlyGB,
		LimitGB:   m.thresholds.TotalLimitGB,
		At:        now,
	}
	m.sink.Dispatch(ctx, event)
	m.logger.Info("startup notification sent")
}

func (m *Monitor) maybeSendDailyReport(ctx context.Context, sample model.Sample) {
	if !m.cfg.EnableDailyReport {
		return
	}

	now := m.now()
	today := now.Format("2006-01-02")
	if m.lastReport == today || now.Hour() != m.cfg.DailyReportHour {
		return
	}

	// The daily series feeds both the trend section and yesterday's total;
	// skip the extra vnstat call only when neither is wanted.
	var history []model.DailyUsage
	if m.cfg.IncludeTrafficTrend || m.cfg.IncludeDailyBreakdown {
		history = m.history(ctx, 30)
	}

	pct := (sample.MonthlyGB / m.thresholds.TotalLimitGB) * 100
	event := alerts.Event{
		ID:    uuid.New().String(),
		Kind:  alerts.KindDailyReport,
		Level: m.level(sample.MonthlyGB),
		Subject: fmt.Sprintf("Traffic Daily Report - %s - Usage: %.2fGB (%.1f%%)",
			today, sample.MonthlyGB, pct),
		Message:   buildDailyReport(now, sample, m.thresholds, history, m.cfg.IncludeTrafficTrend),
		MonthlyGB: sample.MonthlyGB,
		LimitGB:   m.thresholds.TotalLimitGB,
		At:        now,
	}
	m.sink.Dispatch(ctx, event)

	m.lastReport = today
	m.persistState(ctx)
	m.logger.Info("daily traffic report sent", "date", today)
}

// StatusSummary renders the current status report for the CLI without
// starting the loop.
func StatusSummary(now time.Time, sample model.Sample, thresholds Thresholds, checkInterval time.Duration, history []model.DailyUsage) string {
	return buildStatusSummary(now, sample, thresholds, checkInterval, history)
}
