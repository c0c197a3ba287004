package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
	"github.com/ogulcanaydogan/traffic-guardian/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	sample       model.Sample
	sampleErr    error
	history      []model.DailyUsage
	historyErr   error
	historyCalls int
}

func (f *fakeReader) Sample(context.Context) (model.Sample, error) {
	return f.sample, f.sampleErr
}

func (f *fakeReader) DailyHistory(context.Context, int) ([]model.DailyUsage, error) {
	f.historyCalls++
	return f.history, f.historyErr
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []alerts.Event
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Send(_ context.Context, e alerts.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingNotifier) byKind(kind alerts.Kind) []alerts.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []alerts.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakeShutdown struct {
	calls int
	err   error
}

func (f *fakeShutdown) Trigger(context.Context) error {
	f.calls++
	return f.err
}

func newTestMonitor(t *testing.T, reader *fakeReader, store StateStore, cfg Config) (*Monitor, *recordingNotifier, *fakeShutdown) {
	t.Helper()
	notifier := &recordingNotifier{}
	shutdown := &fakeShutdown{}
	sink := alerts.NewSink([]alerts.Notifier{notifier}, testLogger())
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Hour
	}
	m := New(reader, testThresholds(), sink, shutdown, store, cfg, testLogger())
	m.now = func() time.Time { return april }
	return m, notifier, shutdown
}

func TestMonitor_Poll_IntervalAlert(t *testing.T) {
	reader := &fakeReader{sample: sampleAt(101, april)}
	m, notifier, shutdown := newTestMonitor(t, reader, nil, Config{})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())

	events := notifier.byKind(alerts.KindInterval)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Subject, "100GB")
	assert.Zero(t, shutdown.calls)
}

func TestMonitor_Poll_CriticalTriggersShutdownOnce(t *testing.T) {
	reader := &fakeReader{sample: sampleAt(1850, april)}
	m, notifier, shutdown := newTestMonitor(t, reader, nil, Config{})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())
	// Usage stays critical over subsequent polls.
	m.poll(context.Background())
	m.poll(context.Background())

	assert.Len(t, notifier.byKind(alerts.KindCritical), 1)
	assert.Equal(t, 1, shutdown.calls)
}

func TestMonitor_Poll_ShutdownFailureLoggedNotFatal(t *testing.T) {
	reader := &fakeReader{sample: sampleAt(1850, april)}
	m, _, shutdown := newTestMonitor(t, reader, nil, Config{})
	shutdown.err = errors.New("insufficient privilege")
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())
	assert.Equal(t, 1, shutdown.calls)

	// Loop keeps polling after a failed shutdown attempt.
	m.poll(context.Background())
	assert.NotEmpty(t, m.state.Month)
}

func TestMonitor_Poll_ReaderErrorSkipsCycle(t *testing.T) {
	reader := &fakeReader{sampleErr: errors.New("vnstat unavailable")}
	m, notifier, shutdown := newTestMonitor(t, reader, nil, Config{})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())

	assert.Empty(t, notifier.events)
	assert.Zero(t, shutdown.calls)

	// Once the reader recovers, classification picks up where it left off.
	reader.sampleErr = nil
	reader.sample = sampleAt(101, april)
	m.poll(context.Background())
	assert.Len(t, notifier.byKind(alerts.KindInterval), 1)
}

func TestMonitor_DailyReport_OncePerDay(t *testing.T) {
	reader := &fakeReader{
		sample: sampleAt(500, april),
		history: []model.DailyUsage{
			{Date: "2025-04-12", TotalGB: 8.28},
		},
	}
	m, notifier, _ := newTestMonitor(t, reader, nil, Config{
		EnableDailyReport:   true,
		DailyReportHour:     12, // april fixture is at 12:00
		IncludeTrafficTrend: true,
	})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())
	m.poll(context.Background())

	reports := notifier.byKind(alerts.KindDailyReport)
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Subject, "2025-04-13")
	assert.Contains(t, reports[0].Message, "Yesterday's Total Usage: 8.28GB")
}

func TestMonitor_DailyReport_BreakdownFetchesHistoryWithoutTrend(t *testing.T) {
	// Yesterday's total still needs the daily series even when the trend
	// section is turned off.
	reader := &fakeReader{
		sample: sampleAt(500, april),
		history: []model.DailyUsage{
			{Date: "2025-04-12", TotalGB: 8.28},
		},
	}
	m, notifier, _ := newTestMonitor(t, reader, nil, Config{
		EnableDailyReport:     true,
		DailyReportHour:       12,
		IncludeTrafficTrend:   false,
		IncludeDailyBreakdown: true,
	})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())

	reports := notifier.byKind(alerts.KindDailyReport)
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Message, "Yesterday's Total Usage: 8.28GB")
	assert.NotContains(t, reports[0].Message, "Last 7 Days Traffic Trend")
	assert.Equal(t, 1, reader.historyCalls)
}

func TestMonitor_DailyReport_NoHistoryFetchWhenBreakdownAndTrendOff(t *testing.T) {
	reader := &fakeReader{
		sample: sampleAt(500, april),
		history: []model.DailyUsage{
			{Date: "2025-04-12", TotalGB: 8.28},
		},
	}
	m, notifier, _ := newTestMonitor(t, reader, nil, Config{
		EnableDailyReport: true,
		DailyReportHour:   12,
	})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())

	reports := notifier.byKind(alerts.KindDailyReport)
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Message, "Yesterday's Total Usage: 0.00GB")
	assert.Zero(t, reader.historyCalls)
}

func TestMonitor_DailyReport_WrongHour(t *testing.T) {
	reader := &fakeReader{sample: sampleAt(500, april)}
	m, notifier, _ := newTestMonitor(t, reader, nil, Config{
		EnableDailyReport: true,
		DailyReportHour:   8, // fixture is at 12:00
	})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())
	assert.Empty(t, notifier.byKind(alerts.KindDailyReport))
}

func TestMonitor_DailyReport_Disabled(t *testing.T) {
	reader := &fakeReader{sample: sampleAt(500, april)}
	m, notifier, _ := newTestMonitor(t, reader, nil, Config{
		EnableDailyReport: false,
		DailyReportHour:   12,
	})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())
	assert.Empty(t, notifier.byKind(alerts.KindDailyReport))
}

func TestMonitor_StartupNotification(t *testing.T) {
	reader := &fakeReader{sample: sampleAt(300, april)}
	m, notifier, _ := newTestMonitor(t, reader, nil, Config{EnableStartupNotification: true})
	require.NoError(t, m.restoreState(context.Background()))

	m.sendStartupNotification(context.Background())

	events := notifier.byKind(alerts.KindStartup)
	require.Len(t, events, 1)
	assert.Equal(t, alerts.LevelInfo, events[0].Level)
	assert.Contains(t, events[0].Subject, "300.00GB")
	assert.Contains(t, events[0].Message, "Status Report")
}

func TestMonitor_StartupNotification_CriticalLevel(t *testing.T) {
	reader := &fakeReader{sample: sampleAt(1900, april)}
	m, notifier, _ := newTestMonitor(t, reader, nil, Config{EnableStartupNotification: true})
	require.NoError(t, m.restoreState(context.Background()))

	m.sendStartupNotification(context.Background())

	events := notifier.byKind(alerts.KindStartup)
	require.Len(t, events, 1)
	assert.Equal(t, alerts.LevelCritical, events[0].Level)
}

func TestMonitor_StatePersistedAcrossRestarts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store, err := state.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	reader := &fakeReader{sample: sampleAt(350, april)}
	m, notifier, _ := newTestMonitor(t, reader, store, Config{})
	require.NoError(t, m.restoreState(context.Background()))

	m.poll(context.Background())
	require.Len(t, notifier.byKind(alerts.KindInterval), 1)

	// A fresh monitor over the same store must not re-alert at index 3.
	m2, notifier2, _ := newTestMonitor(t, reader, store, Config{})
	require.NoError(t, m2.restoreState(context.Background()))
	assert.Equal(t, 3, m2.state.LastInterval)

	m2.poll(context.Background())
	assert.Empty(t, notifier2.byKind(alerts.KindInterval))
}

func TestMonitor_Run_StopsOnCancel(t *testing.T) {
	reader := &fakeReader{sample: sampleAt(50, april)}
	m, _, _ := newTestMonitor(t, reader, nil, Config{CheckInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on context cancellation")
	}
}
