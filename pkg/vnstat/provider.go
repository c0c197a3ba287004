// Package vnstat reads traffic counters from a local vnstat installation.
package vnstat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ogulcanaydogan/traffic-guardian/pkg/model"
)

// ErrUnavailable indicates vnstat is not installed, not initialized for the
// configured interface, or did not respond within the call timeout.
var ErrUnavailable = errors.New("vnstat unavailable")

// ErrParse indicates vnstat produced output that does not match the expected
// JSON shape.
var ErrParse = errors.New("vnstat output parse error")

// DefaultTimeout bounds each vnstat invocation.
const DefaultTimeout = 10 * time.Second

// Reader provides current-period usage and a short historical series.
type Reader interface {
	// Sample returns the current month and day usage in GB.
	Sample(ctx context.Context) (model.Sample, error)

	// DailyHistory returns up to days entries of per-day usage, oldest
	// first. An empty series is not an error.
	DailyHistory(ctx context.Context, days int) ([]model.DailyUsage, error)
}

// Provider implements Reader by shelling out to the vnstat binary.
type Provider struct {
	iface   string
	timeout time.Duration
	logger  *slog.Logger

	// runner is swapped in tests to avoid requiring a vnstat install.
	runner func(ctx context.Context, args ...string) ([]byte, error)
}

// NewProvider creates a vnstat-backed reader. iface may be empty, in which
// case vnstat's default interface selection applies.
func NewProvider(iface string, logger *slog.Logger) *Provider {
	p := &Provider{
		iface:   iface,
		timeout: DefaultTimeout,
		logger:  logger,
	}
	p.runner = p.runVnstat
	return p
}

// Verify checks that the vnstat binary is present and responds. Called once
// at startup so a missing install fails fast instead of on the first poll.
func (p *Provider) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "vnstat", "--version").Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *Provider) runVnstat(ctx context.Context, args ...string) ([]byte, error) {
	cmd := []string{}
	if p.iface != "" {
		cmd = append(cmd, "-i", p.iface)
	}
	cmd = append(cmd, args...)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "vnstat", cmd...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: run vnstat: %v", ErrUnavailable, err)
	}
	return out, nil
}

// vnstat --json output shape. Counters are raw bytes.
type jsonOutput struct {
	Interfaces []struct {
		Name    string `json:"name"`
		Traffic struct {
			Months []jsonEntry `json:"month"`
			Days   []jsonEntry `json:"day"`
		} `json:"traffic"`
	} `json:"interfaces"`
}

type jsonEntry struct {
	Date struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Day   int `json:"day"`
	} `json:"date"`
	Rx uint64 `json:"rx"`
	Tx uint64 `json:"tx"`
}

func (p *Provider) query(ctx context.Context, mode string) (*jsonOutput, error) {
	raw, err := p.runner(ctx, "--json", mode)
	if err != nil {
		return nil, err
	}

	var out jsonOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", ErrParse, err)
	}
	if len(out.Interfaces) == 0 {
		return nil, fmt.Errorf("%w: no interface data", ErrParse)
	}
	return &out, nil
}

// Sample reads the current month and current day counters. The latest entry
// of each series is the in-progress period.
func (p *Provider) Sample(ctx context.Context) (model.Sample, error) {
	monthly, err := p.query(ctx, "m")
	if err != nil {
		return model.Sample{}, err
	}

	months := monthly.Interfaces[0].Traffic.Months
	if len(months) == 0 {
		return model.Sample{}, fmt.Errorf("%w: no monthly data", ErrParse)
	}
	cur := months[len(months)-1]

	sample := model.Sample{
		MonthlyGB: model.BytesToGB(cur.Rx + cur.Tx),
		SampledAt: time.Now(),
	}

	daily, err := p.query(ctx, "d")
	if err != nil {
		// Monthly data alone is enough to classify; the day counter only
		// feeds reports.
		p.logger.Warn("daily counter unavailable", "error", err)
		return sample, nil
	}
	if days := daily.Interfaces[0].Traffic.Days; len(days) > 0 {
		last := days[len(days)-1]
		sample.DailyGB = model.BytesToGB(last.Rx + last.Tx)
	}

	return sample, nil
}

// DailyHistory returns per-day totals for up to the last days entries.
func (p *Provider) DailyHistory(ctx context.Context, days int) ([]model.DailyUsage, error) {
	out, err := p.query(ctx, "d")
	if err != nil {
		return nil, err
	}

	entries := out.Interfaces[0].Traffic.Days
	if len(entries) > days {
		entries = entries[len(entries)-days:]
	}

	history := make([]model.DailyUsage, 0, len(entries))
	for _, e := range entries {
		history = append(history, model.DailyUsage{
			Date:    fmt.Sprintf("%04d-%02d-%02d", e.Date.Year, e.Date.Month, e.Date.Day),
			TotalGB: model.BytesToGB(e.Rx + e.Tx),
		})
	}
	return history, nil
}
