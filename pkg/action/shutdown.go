// Package action executes system-level responses to critical alerts.
package action

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
)

// ShutdownAction schedules a delayed system shutdown. At most one shutdown
// is pending at a time; repeated triggers while one is pending are no-ops.
type ShutdownAction struct {
	delaySeconds int
	force        bool
	goos         string
	logger       *slog.Logger

	mu      sync.Mutex
	pending bool

	// runner is swapped in tests so the shutdown binary is never invoked.
	runner func(ctx context.Context, name string, args ...string) error
}

// NewShutdownAction creates a shutdown action for the current OS.
func NewShutdownAction(delaySeconds int, force bool, logger *slog.Logger) *ShutdownAction {
	return &ShutdownAction{
		delaySeconds: delaySeconds,
		force:        force,
		goos:         runtime.GOOS,
		logger:       logger,
		runner: func(ctx context.Context, name string, args ...string) error {
			out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%v: %s", err, out)
			}
			return nil
		},
	}
}

// command builds the platform shutdown invocation.
func (a *ShutdownAction) command() (string, []string, error) {
	switch a.goos {
	case "linux":
		args := []string{}
		if a.force {
			args = append(args, "-f")
		}
		args = append(args, "-h", fmt.Sprintf("+%d", a.delaySeconds/60))
		return "shutdown", args, nil

	case "darwin":
		mins := a.delaySeconds / 60
		if mins < 1 {
			mins = 1
		}
		return "shutdown", []string{"-h", fmt.Sprintf("+%d", mins)}, nil

	case "windows":
		args := []string{"/s"}
		if a.force {
			args = append(args, "/f")
		}
		args = append(args, "/t", fmt.Sprintf("%d", a.delaySeconds))
		return "shutdown", args, nil

	default:
		return "", nil, fmt.Errorf("shutdown not supported on %s", a.goos)
	}
}

// Trigger schedules the shutdown. A second call while one is pending does
// nothing and returns nil. A command failure is returned and not retried;
// the pending flag is cleared so a later poll may attempt again.
func (a *ShutdownAction) Trigger(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending {
		a.logger.Warn("shutdown already pending, ignoring trigger")
		return nil
	}

	name, args, err := a.command()
	if err != nil {
		return err
	}

	a.logger.Warn("executing shutdown command",
		"command", name,
		"args", args,
		"delay_seconds", a.delaySeconds,
	)

	if err := a.runner(ctx, name, args...); err != nil {
		return fmt.Errorf("shutdown command failed: %w", err)
	}

	a.pending = true
	return nil
}

// Cancel aborts a pending shutdown.
func (a *ShutdownAction) Cancel(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.pending {
		return nil
	}

	var name string
	var args []string
	switch a.goos {
	case "windows":
		name, args = "shutdown", []string{"/a"}
	default:
		name, args = "shutdown", []string{"-c"}
	}

	if err := a.runner(ctx, name, args...); err != nil {
		return fmt.Errorf("cancel shutdown: %w", err)
	}

	a.pending = false
	a.logger.Info("pending shutdown cancelled")
	return nil
}

// Pending reports whether a shutdown has been scheduled and not cancelled.
func (a *ShutdownAction) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}
