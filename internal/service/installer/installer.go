package installer

import (
	"context"
	"errors"
	"fmt"
	"os"

	domain "github.com/oshokin/eap-updater/internal/domain/update"
	"github.com/oshokin/eap-updater/internal/logger"
	"github.com/oshokin/eap-updater/internal/repository/plugins"
)

var errAlreadyRunning = errors.New("an install is already running")

// Task prepares and applies one selected update as a background operation
// with exactly-once completion reporting.
type Task struct {
	// tracker is the plugin-state boundary of the host environment.
	tracker plugins.Tracker
	// guarded enables the marker-file single-instance guard.
	guarded bool
}

// NewTask creates an install task over the provided tracker.
func NewTask(tracker plugins.Tracker) *Task {
	return &Task{
		tracker: tracker,
		guarded: true,
	}
}

// NewUnguardedTask creates a task without the marker-file guard, for callers
// that already serialize installs (tests, embedded hosts).
func NewUnguardedTask(tracker plugins.Tracker) *Task {
	return &Task{tracker: tracker}
}

// Run starts the install as a one-shot background operation and returns the
// channel on which exactly one terminal Outcome is delivered.
func (t *Task) Run(ctx context.Context, downloader *domain.Downloader) <-chan domain.Outcome[bool] {
	outcomes := make(chan domain.Outcome[bool], 1)

	go func() {
		outcomes <- t.Install(ctx, downloader)
	}()

	return outcomes
}

// Install executes the install cycle and produces its single terminal outcome:
// Success(true) when the update was applied, Success(false) when preparation
// or application silently declined, Cancelled on cooperative cancellation,
// Failed on any error. The tracker's pending entry never outlives the cycle.
func (t *Task) Install(ctx context.Context, downloader *domain.Downloader) domain.Outcome[bool] {
	descriptor := downloader.Descriptor
	ctx = logger.WithKV(ctx, "plugin", descriptor.PluginID)

	if t.guarded {
		release, err := t.acquireMarker(ctx)
		if err != nil {
			return domain.Failed[bool](err)
		}

		defer release()
	}

	if err := t.tracker.OnDescriptorDownload(ctx, descriptor); err != nil {
		return domain.Failed[bool](fmt.Errorf("register pending install: %w", err))
	}

	// The pending entry's lifecycle is tied one-to-one with this task's outcome.
	defer func() {
		if err := t.tracker.ClearPending(context.WithoutCancel(ctx), descriptor); err != nil {
			logger.Errorf(ctx, "Failed to clear pending install: %v", err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.Cancelled[bool]()
	}

	logger.InfoKV(ctx, "Preparing update", "version", descriptor.Version)

	prepared, err := t.tracker.CheckAndPrepareToInstall(ctx, downloader)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.Cancelled[bool]()
		}

		return domain.Failed[bool](fmt.Errorf("prepare update: %w", err))
	}

	if !prepared {
		logger.Info(ctx, "Preparation declined the update")
		return domain.Success(false)
	}

	if err = ctx.Err(); err != nil {
		return domain.Cancelled[bool]()
	}

	logger.InfoKV(ctx, "Applying update", "version", descriptor.Version)

	installed, err := t.tracker.InstallPluginUpdates(ctx, downloader)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.Cancelled[bool]()
		}

		return domain.Failed[bool](fmt.Errorf("apply update: %w", err))
	}

	return domain.Success(installed)
}

// acquireMarker writes the single-instance marker and returns its release func.
func (t *Task) acquireMarker(ctx context.Context) (func(), error) {
	if IsInstallRunningNow(ctx) {
		return nil, errAlreadyRunning
	}

	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return nil, fmt.Errorf("create install marker: %w", err)
	}

	if err = marker.Close(); err != nil {
		return nil, fmt.Errorf("close install marker: %w", err)
	}

	return func() {
		if _, err := os.Stat(MarkerFilename); err == nil {
			_ = os.Remove(MarkerFilename)
		}
	}, nil
}
