package updater

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/oshokin/eap-updater/internal/domain/update"
	"github.com/oshokin/eap-updater/internal/logger"
	"github.com/oshokin/eap-updater/internal/service/channel"
	"github.com/oshokin/eap-updater/internal/version"
)

// State names a position in the update decision flow.
type State int

const (
	// StateIdle means no cycle is in progress.
	StateIdle State = iota
	// StateScanning means the repository scan is in flight.
	StateScanning
	// StateNoUpdate is terminal: no candidate beat the installed version.
	StateNoUpdate
	// StateAwaitingConfirmation means a strictly-newer candidate awaits the user.
	StateAwaitingConfirmation
	// StateInstalling is terminal: the install task was started.
	StateInstalling
	// StateDeclined is terminal: the user declined the candidate.
	StateDeclined
	// StateRescinded is terminal: the user aborted the subscription.
	StateRescinded
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateNoUpdate:
		return "no-update"
	case StateAwaitingConfirmation:
		return "awaiting-confirmation"
	case StateInstalling:
		return "installing"
	case StateDeclined:
		return "declined"
	case StateRescinded:
		return "rescinded"
	default:
		return "unknown"
	}
}

// Choice is the user's answer to the update confirmation.
type Choice int

const (
	// ChoiceAccept installs the offered update.
	ChoiceAccept Choice = iota
	// ChoiceDecline skips the update but stays on the channel.
	ChoiceDecline
	// ChoiceAbortSubscription leaves the channel without installing.
	ChoiceAbortSubscription
)

// Confirmer obtains the user's three-way choice for an offered update.
// The interaction blocks the control path by design: it runs only after the
// scan's outcome has been delivered.
type Confirmer interface {
	Confirm(ctx context.Context, descriptor *domain.Descriptor) (Choice, error)
}

// Scanner produces the best update candidate across the registered hosts.
type Scanner interface {
	Scan(ctx context.Context, scanHosts []string, pluginID, targetBuild string) (*domain.Downloader, error)
}

// Installer runs the install task as a one-shot background operation.
type Installer interface {
	Run(ctx context.Context, downloader *domain.Downloader) <-chan domain.Outcome[bool]
}

// Flow drives the subscription toggle through its state machine:
// Idle -> Scanning -> {NoUpdate, AwaitingConfirmation} ->
// {Installing, Declined, Rescinded}.
type Flow struct {
	// channel tracks early-access membership.
	channel *channel.Service
	// scanner queries hosts for update candidates.
	scanner Scanner
	// installer applies an accepted candidate.
	installer Installer
	// confirmer obtains the user's choice.
	confirmer Confirmer
	// notifier reports terminal states to the user.
	notifier NotificationSink
	// pluginID is the identity of the managed plugin.
	pluginID string
	// targetBuild is the host build candidates must be bound to.
	targetBuild string
	// installedVersion is the currently installed plugin version.
	installedVersion string
	// state is the current state machine position.
	state State
}

// NewFlow wires a decision flow from its collaborators.
func NewFlow(
	channelService *channel.Service,
	updateScanner Scanner,
	installTask Installer,
	confirmer Confirmer,
	notifier NotificationSink,
	pluginID, targetBuild, installedVersion string,
) *Flow {
	return &Flow{
		channel:          channelService,
		scanner:          updateScanner,
		installer:        installTask,
		confirmer:        confirmer,
		notifier:         notifier,
		pluginID:         pluginID,
		targetBuild:      targetBuild,
		installedVersion: installedVersion,
		state:            StateIdle,
	}
}

// State returns the current state machine position.
func (f *Flow) State() State {
	return f.state
}

// Toggle flips channel membership. When the toggle unsubscribes, the state
// machine is bypassed entirely. When it subscribes, one full
// scan -> decide -> install cycle runs; scan and install each execute as
// one-shot background operations whose single outcome the control path
// reacts to.
func (f *Flow) Toggle(ctx context.Context) error {
	subscribed, err := f.channel.IsSubscribed(ctx)
	if err != nil {
		return err
	}

	if subscribed {
		if err = f.channel.Unsubscribe(ctx); err != nil {
			return err
		}

		f.state = StateIdle
		f.notifier.NotifyEapFinished(ctx)

		return nil
	}

	if err = f.channel.Subscribe(ctx); err != nil {
		return err
	}

	f.state = StateScanning
	logger.InfoKV(ctx, "Scanning hosts for updates", "plugin", f.pluginID)

	outcome := <-f.runScan(ctx)

	switch outcome.Status {
	case domain.StatusCancelled:
		// Reported via the same notification as an empty scan.
		logger.Info(ctx, "Scan cancelled")
		f.finishWithoutUpdate(ctx)

		return nil
	case domain.StatusFailed:
		// Conflated with "no update yet" on purpose: a failed search and an
		// empty search look the same to the user.
		logger.Errorf(ctx, "Scan failed: %v", outcome.Err)
		f.finishWithoutUpdate(ctx)

		return nil
	case domain.StatusSuccess:
	}

	candidate := outcome.Value
	if candidate == nil || version.Compare(candidate.Descriptor.Version, f.installedVersion) <= 0 {
		logger.InfoKV(ctx, "No newer version available",
			"installed", f.installedVersion)
		f.finishWithoutUpdate(ctx)

		return nil
	}

	f.state = StateAwaitingConfirmation
	logger.InfoKV(ctx, "Newer version found",
		"installed", f.installedVersion, "offered", candidate.Descriptor.Version)

	choice, err := f.confirmer.Confirm(ctx, candidate.Descriptor)
	if err != nil {
		// An interrupted prompt is treated as a decline.
		logger.Warnf(ctx, "Confirmation failed, declining update: %v", err)

		choice = ChoiceDecline
	}

	switch choice {
	case ChoiceAccept:
		f.state = StateInstalling
		f.reportInstall(ctx, <-f.installer.Run(ctx, candidate))
	case ChoiceDecline:
		f.state = StateDeclined
		f.notifier.NotifySubscribedToEap(ctx)
	case ChoiceAbortSubscription:
		if err = f.rescind(ctx); err != nil {
			return err
		}
	}

	return nil
}

// runScan executes the repository scan as a one-shot background operation
// delivering exactly one outcome.
func (f *Flow) runScan(ctx context.Context) <-chan domain.Outcome[*domain.Downloader] {
	outcomes := make(chan domain.Outcome[*domain.Downloader], 1)

	go func() {
		scanHosts, err := f.channel.Hosts(ctx)
		if err != nil {
			outcomes <- domain.Failed[*domain.Downloader](err)
			return
		}

		downloader, err := f.scanner.Scan(ctx, scanHosts, f.pluginID, f.targetBuild)

		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			outcomes <- domain.Cancelled[*domain.Downloader]()
		case err != nil:
			outcomes <- domain.Failed[*domain.Downloader](err)
		default:
			outcomes <- domain.Success(downloader)
		}
	}()

	return outcomes
}

// finishWithoutUpdate ends the cycle in the NoUpdate terminal state.
func (f *Flow) finishWithoutUpdate(ctx context.Context) {
	f.state = StateNoUpdate
	f.notifier.NotifySubscribedToEap(ctx)
}

// reportInstall converts the install outcome into its user notification.
func (f *Flow) reportInstall(ctx context.Context, outcome domain.Outcome[bool]) {
	switch {
	case outcome.Status == domain.StatusSuccess && outcome.Value:
		f.notifier.NotifyPluginsUpdated(ctx)
	case outcome.Status == domain.StatusFailed:
		logger.Errorf(ctx, "Install failed: %v", outcome.Err)
		f.notifier.NotifyFailedToDownloadEap(ctx)
	default:
		// Declined preparation and cancellation land here as well.
		f.notifier.NotifyFailedToDownloadEap(ctx)
	}
}

// rescind leaves the channel without installing; no notification beyond the
// abort itself.
func (f *Flow) rescind(ctx context.Context) error {
	subscribed, err := f.channel.IsSubscribed(ctx)
	if err != nil {
		return fmt.Errorf("rescind: %w", err)
	}

	if subscribed {
		if err = f.channel.Unsubscribe(ctx); err != nil {
			return fmt.Errorf("rescind: %w", err)
		}
	}

	f.state = StateRescinded

	return nil
}
