package updater

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/eap-updater/internal/domain/update"
	"github.com/oshokin/eap-updater/internal/repository/hosts"
	"github.com/oshokin/eap-updater/internal/service/channel"
)

const (
	testChannelHost = "https://eap.example.com/feed"
	testPluginID    = "com.example.navigator"
)

var errTestScan = errors.New("test scan error")

// fakeScanner returns a scripted downloader or error and records its calls.
type fakeScanner struct {
	downloader *domain.Downloader
	err        error
	calls      int
	scanned    []string
}

func (f *fakeScanner) Scan(_ context.Context, scanHosts []string, _, _ string) (*domain.Downloader, error) {
	f.calls++
	f.scanned = scanHosts

	return f.downloader, f.err
}

// fakeInstaller delivers a scripted outcome and records the downloader it got.
type fakeInstaller struct {
	outcome  domain.Outcome[bool]
	calls    int
	received *domain.Downloader
}

func (f *fakeInstaller) Run(_ context.Context, dl *domain.Downloader) <-chan domain.Outcome[bool] {
	f.calls++
	f.received = dl

	outcomes := make(chan domain.Outcome[bool], 1)
	outcomes <- f.outcome

	return outcomes
}

// fakeConfirmer answers with a scripted choice.
type fakeConfirmer struct {
	choice Choice
	err    error
	calls  int
}

func (f *fakeConfirmer) Confirm(context.Context, *domain.Descriptor) (Choice, error) {
	f.calls++

	return f.choice, f.err
}

// recordingSink captures emitted notifications in order.
type recordingSink struct {
	notified []string
}

func (r *recordingSink) NotifyEapFinished(context.Context) {
	r.notified = append(r.notified, "finished")
}

func (r *recordingSink) NotifySubscribedToEap(context.Context) {
	r.notified = append(r.notified, "subscribed")
}

func (r *recordingSink) NotifyFailedToDownloadEap(context.Context) {
	r.notified = append(r.notified, "failed")
}

func (r *recordingSink) NotifyPluginsUpdated(context.Context) {
	r.notified = append(r.notified, "updated")
}

// harness bundles a flow with its fakes for one test cycle.
type harness struct {
	flow      *Flow
	registry  *hosts.MemoryRegistry
	scanner   *fakeScanner
	installer *fakeInstaller
	confirmer *fakeConfirmer
	sink      *recordingSink
}

func newHarness(installedVersion string) *harness {
	h := &harness{
		registry:  hosts.NewMemoryRegistry(),
		scanner:   &fakeScanner{},
		installer: &fakeInstaller{outcome: domain.Success(true)},
		confirmer: &fakeConfirmer{},
		sink:      &recordingSink{},
	}

	h.flow = NewFlow(
		channel.NewService(h.registry, testChannelHost),
		h.scanner,
		h.installer,
		h.confirmer,
		h.sink,
		testPluginID,
		"243.1",
		installedVersion,
	)

	return h
}

func offeredDownloader(offeredVersion string) *domain.Downloader {
	return &domain.Downloader{
		Descriptor: &domain.Descriptor{
			PluginID: testPluginID,
			Version:  offeredVersion,
			Host:     testChannelHost,
		},
		TargetBuild: "243.1",
	}
}

// TestToggle_UnsubscribeBypassesStateMachine covers the already-subscribed path.
func TestToggle_UnsubscribeBypassesStateMachine(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	ctx := context.Background()
	require.NoError(t, h.registry.Add(ctx, testChannelHost))

	require.NoError(t, h.flow.Toggle(ctx))

	subscribed, err := h.registry.Contains(ctx, testChannelHost)
	require.NoError(t, err)
	require.False(t, subscribed)

	require.Equal(t, []string{"finished"}, h.sink.notified)
	require.Zero(t, h.scanner.calls)
	require.Zero(t, h.installer.calls)
}

// TestToggle_SubscribeScansRegisteredHosts ensures the scan sees the channel host.
func TestToggle_SubscribeScansRegisteredHosts(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	ctx := context.Background()
	require.NoError(t, h.registry.Add(ctx, "https://stable.example.com/feed"))

	require.NoError(t, h.flow.Toggle(ctx))

	require.Equal(t, 1, h.scanner.calls)
	require.Equal(t,
		[]string{"https://stable.example.com/feed", testChannelHost},
		h.scanner.scanned)
}

// TestToggle_EqualVersionIsNoUpdate: installed 2.0 vs offered 2.0 must not prompt.
func TestToggle_EqualVersionIsNoUpdate(t *testing.T) {
	t.Parallel()

	h := newHarness("2.0")
	h.scanner.downloader = offeredDownloader("2.0")

	require.NoError(t, h.flow.Toggle(context.Background()))

	require.Equal(t, StateNoUpdate, h.flow.State())
	require.Zero(t, h.confirmer.calls)
	require.Zero(t, h.installer.calls)
	require.Equal(t, []string{"subscribed"}, h.sink.notified)
}

// TestToggle_EmptyScanIsNoUpdate: no candidate at all ends the cycle quietly.
func TestToggle_EmptyScanIsNoUpdate(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")

	require.NoError(t, h.flow.Toggle(context.Background()))

	require.Equal(t, StateNoUpdate, h.flow.State())
	require.Equal(t, []string{"subscribed"}, h.sink.notified)
}

// TestToggle_AcceptInstallsExactlyOnce: installed 1.0, offered 2.0, user accepts.
func TestToggle_AcceptInstallsExactlyOnce(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	h.scanner.downloader = offeredDownloader("2.0")
	h.confirmer.choice = ChoiceAccept

	require.NoError(t, h.flow.Toggle(context.Background()))

	require.Equal(t, StateInstalling, h.flow.State())
	require.Equal(t, 1, h.installer.calls)
	require.Equal(t, "2.0", h.installer.received.Descriptor.Version)
	require.Equal(t, []string{"updated"}, h.sink.notified)
}

// TestToggle_DeclineKeepsSubscription: the channel stays registered after a decline.
func TestToggle_DeclineKeepsSubscription(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	h.scanner.downloader = offeredDownloader("2.0")
	h.confirmer.choice = ChoiceDecline
	ctx := context.Background()

	require.NoError(t, h.flow.Toggle(ctx))

	require.Equal(t, StateDeclined, h.flow.State())
	require.Zero(t, h.installer.calls)

	subscribed, err := h.registry.Contains(ctx, testChannelHost)
	require.NoError(t, err)
	require.True(t, subscribed)
	require.Equal(t, []string{"subscribed"}, h.sink.notified)
}

// TestToggle_AbortRemovesChannelHost: abort while subscribed unregisters the host.
func TestToggle_AbortRemovesChannelHost(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	h.scanner.downloader = offeredDownloader("2.0")
	h.confirmer.choice = ChoiceAbortSubscription
	ctx := context.Background()

	require.NoError(t, h.flow.Toggle(ctx))

	require.Equal(t, StateRescinded, h.flow.State())
	require.Zero(t, h.installer.calls)

	subscribed, err := h.registry.Contains(ctx, testChannelHost)
	require.NoError(t, err)
	require.False(t, subscribed)

	// The abort is its own signal; no notification beyond it.
	require.Empty(t, h.sink.notified)
}

// TestToggle_ScanFailureConflatedWithNoUpdate preserves the inherited behavior:
// a failed search and an empty search produce the same notification.
func TestToggle_ScanFailureConflatedWithNoUpdate(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	h.scanner.err = errTestScan

	require.NoError(t, h.flow.Toggle(context.Background()))

	require.Equal(t, StateNoUpdate, h.flow.State())
	require.Zero(t, h.installer.calls)
	require.Equal(t, []string{"subscribed"}, h.sink.notified)
}

// TestToggle_ScanCancelledNeverInstalls maps context cancellation to the quiet terminal path.
func TestToggle_ScanCancelledNeverInstalls(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	h.scanner.err = context.Canceled

	require.NoError(t, h.flow.Toggle(context.Background()))

	require.Equal(t, StateNoUpdate, h.flow.State())
	require.Zero(t, h.confirmer.calls)
	require.Zero(t, h.installer.calls)
	require.Equal(t, []string{"subscribed"}, h.sink.notified)
}

// TestToggle_FailedInstallNotifiesFailure covers the install error notification.
func TestToggle_FailedInstallNotifiesFailure(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	h.scanner.downloader = offeredDownloader("2.0")
	h.confirmer.choice = ChoiceAccept
	h.installer.outcome = domain.Failed[bool](errors.New("download interrupted"))

	require.NoError(t, h.flow.Toggle(context.Background()))

	require.Equal(t, []string{"failed"}, h.sink.notified)
}

// TestToggle_DeclinedPreparationNotifiesFailure: Success(false) is reported as a failure.
func TestToggle_DeclinedPreparationNotifiesFailure(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	h.scanner.downloader = offeredDownloader("2.0")
	h.confirmer.choice = ChoiceAccept
	h.installer.outcome = domain.Success(false)

	require.NoError(t, h.flow.Toggle(context.Background()))

	require.Equal(t, []string{"failed"}, h.sink.notified)
}

// TestToggle_InterruptedPromptDeclines treats a confirmer error as a decline.
func TestToggle_InterruptedPromptDeclines(t *testing.T) {
	t.Parallel()

	h := newHarness("1.0")
	h.scanner.downloader = offeredDownloader("2.0")
	h.confirmer.err = errors.New("prompt interrupted")

	require.NoError(t, h.flow.Toggle(context.Background()))

	require.Equal(t, StateDeclined, h.flow.State())
	require.Zero(t, h.installer.calls)
	require.Equal(t, []string{"subscribed"}, h.sink.notified)
}
