package updater

import (
	"context"

	"github.com/oshokin/eap-updater/internal/logger"
)

// NotificationSink receives one-way, fire-and-forget user-facing outcome
// messages. Callers never inspect results; every terminal state of a cycle
// produces exactly one notification.
type NotificationSink interface {
	// NotifyEapFinished reports that the early-access subscription ended.
	NotifyEapFinished(ctx context.Context)
	// NotifySubscribedToEap reports membership with no update installed yet.
	NotifySubscribedToEap(ctx context.Context)
	// NotifyFailedToDownloadEap reports a failed or declined update attempt.
	NotifyFailedToDownloadEap(ctx context.Context)
	// NotifyPluginsUpdated reports an applied update awaiting restart.
	NotifyPluginsUpdated(ctx context.Context)
}

// LogSink reports outcomes through the structured logger.
type LogSink struct{}

// NewLogSink creates a logger-backed notification sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// NotifyEapFinished logs the end of the early-access subscription.
func (s *LogSink) NotifyEapFinished(ctx context.Context) {
	logger.Info(ctx, "Early-access program finished, channel host removed")
}

// NotifySubscribedToEap logs membership without a pending update.
func (s *LogSink) NotifySubscribedToEap(ctx context.Context) {
	logger.Info(ctx, "Subscribed to the early-access program, no update installed yet")
}

// NotifyFailedToDownloadEap logs a failed or declined update attempt.
func (s *LogSink) NotifyFailedToDownloadEap(ctx context.Context) {
	logger.Warn(ctx, "Failed to download or apply the early-access update")
}

// NotifyPluginsUpdated logs an applied update awaiting restart.
func (s *LogSink) NotifyPluginsUpdated(ctx context.Context) {
	logger.Info(ctx, "Plugins updated, restart required")
}
