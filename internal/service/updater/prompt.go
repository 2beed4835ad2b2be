package updater

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	domain "github.com/oshokin/eap-updater/internal/domain/update"
)

// TerminalConfirmer presents the three-way update choice as an interactive
// terminal select.
type TerminalConfirmer struct{}

// NewTerminalConfirmer creates a terminal-backed confirmer.
func NewTerminalConfirmer() *TerminalConfirmer {
	return &TerminalConfirmer{}
}

// IsInteractive checks if we're running in an interactive terminal.
func (c *TerminalConfirmer) IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Confirm asks the user to accept, decline, or abort the subscription.
func (c *TerminalConfirmer) Confirm(_ context.Context, descriptor *domain.Descriptor) (Choice, error) {
	selection := ChoiceDecline

	err := huh.NewSelect[Choice]().
		Title(fmt.Sprintf("Version %s of %s is available", descriptor.Version, descriptor.PluginID)).
		Description(fmt.Sprintf("Offered by %s", descriptor.Host)).
		Options(
			huh.NewOption("Install the update", ChoiceAccept),
			huh.NewOption("Not now", ChoiceDecline),
			huh.NewOption("Leave the early-access channel", ChoiceAbortSubscription),
		).
		Value(&selection).
		Run()
	if err != nil {
		return ChoiceDecline, err
	}

	return selection, nil
}
