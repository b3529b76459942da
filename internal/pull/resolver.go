package pull

import (
	"context"
	"log/slog"

	"github.com/marcus/vcpull/internal/models"
)

// LinkLookup reports the link cached for a directory.
type LinkLookup interface {
	Lookup(ctx context.Context, dir string) models.LinkStatus
}

// SetupOptions controls the interactive setup flow.
type SetupOptions struct {
	AutoConfirm  bool
	SuccessEmoji string
	SetupMsg     string
}

// LinkSetup interactively establishes a link for a directory.
type LinkSetup interface {
	Setup(ctx context.Context, dir string, opts SetupOptions) models.LinkStatus
}

// Resolver decides whether a directory is linked and drives setup when it is not.
type Resolver struct {
	Lookup LinkLookup
	Setup  LinkSetup

	SuccessEmoji string
	SetupMsg     string
}

// Resolve returns Linked when dir is already linked (no setup is run), runs
// setup otherwise, and maps "not linked after setup" to Aborted. Error codes
// from either collaborator are passed through unchanged.
func (r *Resolver) Resolve(ctx context.Context, dir string, autoConfirm bool) LinkOutcome {
	status := r.Lookup.Lookup(ctx, dir)
	slog.Debug("resolve: lookup", "dir", dir, "state", status.State)

	switch status.State {
	case models.LinkLinked:
		return Linked{Link: status.Link}
	case models.LinkError:
		return failedFrom(status)
	}

	status = r.Setup.Setup(ctx, dir, SetupOptions{
		AutoConfirm:  autoConfirm,
		SuccessEmoji: r.SuccessEmoji,
		SetupMsg:     r.SetupMsg,
	})
	slog.Debug("resolve: setup", "dir", dir, "state", status.State)

	switch status.State {
	case models.LinkLinked:
		return Linked{Link: status.Link}
	case models.LinkError:
		return failedFrom(status)
	default:
		return Aborted{}
	}
}

// failedFrom keeps the collaborator's code; an error state never maps to 0.
func failedFrom(status models.LinkStatus) Failed {
	if status.ExitCode == 0 {
		return Failed{Code: 1}
	}
	return Failed{Code: status.ExitCode}
}
