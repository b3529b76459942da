package pull

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/marcus/vcpull/internal/models"
	"github.com/marcus/vcpull/internal/output"
)

// SettingsPersister writes the resolved identity to the local link cache.
type SettingsPersister interface {
	Persist(dir string, project models.Project, org models.Organization) error
}

// Options are the parsed command inputs.
type Options struct {
	Dir         string
	EnvFileRoot string
	AutoConfirm bool
	Args        []string
}

// Puller sequences resolve -> sync -> persist.
type Puller struct {
	Resolver   *Resolver
	Downloader Downloader
	Persister  SettingsPersister
	Out        *output.Printer

	// Now defaults to time.Now.
	Now func() time.Time
}

// Run executes one pull and returns the process exit code.
func (p *Puller) Run(ctx context.Context, opts Options) int {
	start := p.now()
	root := opts.EnvFileRoot
	if root == "" {
		root = DefaultEnvFileRoot
	}

	var link models.Link
	switch outcome := p.Resolver.Resolve(ctx, opts.Dir, opts.AutoConfirm).(type) {
	case Linked:
		link = outcome.Link
	case Aborted:
		slog.Debug("pull: link setup aborted", "dir", opts.Dir)
		return 0
	case Failed:
		return outcome.Code
	}

	teamID := link.Org.TeamID()
	slog.Debug("pull: resolved", "org", link.Org.ID, "team", teamID, "project", link.Project.ID)

	if code := SyncAll(ctx, p.Downloader, teamID, root, link.Project, opts.Args, opts.Dir); code != 0 {
		return code
	}

	if err := p.Persister.Persist(opts.Dir, link.Project, link.Org); err != nil {
		p.Out.Error("save project settings: %v", err)
		return 1
	}

	settingsPath := filepath.Join(StateDir, "project.json")
	p.Out.Info("%s  Downloaded project settings to %s %s",
		output.EmojiSuccess, output.Bold(settingsPath), output.Elapsed(p.now().Sub(start)))
	return 0
}

func (p *Puller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
