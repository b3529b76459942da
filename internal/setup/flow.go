// Package setup links an unlinked directory to a project, asking the user
// for scope and project unless auto-confirm is on.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/vcpull/internal/apiclient"
	"github.com/marcus/vcpull/internal/models"
	"github.com/marcus/vcpull/internal/output"
	"github.com/marcus/vcpull/internal/projectlink"
	"github.com/marcus/vcpull/internal/pull"
)

// ErrNotInteractive is returned when a prompt is needed but no terminal is attached.
var ErrNotInteractive = errors.New("no interactive terminal")

// errDeclined marks a "no" answer, which ends setup without linking.
var errDeclined = errors.New("declined")

// Flow implements pull.LinkSetup.
type Flow struct {
	Client *apiclient.Client
	Out    *output.Printer
	Prompt Prompter

	// DefaultTeam is the team ID or slug chosen under auto-confirm; empty selects
	// the personal account.
	DefaultTeam string
	// Interactive defaults to output.IsInteractive.
	Interactive func() bool
}

// Setup walks through linking dir and writes .vercel/project.json.
func (f *Flow) Setup(ctx context.Context, dir string, opts pull.SetupOptions) models.LinkStatus {
	link, err := f.run(ctx, dir, opts)
	switch {
	case err == nil:
		return models.Linked(link)
	case errors.Is(err, errDeclined):
		return models.NotLinked()
	case errors.Is(err, huh.ErrUserAborted):
		f.Out.Subtle("Canceled. %s is not linked.", dir)
		return models.NotLinked()
	case errors.Is(err, ErrNotInteractive):
		f.Out.Error("%v: pass --yes to link %s without prompts", err, dir)
		return models.LinkFailed(1)
	default:
		f.Out.Error("%v", err)
		return models.LinkFailed(apiclient.ExitCode(err))
	}
}

func (f *Flow) run(ctx context.Context, dir string, opts pull.SetupOptions) (models.Link, error) {
	if !opts.AutoConfirm {
		if !f.interactive() {
			return models.Link{}, ErrNotInteractive
		}
		ok, err := f.Prompt.Confirm(ctx, fmt.Sprintf("Set up %q?", dir), true)
		if err != nil {
			return models.Link{}, err
		}
		if !ok {
			return models.Link{}, errDeclined
		}
	}

	org, err := f.chooseScope(ctx, opts.AutoConfirm)
	if err != nil {
		return models.Link{}, err
	}
	slog.Debug("setup: scope", "org", org.ID, "kind", org.Kind)

	project, err := f.chooseProject(ctx, f.Client.WithTeam(org.TeamID()), Slugify(filepath.Base(dir)), opts.AutoConfirm)
	if err != nil {
		return models.Link{}, err
	}

	settings := project.ProjectSettings
	pf := &projectlink.ProjectFile{ProjectID: project.ID, OrgID: org.ID, Settings: &settings}
	if err := projectlink.Write(dir, pf); err != nil {
		return models.Link{}, fmt.Errorf("write link: %w", err)
	}

	f.Out.Success("%s  %s %s (created %s)", opts.SuccessEmoji, opts.SetupMsg,
		output.Bold(org.Slug+"/"+project.Name), projectlink.Dir)
	return models.Link{Org: *org, Project: *project}, nil
}

// chooseScope returns the personal account or one of the user's teams.
func (f *Flow) chooseScope(ctx context.Context, auto bool) (*models.Organization, error) {
	user, err := f.Client.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	personal := &models.Organization{ID: user.ID, Slug: user.Username, Name: user.Name, Kind: models.OrgPersonal}

	teams, err := f.Client.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	if auto {
		if f.DefaultTeam == "" {
			return personal, nil
		}
		for _, t := range teams {
			if t.ID == f.DefaultTeam || t.Slug == f.DefaultTeam {
				return teamOrg(t), nil
			}
		}
		return nil, fmt.Errorf("%w: team %s", apiclient.ErrNotFound, f.DefaultTeam)
	}

	if len(teams) == 0 {
		return personal, nil
	}

	choices := []Choice{{Label: personal.Slug + " (personal)", Value: personal.ID}}
	for _, t := range teams {
		choices = append(choices, Choice{Label: t.Name + " (" + t.Slug + ")", Value: t.ID})
	}
	id, err := f.Prompt.Select(ctx, "Which scope should contain your project?", choices)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		if t.ID == id {
			return teamOrg(t), nil
		}
	}
	return personal, nil
}

func teamOrg(t apiclient.Team) *models.Organization {
	return &models.Organization{ID: t.ID, Slug: t.Slug, Name: t.Name, Kind: models.OrgTeam}
}

// chooseProject links an existing project or creates one in the client's scope.
func (f *Flow) chooseProject(ctx context.Context, client *apiclient.Client, defaultName string, auto bool) (*models.Project, error) {
	if auto {
		project, err := client.GetProject(ctx, defaultName)
		if err == nil {
			return project, nil
		}
		if !errors.Is(err, apiclient.ErrNotFound) {
			return nil, fmt.Errorf("fetch project %s: %w", defaultName, err)
		}
		return f.create(ctx, client, defaultName)
	}

	existing, err := f.Prompt.Confirm(ctx, "Link to existing project?", false)
	if err != nil {
		return nil, err
	}

	if existing {
		name, err := f.Prompt.Input(ctx, "What's the name of your existing project?", defaultName, nil)
		if err != nil {
			return nil, err
		}
		name = orDefault(name, defaultName)
		project, err := client.GetProject(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fetch project %s: %w", name, err)
		}
		return project, nil
	}

	name, err := f.Prompt.Input(ctx, "What's your project's name?", defaultName, validateName)
	if err != nil {
		return nil, err
	}
	return f.create(ctx, client, orDefault(name, defaultName))
}

func (f *Flow) create(ctx context.Context, client *apiclient.Client, name string) (*models.Project, error) {
	project, err := client.CreateProject(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create project %s: %w", name, err)
	}
	f.Out.Info("Created project %s", output.Bold(project.Name))
	return project, nil
}

func (f *Flow) interactive() bool {
	if f.Interactive != nil {
		return f.Interactive()
	}
	return output.IsInteractive()
}

// validateName accepts an empty answer (the placeholder is used) or a slug.
func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if Slugify(name) != name {
		return fmt.Errorf("use lowercase letters, digits, '.', '_' or '-' (e.g. %s)", Slugify(name))
	}
	return nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

// Slugify lowercases name and collapses runs of other characters into a
// single '-'. Names that slugify to nothing become "project".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-.")
	if len(slug) > 100 {
		slug = strings.TrimRight(slug[:100], "-.")
	}
	if slug == "" {
		return "project"
	}
	return slug
}

var _ pull.LinkSetup = (*Flow)(nil)
