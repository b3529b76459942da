package projectlink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marcus/vcpull/internal/apiclient"
	"github.com/marcus/vcpull/internal/models"
	"github.com/marcus/vcpull/internal/output"
)

// Lookup resolves the link cached for a directory against the API.
type Lookup struct {
	Client *apiclient.Client
	Out    *output.Printer

	// EnvOrgID and EnvProjectID, when both set, replace project.json.
	EnvOrgID     string
	EnvProjectID string
}

// Lookup returns the link state of dir: linked, not linked, or an error
// carrying the exit code to surface.
func (l *Lookup) Lookup(ctx context.Context, dir string) models.LinkStatus {
	orgID, projectID, status, ok := l.cachedIDs(dir)
	if !ok {
		return status
	}

	org, err := l.Client.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			l.Out.Warning("the scope %s linked to this directory could not be found", orgID)
			return models.NotLinked()
		}
		return l.failed("could not retrieve scope %s: %v", orgID, err)
	}

	project, err := l.Client.WithTeam(org.TeamID()).GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			l.Out.Warning("your project was either deleted, transferred to a new team, or you don't have access to it anymore")
			return models.NotLinked()
		}
		return l.failed("could not retrieve project %s: %v", projectID, err)
	}

	return models.Linked(models.Link{Org: *org, Project: *project})
}

// cachedIDs returns the org and project IDs from the env override or
// project.json. When ok is false, status is the terminal result.
func (l *Lookup) cachedIDs(dir string) (orgID, projectID string, status models.LinkStatus, ok bool) {
	switch {
	case l.EnvOrgID != "" && l.EnvProjectID != "":
		slog.Debug("link: using env override", "org", l.EnvOrgID, "project", l.EnvProjectID)
		return l.EnvOrgID, l.EnvProjectID, models.LinkStatus{}, true
	case l.EnvOrgID != "" || l.EnvProjectID != "":
		return "", "", l.failed("you specified only one of VCPULL_ORG_ID and VCPULL_PROJECT_ID; set both or neither"), false
	}

	pf, err := Read(dir)
	if err != nil {
		return "", "", l.failed("couldn't read %s: %v", Path(dir), err), false
	}
	if pf == nil {
		slog.Debug("link: no project.json", "dir", dir)
		return "", "", models.NotLinked(), false
	}
	slog.Debug("link: using project.json", "org", pf.OrgID, "project", pf.ProjectID)
	return pf.OrgID, pf.ProjectID, models.LinkStatus{}, true
}

func (l *Lookup) failed(format string, args ...interface{}) models.LinkStatus {
	l.Out.Error(format, args...)
	return models.LinkFailed(1)
}

// Persister writes the resolved identity and project settings to project.json.
type Persister struct{}

// Persist overwrites .vercel/project.json under dir.
func (Persister) Persist(dir string, project models.Project, org models.Organization) error {
	settings := project.ProjectSettings
	return Write(dir, &ProjectFile{
		ProjectID: project.ID,
		OrgID:     org.ID,
		Settings:  &settings,
	})
}
