package models

import "strings"

// Target represents a deployment environment whose variables are tracked separately
type Target string

const (
	TargetDevelopment Target = "development"
	TargetPreview     Target = "preview"
	TargetProduction  Target = "production"
)

// Targets returns every target in declaration order
func Targets() []Target {
	return []Target{TargetDevelopment, TargetPreview, TargetProduction}
}

// OrgKind represents the membership kind of an organization
type OrgKind string

const (
	OrgPersonal OrgKind = "personal"
	OrgTeam     OrgKind = "team"
)

// TeamIDPrefix marks organization IDs that belong to teams
const TeamIDPrefix = "team_"

// OrgKindFromID infers the organization kind from its ID
func OrgKindFromID(id string) OrgKind {
	if strings.HasPrefix(id, TeamIDPrefix) {
		return OrgTeam
	}
	return OrgPersonal
}

// Organization is the owner scope of a project: a personal account or a team
type Organization struct {
	ID   string  `json:"id"`
	Slug string  `json:"slug"`
	Name string  `json:"name,omitempty"`
	Kind OrgKind `json:"kind"`
}

// IsTeam reports whether the organization is a team
func (o Organization) IsTeam() bool {
	return o.Kind == OrgTeam
}

// TeamID returns the team identifier, or "" for personal accounts
func (o Organization) TeamID() string {
	if o.IsTeam() {
		return o.ID
	}
	return ""
}

// ProjectSettings holds the build settings persisted next to the link
type ProjectSettings struct {
	Framework        *string `json:"framework"`
	DevCommand       *string `json:"devCommand"`
	InstallCommand   *string `json:"installCommand"`
	BuildCommand     *string `json:"buildCommand"`
	OutputDirectory  *string `json:"outputDirectory"`
	RootDirectory    *string `json:"rootDirectory"`
	DirectoryListing bool    `json:"directoryListing"`
	NodeVersion      string  `json:"nodeVersion,omitempty"`
}

// Project is a remote project record
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AccountID string `json:"accountId"`
	ProjectSettings
}

// Link is the resolved association between a local directory and a remote
// project + organization pair. It is treated as a value and never mutated
// once resolved.
type Link struct {
	Org     Organization
	Project Project
}

// LinkState is the state reported by link collaborators
type LinkState int

const (
	LinkNotLinked LinkState = iota
	LinkLinked
	LinkError
)

func (s LinkState) String() string {
	switch s {
	case LinkLinked:
		return "linked"
	case LinkNotLinked:
		return "not_linked"
	case LinkError:
		return "error"
	default:
		return "unknown"
	}
}

// LinkStatus is the result of a link cache lookup or an interactive setup
type LinkStatus struct {
	State    LinkState
	Link     Link // set when State == LinkLinked
	ExitCode int  // set when State == LinkError
}

// Linked returns a LinkStatus for a resolved link
func Linked(link Link) LinkStatus {
	return LinkStatus{State: LinkLinked, Link: link}
}

// NotLinked returns a LinkStatus for an unlinked directory
func NotLinked() LinkStatus {
	return LinkStatus{State: LinkNotLinked}
}

// LinkFailed returns a LinkStatus carrying a collaborator exit code
func LinkFailed(code int) LinkStatus {
	return LinkStatus{State: LinkError, ExitCode: code}
}
