package pull

import (
	"context"
	"sort"
	"sync"

	"github.com/marcus/vcpull/internal/models"
)

type fakeLookup struct {
	status models.LinkStatus
	calls  int
}

func (f *fakeLookup) Lookup(ctx context.Context, dir string) models.LinkStatus {
	f.calls++
	return f.status
}

type fakeSetup struct {
	status models.LinkStatus
	calls  int
	opts   SetupOptions
}

func (f *fakeSetup) Setup(ctx context.Context, dir string, opts SetupOptions) models.LinkStatus {
	f.calls++
	f.opts = opts
	return f.status
}

// fakeDownloader returns codes keyed by destination path (default 0) and
// records every request. before, when set, runs at the start of each call.
type fakeDownloader struct {
	mu       sync.Mutex
	codes    map[string]int
	requests []DownloadRequest
	before   func(req DownloadRequest)
}

func (f *fakeDownloader) Download(ctx context.Context, req DownloadRequest) int {
	if f.before != nil {
		f.before(req)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.codes[req.Candidates[0]]
}

func (f *fakeDownloader) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		out = append(out, r.Candidates...)
	}
	sort.Strings(out)
	return out
}

func (f *fakeDownloader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type persisted struct {
	dir     string
	project models.Project
	org     models.Organization
}

type fakePersister struct {
	calls []persisted
	err   error
}

func (f *fakePersister) Persist(dir string, project models.Project, org models.Organization) error {
	f.calls = append(f.calls, persisted{dir: dir, project: project, org: org})
	return f.err
}

func teamLink(orgID, projectID string) models.Link {
	return models.Link{
		Org:     models.Organization{ID: orgID, Slug: "acme", Kind: models.OrgKindFromID(orgID)},
		Project: models.Project{ID: projectID, Name: "web"},
	}
}
