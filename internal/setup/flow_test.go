package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/vcpull/internal/apiclient"
	"github.com/marcus/vcpull/internal/models"
	"github.com/marcus/vcpull/internal/output"
	"github.com/marcus/vcpull/internal/projectlink"
	"github.com/marcus/vcpull/internal/pull"
)

// scriptedPrompter answers prompts in order and records their titles.
type scriptedPrompter struct {
	confirms []bool
	selects  []string
	inputs   []string
	err      error
	titles   []string
}

func (p *scriptedPrompter) Confirm(ctx context.Context, title string, initial bool) (bool, error) {
	p.titles = append(p.titles, title)
	if p.err != nil {
		return false, p.err
	}
	if len(p.confirms) == 0 {
		return initial, nil
	}
	v := p.confirms[0]
	p.confirms = p.confirms[1:]
	return v, nil
}

func (p *scriptedPrompter) Select(ctx context.Context, title string, choices []Choice) (string, error) {
	p.titles = append(p.titles, title)
	if p.err != nil {
		return "", p.err
	}
	v := p.selects[0]
	p.selects = p.selects[1:]
	return v, nil
}

func (p *scriptedPrompter) Input(ctx context.Context, title, placeholder string, validate func(string) error) (string, error) {
	p.titles = append(p.titles, title)
	if p.err != nil {
		return "", p.err
	}
	v := p.inputs[0]
	p.inputs = p.inputs[1:]
	if validate != nil {
		if err := validate(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

// accountAPI serves user_1 (ada) with team_1 (acme). Projects are keyed by
// scope then name; created projects are recorded.
type accountAPI struct {
	mu       sync.Mutex
	projects map[string]map[string]models.Project
	created  []string
}

func (a *accountAPI) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/user", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiclient.UserResponse{User: apiclient.User{ID: "user_1", Username: "ada"}})
	})
	mux.HandleFunc("GET /v2/teams", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"teams": []apiclient.Team{{ID: "team_1", Slug: "acme", Name: "Acme"}}})
	})
	mux.HandleFunc("GET /v9/projects/{name}", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		p, ok := a.projects[r.URL.Query().Get("teamId")][r.PathValue("name")]
		a.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"code": "not_found", "message": "project not found"})
			return
		}
		json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("POST /v9/projects", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		scope := r.URL.Query().Get("teamId")
		a.mu.Lock()
		a.created = append(a.created, scope+"/"+body.Name)
		a.mu.Unlock()
		json.NewEncoder(w).Encode(models.Project{ID: "prj_new", Name: body.Name})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func projectDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "My App")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newFlow(srv *httptest.Server, prompt Prompter, buf *bytes.Buffer) *Flow {
	return &Flow{
		Client:      apiclient.New(srv.URL, "tok"),
		Out:         output.New(buf),
		Prompt:      prompt,
		Interactive: func() bool { return true },
	}
}

var linkOpts = pull.SetupOptions{SuccessEmoji: output.EmojiLink, SetupMsg: "Linked to"}

func TestSetupAutoConfirmLinksExistingProject(t *testing.T) {
	api := &accountAPI{projects: map[string]map[string]models.Project{
		"": {"my-app": {ID: "prj_1", Name: "my-app"}},
	}}
	var buf bytes.Buffer
	prompt := &scriptedPrompter{}
	f := newFlow(api.serve(t), prompt, &buf)
	f.Interactive = func() bool { return false }
	dir := projectDir(t)

	opts := linkOpts
	opts.AutoConfirm = true
	status := f.Setup(context.Background(), dir, opts)

	if status.State != models.LinkLinked {
		t.Fatalf("state = %v, output %q", status.State, buf.String())
	}
	if status.Link.Project.ID != "prj_1" || status.Link.Org.ID != "user_1" || status.Link.Org.IsTeam() {
		t.Errorf("link = %+v", status.Link)
	}
	if len(prompt.titles) != 0 {
		t.Errorf("prompted under auto-confirm: %v", prompt.titles)
	}
	if len(api.created) != 0 {
		t.Errorf("created %v, want existing project linked", api.created)
	}

	pf, err := projectlink.Read(dir)
	if err != nil || pf == nil {
		t.Fatalf("Read = %v, %v", pf, err)
	}
	if pf.ProjectID != "prj_1" || pf.OrgID != "user_1" {
		t.Errorf("project.json = %+v", pf)
	}
	if out := ansi.Strip(buf.String()); !strings.Contains(out, "Linked to ada/my-app") {
		t.Errorf("output = %q", out)
	}
}

func TestSetupAutoConfirmCreatesInDefaultTeam(t *testing.T) {
	api := &accountAPI{}
	var buf bytes.Buffer
	f := newFlow(api.serve(t), &scriptedPrompter{}, &buf)
	f.DefaultTeam = "acme"

	opts := linkOpts
	opts.AutoConfirm = true
	status := f.Setup(context.Background(), projectDir(t), opts)

	if status.State != models.LinkLinked {
		t.Fatalf("state = %v, output %q", status.State, buf.String())
	}
	if status.Link.Org.TeamID() != "team_1" {
		t.Errorf("org = %+v", status.Link.Org)
	}
	if len(api.created) != 1 || api.created[0] != "team_1/my-app" {
		t.Errorf("created = %v", api.created)
	}
}

func TestSetupAutoConfirmUnknownDefaultTeam(t *testing.T) {
	api := &accountAPI{}
	var buf bytes.Buffer
	f := newFlow(api.serve(t), &scriptedPrompter{}, &buf)
	f.DefaultTeam = "team_missing"

	opts := linkOpts
	opts.AutoConfirm = true
	if status := f.Setup(context.Background(), projectDir(t), opts); status.State != models.LinkError || status.ExitCode != 1 {
		t.Fatalf("status = %+v", status)
	}
}

func TestSetupInteractiveCreatesInChosenTeam(t *testing.T) {
	api := &accountAPI{}
	var buf bytes.Buffer
	prompt := &scriptedPrompter{
		confirms: []bool{true, false},
		selects:  []string{"team_1"},
		inputs:   []string{""},
	}
	f := newFlow(api.serve(t), prompt, &buf)
	dir := projectDir(t)

	status := f.Setup(context.Background(), dir, linkOpts)

	if status.State != models.LinkLinked {
		t.Fatalf("state = %v, output %q", status.State, buf.String())
	}
	if len(api.created) != 1 || api.created[0] != "team_1/my-app" {
		t.Errorf("created = %v, want default name in team_1", api.created)
	}
	if prompt.titles[0] != `Set up "`+dir+`"?` {
		t.Errorf("first prompt = %q", prompt.titles[0])
	}
	if _, err := os.Stat(filepath.Join(dir, ".gitignore")); err != nil {
		t.Errorf(".gitignore not written: %v", err)
	}
}

func TestSetupInteractiveLinksNamedProject(t *testing.T) {
	api := &accountAPI{projects: map[string]map[string]models.Project{
		"": {"site": {ID: "prj_site", Name: "site"}},
	}}
	var buf bytes.Buffer
	prompt := &scriptedPrompter{
		confirms: []bool{true, true},
		selects:  []string{"user_1"},
		inputs:   []string{"site"},
	}

	status := newFlow(api.serve(t), prompt, &buf).Setup(context.Background(), projectDir(t), linkOpts)
	if status.State != models.LinkLinked || status.Link.Project.ID != "prj_site" {
		t.Fatalf("status = %+v, output %q", status, buf.String())
	}
}

func TestSetupInteractiveMissingProjectFails(t *testing.T) {
	api := &accountAPI{}
	var buf bytes.Buffer
	prompt := &scriptedPrompter{
		confirms: []bool{true, true},
		selects:  []string{"user_1"},
		inputs:   []string{"nope"},
	}
	dir := projectDir(t)

	status := newFlow(api.serve(t), prompt, &buf).Setup(context.Background(), dir, linkOpts)
	if status.State != models.LinkError || status.ExitCode != 1 {
		t.Fatalf("status = %+v", status)
	}
	if pf, _ := projectlink.Read(dir); pf != nil {
		t.Errorf("link written after failure: %+v", pf)
	}
}

func TestSetupDeclinedIsNotLinked(t *testing.T) {
	api := &accountAPI{}
	var buf bytes.Buffer
	prompt := &scriptedPrompter{confirms: []bool{false}}
	dir := projectDir(t)

	status := newFlow(api.serve(t), prompt, &buf).Setup(context.Background(), dir, linkOpts)
	if status.State != models.LinkNotLinked {
		t.Fatalf("state = %v", status.State)
	}
	if _, err := os.Stat(filepath.Join(dir, projectlink.Dir)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf(".vercel created after decline: %v", err)
	}
}

func TestSetupUserAbortIsNotLinked(t *testing.T) {
	api := &accountAPI{}
	var buf bytes.Buffer
	prompt := &scriptedPrompter{err: huh.ErrUserAborted}

	if status := newFlow(api.serve(t), prompt, &buf).Setup(context.Background(), projectDir(t), linkOpts); status.State != models.LinkNotLinked {
		t.Fatalf("state = %v", status.State)
	}
}

func TestSetupRequiresTerminal(t *testing.T) {
	api := &accountAPI{}
	var buf bytes.Buffer
	prompt := &scriptedPrompter{}
	f := newFlow(api.serve(t), prompt, &buf)
	f.Interactive = func() bool { return false }

	status := f.Setup(context.Background(), projectDir(t), linkOpts)
	if status.State != models.LinkError || status.ExitCode != 1 {
		t.Fatalf("status = %+v", status)
	}
	if len(prompt.titles) != 0 {
		t.Errorf("prompted without a terminal: %v", prompt.titles)
	}
	if !strings.Contains(ansi.Strip(buf.String()), "--yes") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"my-app", "my-app"},
		{"My App", "my-app"},
		{"  Hello   World!! ", "hello-world"},
		{"a--b", "a-b"},
		{"v1.2_beta", "v1.2_beta"},
		{"...", "project"},
		{"日本", "project"},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := validateName(""); err != nil {
		t.Errorf("empty answer rejected: %v", err)
	}
	if err := validateName("web-app"); err != nil {
		t.Errorf("slug rejected: %v", err)
	}
	if err := validateName("Web App"); err == nil {
		t.Error("expected error for non-slug name")
	}
}
