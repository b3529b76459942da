package pull

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/marcus/vcpull/internal/models"
	"github.com/sourcegraph/conc"
)

// StateDir is the directory holding per-target env files and the link cache.
const StateDir = ".vercel"

// DefaultEnvFileRoot is the base name used when --env is not given.
const DefaultEnvFileRoot = ".env"

// SyncTask is one unit of fan-out work.
type SyncTask struct {
	Target models.Target
	Path   string
	Legacy bool // development file kept at the directory root for older layouts
}

// DownloadRequest describes one target download. TeamID carries the team
// context explicitly; downloads never read it from shared state.
type DownloadRequest struct {
	TeamID     string
	Project    models.Project
	Target     models.Target
	Args       []string
	Candidates []string
}

// Downloader fetches one target's variables and writes the first viable
// candidate path, returning 0 on success.
type Downloader interface {
	Download(ctx context.Context, req DownloadRequest) int
}

// Tasks returns the fixed task list in declaration order: legacy development,
// development, preview, production.
func Tasks(envFileRoot, dir string) []SyncTask {
	tasks := []SyncTask{
		{Target: models.TargetDevelopment, Path: filepath.Join(dir, envFileRoot), Legacy: true},
	}
	for _, target := range models.Targets() {
		tasks = append(tasks, SyncTask{
			Target: target,
			Path:   filepath.Join(dir, StateDir, envFileRoot+"."+string(target)+".local"),
		})
	}
	return tasks
}

// SyncAll downloads every task concurrently, waits for all of them, and
// returns the aggregate code. A failing task never cancels its siblings.
func SyncAll(ctx context.Context, dl Downloader, teamID, envFileRoot string, project models.Project, args []string, dir string) int {
	tasks := Tasks(envFileRoot, dir)

	// A task that panics keeps its pre-filled failure code.
	results := make([]int, len(tasks))
	for i := range results {
		results[i] = 1
	}

	var wg conc.WaitGroup
	for i, task := range tasks {
		wg.Go(func() {
			slog.Debug("sync: dispatch", "target", task.Target, "path", task.Path, "legacy", task.Legacy)
			results[i] = dl.Download(ctx, DownloadRequest{
				TeamID:     teamID,
				Project:    project,
				Target:     task.Target,
				Args:       args,
				Candidates: []string{task.Path},
			})
			slog.Debug("sync: done", "target", task.Target, "path", task.Path, "code", results[i])
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		slog.Error("sync: task panicked", "panic", recovered.Value)
	}

	return Aggregate(results)
}

// Aggregate returns the first nonzero result in slice order, or 0 when every
// result is 0. Order is task declaration order, never completion order.
func Aggregate(results []int) int {
	for _, code := range results {
		if code != 0 {
			return code
		}
	}
	return 0
}
