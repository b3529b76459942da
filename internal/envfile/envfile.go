// Package envfile downloads a project's environment variables for one target
// and writes them as a dotenv file.
package envfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/marcus/vcpull/internal/apiclient"
	"github.com/marcus/vcpull/internal/output"
	"github.com/marcus/vcpull/internal/pull"
	"github.com/subosito/gotenv"
)

// Header is written at the top of every generated file.
const Header = "# Created by vcpull\n"

// Downloader implements pull.Downloader against the API and a billy filesystem.
type Downloader struct {
	Client *apiclient.Client
	Out    *output.Printer

	// FS defaults to the host filesystem rooted at "/".
	FS billy.Filesystem
	// Dir is the project directory; written paths are reported relative to it.
	Dir string
	// Now defaults to time.Now.
	Now func() time.Time

	// billy filesystems are not all safe for concurrent use (memfs is not).
	fsMu sync.Mutex
}

// NewDownloader returns a Downloader writing to the host filesystem.
func NewDownloader(client *apiclient.Client, out *output.Printer, dir string) *Downloader {
	return &Downloader{Client: client, Out: out, FS: osfs.New("/"), Dir: dir}
}

// Download fetches req.Target's variables using req.TeamID as the team scope
// and writes them to the first candidate path that accepts the write.
func (d *Downloader) Download(ctx context.Context, req pull.DownloadRequest) int {
	start := d.now()
	d.Out.Info("Downloading %q Environment Variables for Project %s", req.Target, output.Bold(req.Project.Name))

	env, err := d.Client.WithTeam(req.TeamID).PullEnv(ctx, req.Project.ID, req.Target)
	if err != nil {
		d.Out.Error("fetch %s environment variables: %v", req.Target, err)
		return apiclient.ExitCode(err)
	}

	contents := Render(env)

	var lastErr error
	for _, path := range req.Candidates {
		previous, existed, err := d.write(path, contents)
		if err != nil {
			slog.Debug("envfile: write failed", "path", path, "err", err)
			lastErr = err
			continue
		}
		d.report(path, previous, contents, existed, d.now().Sub(start))
		return 0
	}

	if lastErr == nil {
		lastErr = errors.New("no destination path")
	}
	d.Out.Error("write %s environment variables: %v", req.Target, lastErr)
	return 1
}

// Render returns the dotenv file contents for env, keys sorted. Every value
// is double quoted so numeric-looking strings keep their exact text.
func Render(env map[string]string) []byte {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(Header)
	for _, key := range keys {
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(strconv.Quote(env[key]))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// write replaces path with contents through a temp file + rename, returning
// the previous contents when the file existed.
func (d *Downloader) write(path string, contents []byte) ([]byte, bool, error) {
	d.fsMu.Lock()
	defer d.fsMu.Unlock()

	fs := d.fs()
	previous, err := util.ReadFile(fs, path)
	existed := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, false, fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := util.TempFile(fs, dir, ".vcpull-env-")
	if err != nil {
		return nil, false, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return nil, false, err
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return nil, false, err
	}
	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return nil, false, err
	}
	return previous, existed, nil
}

func (d *Downloader) report(path string, previous, contents []byte, existed bool, took time.Duration) {
	display := d.display(path)
	if !existed {
		d.Out.Success("%s  Created %s file %s", output.EmojiSuccess, display, output.Elapsed(took))
		return
	}

	changes := Diff(previous, contents)
	if changes.Empty() {
		d.Out.Info("%s  No changes to %s %s", output.EmojiSuccess, display, output.Elapsed(took))
		return
	}

	d.Out.Success("%s  Updated %s file %s", output.EmojiSuccess, display, output.Elapsed(took))
	for _, key := range changes.Added {
		d.Out.Info("  + %s (Added)", key)
	}
	for _, key := range changes.Changed {
		d.Out.Info("  ~ %s (Changed)", key)
	}
	for _, key := range changes.Removed {
		d.Out.Info("  - %s (Removed)", key)
	}
}

func (d *Downloader) display(path string) string {
	if d.Dir == "" {
		return path
	}
	if rel, err := filepath.Rel(d.Dir, path); err == nil {
		return rel
	}
	return path
}

func (d *Downloader) fs() billy.Filesystem {
	if d.FS == nil {
		d.FS = osfs.New("/")
	}
	return d.FS
}

func (d *Downloader) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Changes lists keys that differ between two dotenv files, each sorted.
type Changes struct {
	Added   []string
	Changed []string
	Removed []string
}

// Empty reports whether no keys differ.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0
}

// Diff compares two dotenv files. Both sides are parsed the same way, so
// variable expansion never reports an unchanged value as changed.
// An unparseable previous file is treated as empty.
func Diff(previous, next []byte) Changes {
	before, err := gotenv.StrictParse(bytes.NewReader(previous))
	if err != nil {
		before = gotenv.Env{}
	}
	after, err := gotenv.StrictParse(bytes.NewReader(next))
	if err != nil {
		after = gotenv.Env{}
	}

	var c Changes
	for key, value := range after {
		old, ok := before[key]
		switch {
		case !ok:
			c.Added = append(c.Added, key)
		case old != value:
			c.Changed = append(c.Changed, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			c.Removed = append(c.Removed, key)
		}
	}
	sort.Strings(c.Added)
	sort.Strings(c.Changed)
	sort.Strings(c.Removed)
	return c
}

var _ pull.Downloader = (*Downloader)(nil)
