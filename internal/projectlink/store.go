// Package projectlink reads and writes the per-directory link cache
// (.vercel/project.json) and resolves it against the remote API.
package projectlink

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/vcpull/internal/models"
	"golang.org/x/sys/unix"
)

// Dir is the name of the per-project state directory.
const Dir = ".vercel"

const (
	projectFile = "project.json"
	lockFile    = "project.json.lock"
	readmeFile  = "README.txt"
)

const readme = `> Why do I have a folder named ".vercel" in my project?
The ".vercel" folder is created when you link a directory to a project.

> What does the "project.json" file contain?
The "project.json" file contains:
- The ID of the project that you linked ("projectId")
- The ID of the user or team your project is owned by ("orgId")

> Should I commit the ".vercel" folder?
No, you should not share the ".vercel" folder with anyone.
Upon creation, it will be automatically added to your ".gitignore" file.
`

// ErrMalformed is returned when project.json cannot be decoded.
var ErrMalformed = errors.New("malformed project.json")

// ProjectFile is the on-disk shape of .vercel/project.json.
type ProjectFile struct {
	ProjectID string                  `json:"projectId"`
	OrgID     string                  `json:"orgId"`
	Settings  *models.ProjectSettings `json:"settings,omitempty"`
}

// Path returns the location of project.json under dir.
func Path(dir string) string {
	return filepath.Join(dir, Dir, projectFile)
}

// Read loads project.json from dir. Returns nil, nil when the directory is
// not linked.
func Read(dir string) (*ProjectFile, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", projectFile, err)
	}

	var pf ProjectFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if pf.ProjectID == "" || pf.OrgID == "" {
		return nil, fmt.Errorf("%w: missing projectId or orgId", ErrMalformed)
	}
	return &pf, nil
}

// Write saves project.json under dir using an atomic write (temp file + rename)
// while holding an exclusive lock, and ensures the README and .gitignore entry.
func Write(dir string, pf *ProjectFile) error {
	return withLock(dir, func() error {
		if err := writeAtomic(Path(dir), pf); err != nil {
			return err
		}
		if err := writeReadme(dir); err != nil {
			return err
		}
		return ensureGitignore(dir)
	})
}

// Remove deletes project.json. Returns false when the directory was not linked.
func Remove(dir string) (bool, error) {
	var removed bool
	err := withLock(dir, func() error {
		err := os.Remove(Path(dir))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

func writeAtomic(path string, v any) error {
	stateDir := filepath.Dir(path)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(stateDir, "project-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}

func writeReadme(dir string) error {
	path := filepath.Join(dir, Dir, readmeFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(readme), 0644)
}

// ensureGitignore appends the state directory to .gitignore when missing.
func ensureGitignore(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, line := range strings.Split(string(existing), "\n") {
		switch strings.TrimSpace(line) {
		case Dir, Dir + "/", "/" + Dir, "/" + Dir + "/":
			return nil
		}
	}

	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += Dir + "\n"
	return os.WriteFile(path, []byte(content), 0644)
}

// withLock serializes access to project.json using flock
func withLock(dir string, fn func() error) error {
	lockPath := filepath.Join(dir, Dir, lockFile)

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	return fn()
}
