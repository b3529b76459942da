// Package workdir resolves the directory argument of a command.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when the path exists but is a regular file.
var ErrNotDirectory = errors.New("not a directory")

// Resolve returns the absolute, symlink-free directory named by arg, taken
// relative to cwd. An empty arg resolves to cwd itself.
func Resolve(cwd, arg string) (string, error) {
	path := cwd
	if arg != "" {
		path = arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path %s does not exist", abs)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
