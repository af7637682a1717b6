// Package workspace allocates and releases the per-case ephemeral directory
// handed to the build toolchain as its artifact output directory.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"matrixrunner/pkg/logging"
)

// dirPrefix names every workspace directory this package creates, so a
// startup sweep can recognize leftovers from a prior killed run.
const dirPrefix = "matrix-runner-"

var sanitizeRE = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Workspace is a per-case temporary directory. It must be released exactly
// once.
type Workspace struct {
	Path string
}

// Acquire creates a fresh directory under <projectRoot>/target, falling back
// to the system temp area if that directory cannot be created (e.g. no
// "target" convention for this project). The directory name embeds a
// sanitized case name plus a uuid suffix so concurrent cases sharing a
// name-derived prefix never collide.
func Acquire(projectRoot, caseName string) (*Workspace, error) {
	name := dirPrefix + sanitize(caseName) + "-" + uuid.NewString()

	preferred := filepath.Join(projectRoot, "target", name)
	if err := os.MkdirAll(filepath.Dir(preferred), 0o755); err == nil {
		if err := os.Mkdir(preferred, 0o755); err == nil {
			return &Workspace{Path: preferred}, nil
		}
	}

	fallback, err := os.MkdirTemp("", name)
	if err != nil {
		return nil, fmt.Errorf("workspace: acquire for case %q: %w", caseName, err)
	}
	return &Workspace{Path: fallback}, nil
}

// Release recursively removes the workspace directory. Safe to call on a
// nil Workspace.
func (w *Workspace) Release() error {
	if w == nil || w.Path == "" {
		return nil
	}
	return os.RemoveAll(w.Path)
}

func sanitize(name string) string {
	return sanitizeRE.ReplaceAllString(name, "_")
}

// SweepStale removes matrix-runner-* directories left under
// <projectRoot>/target by a prior run that was killed before it could
// release its workspaces.
func SweepStale(projectRoot string) {
	root := filepath.Join(projectRoot, "target")
	matches, err := doublestar.Glob(os.DirFS(root), dirPrefix+"*")
	if err != nil {
		return
	}
	for _, m := range matches {
		full := filepath.Join(root, m)
		if err := os.RemoveAll(full); err != nil {
			logging.Warn("workspace", "failed to remove stale workspace %s: %v", full, err)
		} else {
			logging.Debug("workspace", "removed stale workspace %s", full)
		}
	}
}
