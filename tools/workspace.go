package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is a filesystem root owned by one agent instance. All file-tool
// paths are resolved and confined relative to it; nothing inside the core
// ever deletes it.
type Workspace struct {
	root string
}

// MemoryFileName is the append-only memory log path relative to the root.
const MemoryFileName = "memory/MEMORY.md"

// NewWorkspace creates (if needed) and opens a workspace rooted at dir.
// Symlinks in the root itself are resolved once here so later confinement
// checks compare against the real path.
func NewWorkspace(dir string) (*Workspace, error) {
	if dir == "" {
		return nil, fmt.Errorf("workspace root is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "memory"), 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}

	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Workspace{root: root}, nil
}

// Root returns the resolved absolute workspace root.
func (w *Workspace) Root() string { return w.root }

// Resolve maps a workspace-relative path to an absolute path, rejecting any
// result outside the root: absolute inputs, ".." escapes, and symlink
// indirection all return ErrAccessDenied.
func (w *Workspace) Resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, rel)
	}

	target := filepath.Join(w.root, filepath.Clean(rel))
	if !w.contains(target) {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, rel)
	}

	// Join already collapses ".." segments; what remains is symlink
	// indirection. Resolve the deepest existing ancestor and re-check.
	resolved, err := resolveExisting(target)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rel, err)
	}
	if !w.contains(resolved) {
		return "", fmt.Errorf("%w: %s", ErrAccessDenied, rel)
	}
	return target, nil
}

func (w *Workspace) contains(abs string) bool {
	return abs == w.root || strings.HasPrefix(abs, w.root+string(filepath.Separator))
}

// resolveExisting resolves symlinks for the deepest existing prefix of path
// and rejoins the non-existing suffix, so confinement holds for paths that
// are about to be created.
func resolveExisting(path string) (string, error) {
	var suffix []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(suffix) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, suffix[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		suffix = append(suffix, filepath.Base(current))
		current = parent
	}
}
