package tools

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestWorkspace(t testing.TB) *Workspace {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	return ws
}

func TestNewWorkspace_CreatesRootAndMemoryDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "agent", "home")
	ws, err := NewWorkspace(dir)
	require.NoError(t, err)

	info, err := os.Stat(ws.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	info, err = os.Stat(filepath.Join(ws.Root(), "memory"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewWorkspace_EmptyDir(t *testing.T) {
	t.Parallel()

	_, err := NewWorkspace("")
	assert.Error(t, err)
}

func TestWorkspace_Resolve(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)

	tests := []struct {
		name   string
		path   string
		denied bool
	}{
		{"simple file", "notes.txt", false},
		{"nested file", "a/b/c.txt", false},
		{"dot", ".", false},
		{"dotdot inside", "a/../notes.txt", false},
		{"absolute path", "/etc/passwd", true},
		{"parent escape", "../outside.txt", true},
		{"deep parent escape", "a/../../../outside.txt", true},
		{"sneaky prefix", "../" + filepath.Base(ws.Root()) + "-evil/x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abs, err := ws.Resolve(tt.path)
			if tt.denied {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrAccessDenied), "want ErrAccessDenied, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(abs, ws.Root()))
		})
	}
}

func TestWorkspace_Resolve_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	ws := newTestWorkspace(t)

	link := filepath.Join(ws.Root(), "escape")
	require.NoError(t, os.Symlink(outside, link))

	_, err := ws.Resolve("escape/secret.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccessDenied))

	_, err = ws.Resolve("escape")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccessDenied))
}

func TestWorkspace_Resolve_SymlinkInside(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(ws.Root(), "real"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(ws.Root(), "real"), filepath.Join(ws.Root(), "alias")))

	_, err := ws.Resolve("alias/file.txt")
	assert.NoError(t, err)
}

// Any relative path whose cleaned form climbs above the root must be denied,
// and the denial must leave the filesystem untouched.
func TestProperty_Workspace_EscapingPathsDenied(t *testing.T) {
	ws := newTestWorkspace(t)

	rapid.Check(t, func(rt *rapid.T) {
		depth := rapid.IntRange(1, 5).Draw(rt, "depth")
		inner := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 3).Draw(rt, "inner")

		parts := make([]string, 0, depth+len(inner))
		for i := 0; i < depth; i++ {
			parts = append(parts, "..")
		}
		parts = append(parts, inner...)
		escaping := filepath.Join(parts...)

		before := snapshotDir(rt, ws.Root())

		_, err := ws.Resolve(escaping)
		require.Error(rt, err, "path %q must not resolve", escaping)
		assert.True(rt, errors.Is(err, ErrAccessDenied))

		after := snapshotDir(rt, ws.Root())
		assert.Equal(rt, before, after, "denied resolve must not touch the workspace")
	})
}

// Paths that stay inside the root, however convoluted, always resolve to a
// prefix of the root.
func TestProperty_Workspace_ContainedPathsResolveInside(t *testing.T) {
	ws := newTestWorkspace(t)

	rapid.Check(t, func(rt *rapid.T) {
		segs := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9]{1,8}`), 1, 4).Draw(rt, "segs")
		rel := filepath.Join(segs...)

		abs, err := ws.Resolve(rel)
		require.NoError(rt, err)
		assert.True(rt, abs == ws.Root() || strings.HasPrefix(abs, ws.Root()+string(filepath.Separator)))
	})
}

func snapshotDir(t require.TestingT, root string) []string {
	var entries []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		entries = append(entries, path)
		return nil
	})
	require.NoError(t, err)
	return entries
}
