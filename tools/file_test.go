package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustJSON(t require.TestingT, v any) json.RawMessage {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestWriteReadFile_RoundTrip(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	write := NewWriteFileTool(ws)
	read := NewReadFileTool(ws)
	ctx := context.Background()

	out, err := write.Execute(ctx, mustJSON(t, map[string]string{
		"path":    "docs/note.txt",
		"content": "hello world\n",
	}))
	require.NoError(t, err)
	assert.Contains(t, out, "[SUCCESS]")
	assert.Contains(t, out, "docs/note.txt")

	got, err := read.Execute(ctx, mustJSON(t, map[string]string{"path": "docs/note.txt"}))
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", got)
}

func TestReadFile_NotFound(t *testing.T) {
	t.Parallel()

	read := NewReadFileTool(newTestWorkspace(t))
	_, err := read.Execute(context.Background(), mustJSON(t, map[string]string{"path": "missing.txt"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestReadFile_Directory(t *testing.T) {
	t.Parallel()

	read := NewReadFileTool(newTestWorkspace(t))
	_, err := read.Execute(context.Background(), mustJSON(t, map[string]string{"path": "memory"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a file")
}

func TestFileTools_EscapeDenied(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	ctx := context.Background()

	_, err := NewReadFileTool(ws).Execute(ctx, mustJSON(t, map[string]string{"path": "../secrets.txt"}))
	assert.True(t, errors.Is(err, ErrAccessDenied))

	_, err = NewWriteFileTool(ws).Execute(ctx, mustJSON(t, map[string]string{
		"path":    "/etc/cron.d/evil",
		"content": "boom",
	}))
	assert.True(t, errors.Is(err, ErrAccessDenied))

	_, err = NewListFilesTool(ws).Execute(ctx, mustJSON(t, map[string]string{"path": "../.."}))
	assert.True(t, errors.Is(err, ErrAccessDenied))
}

func TestListFiles(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Root(), "b.txt"), []byte("bb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Root(), "a.txt"), []byte("a"), 0o644))

	out, err := NewListFilesTool(ws).Execute(context.Background(), nil)
	require.NoError(t, err)

	idxA := strings.Index(out, "a.txt")
	idxB := strings.Index(out, "b.txt")
	require.GreaterOrEqual(t, idxA, 0)
	require.GreaterOrEqual(t, idxB, 0)
	assert.Less(t, idxA, idxB, "entries are sorted by name")
	assert.Contains(t, out, "DIR")
	assert.Contains(t, out, "memory")
}

func TestListFiles_Empty(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	out, err := NewListFilesTool(ws).Execute(context.Background(), mustJSON(t, map[string]string{"path": "memory"}))
	require.NoError(t, err)
	assert.Equal(t, "[Directory is empty]", out)
}

func TestListFiles_NotFound(t *testing.T) {
	t.Parallel()

	ws := newTestWorkspace(t)
	_, err := NewListFilesTool(ws).Execute(context.Background(), mustJSON(t, map[string]string{"path": "nowhere"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory not found")
}

// write_file then read_file returns the content byte for byte, for any
// content and any contained path.
func TestProperty_FileTools_WriteReadRoundTrip(t *testing.T) {
	ws := newTestWorkspace(t)
	write := NewWriteFileTool(ws)
	read := NewReadFileTool(ws)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		segs := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9_]{1,10}`), 1, 3).Draw(rt, "segs")
		rel := filepath.Join(segs...) + ".txt"
		content := rapid.String().Draw(rt, "content")

		_, err := write.Execute(ctx, mustJSON(rt, map[string]string{"path": rel, "content": content}))
		require.NoError(rt, err)

		got, err := read.Execute(ctx, mustJSON(rt, map[string]string{"path": rel}))
		require.NoError(rt, err)
		assert.Equal(rt, content, got)
	})
}
