package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openclaw/picoclaw/types"
)

type pathArgs struct {
	Path string `json:"path"`
}

// ReadFileTool reads a file inside the workspace.
type ReadFileTool struct {
	ws *Workspace
}

// NewReadFileTool creates a read_file tool bound to a workspace.
func NewReadFileTool(ws *Workspace) *ReadFileTool { return &ReadFileTool{ws: ws} }

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read contents of a file in the workspace. Provide the relative path from workspace root."
}

func (t *ReadFileTool) Schema() *types.JSONSchema {
	return types.NewObjectSchema().
		AddProperty("path", types.NewStringSchema().WithDescription("Relative path to the file from workspace root")).
		AddRequired("path")
}

func (t *ReadFileTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params pathArgs
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	abs, err := t.ws.Resolve(params.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", params.Path)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("not a file: %s", params.Path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// WriteFileTool writes (overwrites) a file inside the workspace, creating
// parent directories as needed.
type WriteFileTool struct {
	ws *Workspace
}

// NewWriteFileTool creates a write_file tool bound to a workspace.
func NewWriteFileTool(ws *Workspace) *WriteFileTool { return &WriteFileTool{ws: ws} }

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Write or overwrite a file with the given content. Creates parent directories if needed."
}

func (t *WriteFileTool) Schema() *types.JSONSchema {
	return types.NewObjectSchema().
		AddProperty("path", types.NewStringSchema().WithDescription("Relative path to the file from workspace root")).
		AddProperty("content", types.NewStringSchema().WithDescription("Content to write to the file")).
		AddRequired("path", "content")
}

type writeFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (t *WriteFileTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params writeFileArgs
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	abs, err := t.ws.Resolve(params.Path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.WriteFile(abs, []byte(params.Content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fmt.Sprintf("[SUCCESS] File written: %s (%d bytes)", params.Path, len(params.Content)), nil
}

// ListFilesTool enumerates entries at a workspace-relative directory.
type ListFilesTool struct {
	ws *Workspace
}

// NewListFilesTool creates a list_files tool bound to a workspace.
func NewListFilesTool(ws *Workspace) *ListFilesTool { return &ListFilesTool{ws: ws} }

func (t *ListFilesTool) Name() string { return "list_files" }

func (t *ListFilesTool) Description() string {
	return "List files and directories in the workspace. Provide a relative path or leave empty for root."
}

func (t *ListFilesTool) Schema() *types.JSONSchema {
	schema := types.NewObjectSchema()
	path := types.NewStringSchema().WithDescription("Relative path from workspace root (default: root)")
	path.Default = "."
	return schema.AddProperty("path", path)
}

func (t *ListFilesTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params pathArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if params.Path == "" {
		params.Path = "."
	}

	abs, err := t.ws.Resolve(params.Path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory not found: %s", params.Path)
		}
		return "", fmt.Errorf("failed to list directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var lines []string
	for _, entry := range entries {
		kind := "FILE"
		size := "-"
		if entry.IsDir() {
			kind = "DIR"
		} else if info, err := entry.Info(); err == nil {
			size = fmt.Sprintf("%d", info.Size())
		}
		lines = append(lines, fmt.Sprintf("%-4s %10s %s", kind, size, entry.Name()))
	}

	if len(lines) == 0 {
		return "[Directory is empty]", nil
	}
	return strings.Join(lines, "\n"), nil
}
