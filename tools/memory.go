package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openclaw/picoclaw/types"
)

// MemoryTool reads and appends the agent's long-term memory log inside the
// workspace. The log is append-only: prior content is never truncated or
// rewritten. Concurrent appenders may interleave at the entry level; that is
// accepted for an append-only log and covered by a property test.
type MemoryTool struct {
	ws  *Workspace
	now func() time.Time
}

// NewMemoryTool creates a memory tool bound to a workspace.
func NewMemoryTool(ws *Workspace) *MemoryTool {
	return &MemoryTool{ws: ws, now: time.Now}
}

func (t *MemoryTool) Name() string { return "memory" }

func (t *MemoryTool) Description() string {
	return "Read or append to long-term memory. Use this to remember important information across sessions."
}

func (t *MemoryTool) Schema() *types.JSONSchema {
	return types.NewObjectSchema().
		AddProperty("action", types.NewEnumSchema("read", "append").WithDescription("Action to perform: 'read' or 'append'")).
		AddProperty("content", types.NewStringSchema().WithDescription("Content to append (required for 'append' action)")).
		AddRequired("action")
}

type memoryArgs struct {
	Action  string `json:"action"`
	Content string `json:"content"`
}

func (t *MemoryTool) path() string {
	return filepath.Join(t.ws.Root(), MemoryFileName)
}

func (t *MemoryTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params memoryArgs
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	switch params.Action {
	case "read":
		data, err := os.ReadFile(t.path())
		if os.IsNotExist(err) {
			return "[Memory is empty]", nil
		}
		if err != nil {
			return "", fmt.Errorf("memory read failed: %w", err)
		}
		return string(data), nil

	case "append":
		if params.Content == "" {
			return "", fmt.Errorf("%w: content required for append action", ErrValidation)
		}
		if err := os.MkdirAll(filepath.Dir(t.path()), 0o755); err != nil {
			return "", fmt.Errorf("memory append failed: %w", err)
		}
		f, err := os.OpenFile(t.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return "", fmt.Errorf("memory append failed: %w", err)
		}
		defer f.Close()

		entry := fmt.Sprintf("\n\n---\n[%s]\n%s\n", t.now().Format("2006-01-02 15:04:05"), params.Content)
		if _, err := f.WriteString(entry); err != nil {
			return "", fmt.Errorf("memory append failed: %w", err)
		}
		return "[SUCCESS] Memory updated", nil

	default:
		return "", fmt.Errorf("%w: invalid action %q", ErrValidation, params.Action)
	}
}

// ReadMemory returns the full memory log, or empty when none exists yet.
// Used by the context builder for the system-prompt memory excerpt.
func ReadMemory(ws *Workspace) string {
	data, err := os.ReadFile(filepath.Join(ws.Root(), MemoryFileName))
	if err != nil {
		return ""
	}
	return string(data)
}
