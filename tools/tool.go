// Package tools provides the sandboxed, schema-validated capability registry
// used by the agent loop. Every tool is confined to its agent's Workspace;
// the combined path-confinement and command deny-list checks are enforced
// here, before any execution happens.
package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/openclaw/picoclaw/types"
)

// Sandbox and validation failures. These are never fatal to the agent loop:
// the registry converts them into ToolResult error text that is fed back to
// the model so it can adapt its next request.
var (
	ErrValidation       = errors.New("invalid tool arguments")
	ErrAccessDenied     = errors.New("access denied: path outside workspace")
	ErrDangerousCommand = errors.New("dangerous command blocked")
	ErrTimeout          = errors.New("command timed out")
	ErrToolNotFound     = errors.New("tool not found")
)

// Tool is a named, schema-validated executable capability.
type Tool interface {
	// Name returns the tool's unique name.
	Name() string
	// Description returns the human/model-facing description.
	Description() string
	// Schema returns the JSON Schema for the tool's arguments.
	Schema() *types.JSONSchema
	// Execute runs the tool with validated arguments and returns result text.
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
