// Package agent implements the iteration-bounded reasoning loop that drives
// one conversation turn: build context, call the model, execute requested
// tools, feed results back, repeat until the model answers in plain text or
// the iteration budget runs out.
package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/openclaw/picoclaw/tools"
)

// bootstrapFiles are workspace-level prompt overlays, loaded in this fixed
// order when present.
var bootstrapFiles = []string{"IDENTITY.md", "SOUL.md", "USER.md", "AGENTS.md"}

// memoryExcerptLimit caps the memory excerpt injected into the system
// prompt so an old agent's log cannot crowd out the conversation.
const memoryExcerptLimit = 2000

// ContextBuilder assembles the system prompt deterministically from the
// workspace state: identity, tool catalog, bootstrap overlays, and a bounded
// tail of the memory log. Same workspace state and clock, same prompt.
type ContextBuilder struct {
	ws       *tools.Workspace
	registry *tools.Registry
	now      func() time.Time
}

// NewContextBuilder creates a context builder over a workspace and its tool
// registry.
func NewContextBuilder(ws *tools.Workspace, registry *tools.Registry) *ContextBuilder {
	return &ContextBuilder{ws: ws, registry: registry, now: time.Now}
}

// BuildSystemPrompt assembles the full system prompt.
func (b *ContextBuilder) BuildSystemPrompt() string {
	parts := []string{b.identity()}

	if bootstrap := b.loadBootstrapFiles(); bootstrap != "" {
		parts = append(parts, "---\n\n"+bootstrap)
	}
	if memory := b.memoryContext(); memory != "" {
		parts = append(parts, "---\n\n"+memory)
	}
	return strings.Join(parts, "\n")
}

func (b *ContextBuilder) identity() string {
	now := b.now().Format("2006-01-02 15:04 (Monday)")
	runtimeInfo := fmt.Sprintf("%s %s, Go", runtime.GOOS, runtime.GOARCH)

	var sb strings.Builder
	sb.WriteString("# picoclaw 🦞\n\n")
	sb.WriteString("You are picoclaw, a helpful AI assistant.\n\n")
	sb.WriteString("## Current Time\n")
	sb.WriteString(now + "\n\n")
	sb.WriteString("## Runtime\n")
	sb.WriteString(runtimeInfo + "\n\n")
	sb.WriteString("## Workspace\n")
	sb.WriteString("Your workspace is at: " + b.ws.Root() + "\n")
	sb.WriteString("- Memory: " + filepath.Join(b.ws.Root(), tools.MemoryFileName) + "\n\n")
	sb.WriteString(b.toolsSection())
	sb.WriteString("\n## Important Rules\n\n")
	sb.WriteString("1. **ALWAYS use tools** - When you need to perform an action (execute commands, read/write files, search the web, etc.), you MUST call the appropriate tool. Do NOT just say you'll do it or pretend to do it.\n\n")
	sb.WriteString("2. **Be helpful and accurate** - When using tools, briefly explain what you're doing.\n\n")
	sb.WriteString("3. **Memory** - When remembering something important, use the memory tool.\n\n")
	sb.WriteString("4. **Security** - You operate in a sandboxed environment. Dangerous commands are blocked for safety.\n")
	return sb.String()
}

func (b *ContextBuilder) toolsSection() string {
	summaries := b.registry.Summaries()
	if len(summaries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Available Tools\n\n")
	sb.WriteString("**CRITICAL**: You MUST use tools to perform actions. Do NOT pretend to execute commands or operations.\n\n")
	sb.WriteString("You have access to the following tools:\n\n")
	sb.WriteString(strings.Join(summaries, "\n"))
	return sb.String()
}

// loadBootstrapFiles concatenates the workspace prompt overlays that exist.
// Unreadable files are skipped rather than failing the turn.
func (b *ContextBuilder) loadBootstrapFiles() string {
	var sb strings.Builder
	for _, name := range bootstrapFiles {
		data, err := os.ReadFile(filepath.Join(b.ws.Root(), name))
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", name, string(data)))
	}
	return sb.String()
}

// memoryContext returns the tail of the memory log, at most
// memoryExcerptLimit characters, or empty when no memory exists.
func (b *ContextBuilder) memoryContext() string {
	content := tools.ReadMemory(b.ws)
	if content == "" {
		return ""
	}
	if len(content) > memoryExcerptLimit {
		content = "...\n" + content[len(content)-memoryExcerptLimit:]
	}
	return "## Recent Memory\n\n" + content
}
