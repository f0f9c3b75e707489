package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/types"
)

const (
	// DefaultShellTimeout bounds each spawned command's wall clock.
	DefaultShellTimeout = 30 * time.Second
	// DefaultMaxOutput caps captured stdout+stderr to bound memory.
	DefaultMaxOutput = 64 * 1024
)

// ShellTool runs a command string as a child process rooted at the
// Workspace. The deny-list check happens before the process is spawned; on
// timeout the process is killed, never left running.
type ShellTool struct {
	ws        *Workspace
	timeout   time.Duration
	maxOutput int
	logger    *zap.Logger
}

// NewShellTool creates a shell tool bound to a workspace. Zero timeout and
// output ceiling select the defaults.
func NewShellTool(ws *Workspace, timeout time.Duration, maxOutput int, logger *zap.Logger) *ShellTool {
	if timeout <= 0 {
		timeout = DefaultShellTimeout
	}
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellTool{ws: ws, timeout: timeout, maxOutput: maxOutput, logger: logger}
}

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Description() string {
	return "Execute shell commands. Use for system operations, running scripts, and automation tasks."
}

func (t *ShellTool) Schema() *types.JSONSchema {
	return types.NewObjectSchema().
		AddProperty("command", types.NewStringSchema().WithDescription("The shell command to execute")).
		AddRequired("command")
}

type shellArgs struct {
	Command string `json:"command"`
}

func (t *ShellTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params shellArgs
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := CheckCommand(params.Command); err != nil {
		t.logger.Warn("dangerous command blocked", zap.String("command", params.Command))
		return "", err
	}

	execCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", params.Command)
	cmd.Dir = t.ws.Root()

	// The command runs in its own process group so that on timeout the
	// whole tree dies, including backgrounded grandchildren.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrTimeout, t.timeout)
	}
	if execCtx.Err() != nil {
		// Parent cancellation: the child has already been killed.
		return "", fmt.Errorf("command cancelled: %w", execCtx.Err())
	}

	output := truncate(stdout.String(), t.maxOutput)
	if stderr.Len() > 0 {
		output += "\n[STDERR]\n" + truncate(stderr.String(), t.maxOutput)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			output += fmt.Sprintf("\n[EXIT CODE: %d]", exitErr.ExitCode())
		} else {
			return "", fmt.Errorf("failed to execute command: %w", runErr)
		}
	}

	if output == "" {
		output = "[Command executed successfully with no output]"
	}
	return output, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[OUTPUT TRUNCATED]"
}
