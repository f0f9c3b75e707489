package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/openclaw/picoclaw/agent"
	"github.com/openclaw/picoclaw/internal/store"
	"github.com/openclaw/picoclaw/tools"
	"github.com/openclaw/picoclaw/types"
)

// ChatAgent is the slice of the agent surface scheduled tasks need.
type ChatAgent interface {
	Chat(ctx context.Context, userMessage string, history []types.Message) (*agent.ChatResult, error)
}

// AgentFactory returns a chat agent for the named agent type.
type AgentFactory func(agentType string) (ChatAgent, error)

// AgentTaskExecutor sends a scheduled message to an agent.
type AgentTaskExecutor struct {
	agents AgentFactory
}

func NewAgentTaskExecutor(agents AgentFactory) *AgentTaskExecutor {
	return &AgentTaskExecutor{agents: agents}
}

func (e *AgentTaskExecutor) Type() string { return "agent_task" }

type agentTaskConfig struct {
	AgentType string `json:"agent_type"`
	Message   string `json:"message"`
}

func (e *AgentTaskExecutor) Execute(ctx context.Context, job store.Job) (string, error) {
	var cfg agentTaskConfig
	if err := json.Unmarshal([]byte(job.Config), &cfg); err != nil {
		return "", fmt.Errorf("agent task config: %w", err)
	}
	if cfg.Message == "" {
		return "", fmt.Errorf("agent task config: message is required")
	}

	ag, err := e.agents(cfg.AgentType)
	if err != nil {
		return "", err
	}

	result, err := ag.Chat(ctx, cfg.Message, nil)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// shellTimeout bounds scheduled shell commands.
const shellTimeout = 60 * time.Second

// ShellCommandExecutor runs a shell command inside the workspace. Commands
// pass the same deny-list as the agent shell tool before any process is
// spawned.
type ShellCommandExecutor struct {
	workDir string
	timeout time.Duration
}

func NewShellCommandExecutor(workDir string) *ShellCommandExecutor {
	return &ShellCommandExecutor{workDir: workDir, timeout: shellTimeout}
}

func (e *ShellCommandExecutor) Type() string { return "shell_command" }

type shellCommandConfig struct {
	Command string `json:"command"`
}

func (e *ShellCommandExecutor) Execute(ctx context.Context, job store.Job) (string, error) {
	var cfg shellCommandConfig
	if err := json.Unmarshal([]byte(job.Config), &cfg); err != nil {
		return "", fmt.Errorf("shell command config: %w", err)
	}
	if cfg.Command == "" {
		return "", fmt.Errorf("shell command config: command is required")
	}
	if err := tools.CheckCommand(cfg.Command); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", cfg.Command)
	cmd.Dir = e.workDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %s", e.timeout)
	}
	if err != nil {
		return "", fmt.Errorf("command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// WebhookExecutor calls an HTTP endpoint on schedule.
type WebhookExecutor struct {
	client *http.Client
}

func NewWebhookExecutor(client *http.Client) *WebhookExecutor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookExecutor{client: client}
}

func (e *WebhookExecutor) Type() string { return "webhook" }

type webhookConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Data    json.RawMessage   `json:"data"`
}

func (e *WebhookExecutor) Execute(ctx context.Context, job store.Job) (string, error) {
	var cfg webhookConfig
	if err := json.Unmarshal([]byte(job.Config), &cfg); err != nil {
		return "", fmt.Errorf("webhook config: %w", err)
	}
	if cfg.URL == "" {
		return "", fmt.Errorf("webhook config: url is required")
	}
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if len(cfg.Data) > 0 {
		body = bytes.NewReader(cfg.Data)
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, body)
	if err != nil {
		return "", err
	}
	if len(cfg.Data) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, resultLimit))
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}
	return fmt.Sprintf("%d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt))), nil
}
