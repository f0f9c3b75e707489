package tools

import (
	"time"

	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/types"
)

// BuiltinOptions tunes the standard tool set.
type BuiltinOptions struct {
	ShellTimeout   time.Duration // 0 means DefaultShellTimeout
	BraveAPIKey    string        // empty disables live web search
	MaxShellOutput int           // bytes, 0 means DefaultMaxOutput
}

// RegisterBuiltins registers the standard tools on the registry, honoring
// the per-tool enable flags in cfg. Returns the first registration error.
func RegisterBuiltins(reg *Registry, ws *Workspace, cfg types.AgentConfig, opts BuiltinOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := DefaultShellTimeout
	if opts.ShellTimeout > 0 {
		timeout = opts.ShellTimeout
	}
	maxOutput := DefaultMaxOutput
	if opts.MaxShellOutput > 0 {
		maxOutput = opts.MaxShellOutput
	}

	all := []Tool{
		NewShellTool(ws, timeout, maxOutput, logger),
		NewReadFileTool(ws),
		NewWriteFileTool(ws),
		NewListFilesTool(ws),
		NewMemoryTool(ws),
		NewWebSearchTool(opts.BraveAPIKey, logger),
	}
	for _, t := range all {
		if !cfg.ToolEnabled(t.Name()) {
			logger.Debug("tool disabled by config", zap.String("tool", t.Name()))
			continue
		}
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
