// Command picoclaw runs the agent server: HTTP API, websocket channel,
// background job scheduler, and Prometheus metrics.
//
// Usage:
//
//	picoclaw serve                      # start the server
//	picoclaw serve --config pico.yaml   # with a config file
//	picoclaw version                    # show version info
//	picoclaw health                     # probe a running server
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/picoclaw/agent"
	"github.com/openclaw/picoclaw/config"
	"github.com/openclaw/picoclaw/internal/channel"
	"github.com/openclaw/picoclaw/internal/metrics"
	"github.com/openclaw/picoclaw/internal/server"
	"github.com/openclaw/picoclaw/internal/store"
	"github.com/openclaw/picoclaw/scheduler"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting picoclaw",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	hub := channel.NewHub(logger)
	collector := metrics.NewCollector("picoclaw")
	agents := newAgentPool(cfg, logger)

	srv := server.New(cfg.Server, st, hub, collector, func(agentType string) (server.Agent, error) {
		return agents.get(agentType)
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(st, cfg.Scheduler.TickInterval, logger)
		sched.RegisterExecutor(scheduler.NewAgentTaskExecutor(func(agentType string) (scheduler.ChatAgent, error) {
			return agents.get(agentType)
		}))
		sched.RegisterExecutor(scheduler.NewShellCommandExecutor(cfg.Agent.WorkspaceRoot))
		sched.RegisterExecutor(scheduler.NewWebhookExecutor(nil))
		g.Go(func() error {
			if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("picoclaw stopped")
}

// agentPool builds one agent per agent type, each confined to its own
// workspace subdirectory, and reuses them across requests.
type agentPool struct {
	cfg    *config.Config
	logger *zap.Logger

	mu     sync.Mutex
	agents map[string]*agent.Agent
}

func newAgentPool(cfg *config.Config, logger *zap.Logger) *agentPool {
	return &agentPool{
		cfg:    cfg,
		logger: logger,
		agents: make(map[string]*agent.Agent),
	}
}

func (p *agentPool) get(agentType string) (*agent.Agent, error) {
	if agentType == "" {
		agentType = "main"
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if ag, ok := p.agents[agentType]; ok {
		return ag, nil
	}

	workspace := filepath.Join(p.cfg.Agent.WorkspaceRoot, agentType)
	ag, err := agent.New(
		p.cfg.AgentConfig(workspace),
		p.cfg.LLM.Credential,
		agent.Options{
			BraveAPIKey: p.cfg.Search.BraveAPIKey,
			HTTPTimeout: p.cfg.LLM.Timeout,
		},
		p.logger.With(zap.String("agent_type", agentType)),
	)
	if err != nil {
		return nil, fmt.Errorf("build agent %q: %w", agentType, err)
	}
	p.agents[agentType] = ag
	return ag, nil
}

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8790", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/api/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func printVersion() {
	fmt.Printf("picoclaw %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`picoclaw - agentic LLM server

Usage:
  picoclaw <command> [options]

Commands:
  serve     Start the picoclaw server
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve':
  --config <path>   Path to configuration file (YAML)

Examples:
  picoclaw serve
  picoclaw serve --config /etc/picoclaw/config.yaml
  picoclaw health --addr http://localhost:8790`)
}
