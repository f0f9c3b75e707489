// Package server exposes the HTTP surface: conversation CRUD, the
// send-message endpoint that drives the agent, a metrics endpoint, and the
// websocket channel. It contains no agent logic of its own.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openclaw/picoclaw/agent"
	"github.com/openclaw/picoclaw/config"
	"github.com/openclaw/picoclaw/internal/channel"
	"github.com/openclaw/picoclaw/internal/metrics"
	"github.com/openclaw/picoclaw/internal/store"
	"github.com/openclaw/picoclaw/types"
)

// Agent is the slice of the agent API the server needs.
type Agent interface {
	Chat(ctx context.Context, userMessage string, history []types.Message) (*agent.ChatResult, error)
}

// AgentFactory resolves an agent instance for a conversation's agent type.
// Each agent type gets its own workspace.
type AgentFactory func(agentType string) (Agent, error)

// Server is the HTTP front of the application.
type Server struct {
	cfg       config.ServerConfig
	store     *store.Store
	hub       *channel.Hub
	collector *metrics.Collector
	agents    AgentFactory
	logger    *zap.Logger
}

// New assembles the server. All collaborators are required except the
// logger.
func New(cfg config.ServerConfig, st *store.Store, hub *channel.Hub, collector *metrics.Collector, agents AgentFactory, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		store:     st,
		hub:       hub,
		collector: collector,
		agents:    agents,
		logger:    logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	mux.HandleFunc("GET /api/conversations/{id}", s.handleGetConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", s.handleDeleteConversation)
	mux.HandleFunc("POST /api/conversations/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	mux.HandleFunc("POST /api/jobs/{id}/enable", s.handleSetJobEnabled(true))
	mux.HandleFunc("POST /api/jobs/{id}/disable", s.handleSetJobEnabled(false))
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleDeleteJob)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.Handle("GET /metrics", s.collector.Handler())
	mux.Handle("/ws", s.hub)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) observeToolResults(results []types.ToolResult) {
	if s.collector == nil {
		return
	}
	for _, tr := range results {
		s.collector.ObserveTool(tr.Name, tr.IsError(), tr.Duration)
	}
}

func (s *Server) observeChat(result *agent.ChatResult, err error, elapsed time.Duration) {
	if s.collector == nil {
		return
	}
	switch {
	case err != nil:
		s.collector.ObserveChat(metrics.OutcomeFailed, iterationsOf(result), elapsed)
	case result.Aborted:
		s.collector.ObserveChat(metrics.OutcomeAborted, result.Iterations, elapsed)
	default:
		s.collector.ObserveChat(metrics.OutcomeCompleted, result.Iterations, elapsed)
	}
	if result != nil {
		s.collector.ObserveUsage(result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.EstimatedCost)
		s.observeToolResults(result.ToolResults)
	}
	s.collector.SetWSClients(s.hub.ClientCount())
}

func iterationsOf(result *agent.ChatResult) int {
	if result == nil {
		return 0
	}
	return result.Iterations
}
