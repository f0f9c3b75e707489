package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openclaw/picoclaw/internal/channel"
	"github.com/openclaw/picoclaw/internal/store"
	"github.com/openclaw/picoclaw/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.store.ListConversations(r.Context())
	if err != nil {
		s.serverError(w, "list conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

type createConversationRequest struct {
	AgentType string `json:"agent_type"`
	Title     string `json:"title"`
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AgentType == "" {
		writeError(w, http.StatusBadRequest, "agent_type is required")
		return
	}

	conv, err := s.store.CreateConversation(r.Context(), req.AgentType, req.Title)
	if err != nil {
		s.serverError(w, "create conversation", err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.GetConversation(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.serverError(w, "get conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteConversation(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.serverError(w, "delete conversation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	Message     *store.Message   `json:"message"`
	Usage       types.TokenUsage `json:"usage"`
	Iterations  int              `json:"iterations"`
	Aborted     bool             `json:"aborted"`
	ToolResults int              `json:"tool_results"`
}

// handleSendMessage runs one chat turn: persist the user message, invoke the
// agent with the stored history, persist and broadcast the reply.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	ctx := r.Context()
	conv, err := s.store.GetConversation(ctx, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.serverError(w, "get conversation", err)
		return
	}

	history := historyFromMessages(conv.Messages)

	userMsg, err := s.store.AppendMessage(ctx, conv.ID, string(types.RoleUser), req.Content, "")
	if err != nil {
		s.serverError(w, "append user message", err)
		return
	}
	s.broadcastMessage(ctx, conv.ID, userMsg)

	ag, err := s.agents(conv.AgentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown agent type: "+conv.AgentType)
		return
	}

	start := time.Now()
	result, chatErr := ag.Chat(ctx, req.Content, history)
	s.observeChat(result, chatErr, time.Since(start))

	if chatErr != nil {
		s.logger.Error("chat failed",
			zap.String("conversation_id", conv.ID),
			zap.Error(chatErr),
		)
		errMsg, appendErr := s.store.AppendMessage(ctx, conv.ID,
			string(types.RoleSystem), "[ERROR] "+chatErr.Error(), "")
		if appendErr == nil {
			s.broadcastMessage(ctx, conv.ID, errMsg)
		}
		writeError(w, http.StatusBadGateway, "agent request failed")
		return
	}

	meta, _ := json.Marshal(map[string]any{
		"iterations":   result.Iterations,
		"aborted":      result.Aborted,
		"tool_results": len(result.ToolResults),
		"usage":        result.Usage,
	})
	reply, err := s.store.AppendMessage(ctx, conv.ID,
		string(types.RoleAssistant), result.Content, string(meta))
	if err != nil {
		s.serverError(w, "append assistant message", err)
		return
	}
	if err := s.store.RecordUsage(ctx, conv.ID, result.Usage.TotalTokens, result.Usage.EstimatedCost); err != nil {
		s.logger.Warn("record usage failed", zap.Error(err))
	}
	s.broadcastMessage(ctx, conv.ID, reply)

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Message:     reply,
		Usage:       result.Usage,
		Iterations:  result.Iterations,
		Aborted:     result.Aborted,
		ToolResults: len(result.ToolResults),
	})
}

type statsResponse struct {
	*store.Stats
	WSClients int `json:"ws_clients"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		s.serverError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Stats: st, WSClients: s.hub.ClientCount()})
}

// historyFromMessages converts stored turns into provider messages. System
// error records are skipped; the system prompt is rebuilt per turn.
func historyFromMessages(msgs []store.Message) []types.Message {
	history := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		switch types.Role(m.Role) {
		case types.RoleUser:
			history = append(history, types.NewUserMessage(m.Content))
		case types.RoleAssistant:
			history = append(history, types.NewAssistantMessage(m.Content))
		}
	}
	return history
}

func (s *Server) broadcastMessage(ctx context.Context, conversationID string, msg *store.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.hub.Broadcast(ctx, channel.Event{
		Type:           channel.EventMessage,
		ConversationID: conversationID,
		Payload:        payload,
	})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
