package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/model"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Response       string              `json:"response"`
	Actions        []core.ActionRecord `json:"actions,omitempty"`
	Forced         bool                `json:"forced,omitempty"`
	ConversationID string              `json:"conversation_id"`
}

// handleChat runs one counsellor turn. The handler owns conversation
// persistence: the engine reads history but never writes it, so the user and
// assistant turns are stored here after the turn completes.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	conversationID := req.ConversationID
	if conversationID != "" {
		if _, err := s.store.GetConversation(r.Context(), uid, conversationID); err != nil {
			respondError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
	}

	result, err := s.engine.Chat(r.Context(), uid, conversationID, req.Message)
	if err != nil {
		s.respondProviderError(w, err)
		return
	}

	if conversationID == "" {
		conv := &core.Conversation{UserID: uid, Title: conversationTitle(req.Message)}
		if err := s.store.CreateConversation(r.Context(), conv); err != nil {
			s.logger.Error("create conversation failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to store conversation")
			return
		}
		conversationID = conv.ID
	}

	for _, msg := range []core.ChatMessage{
		{ConversationID: conversationID, Role: core.RoleUser, Content: req.Message},
		{ConversationID: conversationID, Role: core.RoleAssistant, Content: result.Response},
	} {
		m := msg
		if err := s.store.AppendMessage(r.Context(), &m); err != nil {
			s.logger.Error("persist chat turn failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to store messages")
			return
		}
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Response:       result.Response,
		Actions:        result.Actions,
		Forced:         result.Forced,
		ConversationID: conversationID,
	})
}

// respondProviderError maps classified provider failures onto HTTP statuses
// so clients can apply per-kind backoff.
func (s *Server) respondProviderError(w http.ResponseWriter, err error) {
	var pErr *model.ProviderError
	if !errors.As(err, &pErr) {
		s.logger.Error("chat turn failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred, please try again")
		return
	}

	s.logger.Error("provider failure", "provider", pErr.Provider, "kind", string(pErr.Kind))
	switch pErr.Kind {
	case model.ErrKindConnection:
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "AI service is currently unavailable, please try again shortly")
	case model.ErrKindTimeout:
		respondError(w, http.StatusGatewayTimeout, "gateway_timeout", "AI service is taking too long to respond, please try again")
	case model.ErrKindRateLimit:
		respondError(w, http.StatusTooManyRequests, "rate_limit", "too many requests, please wait a moment before trying again")
	case model.ErrKindAuth:
		respondError(w, http.StatusInternalServerError, "configuration_error", "AI service configuration error, please contact support")
	default:
		respondError(w, http.StatusBadGateway, "ai_service_error", "AI service encountered an error, please try again")
	}
}

// conversationTitle derives a short title from the first message.
func conversationTitle(message string) string {
	title := strings.TrimSpace(message)
	if len(title) > 60 {
		title = title[:60]
	}
	if title == "" {
		title = "New conversation"
	}
	return title
}
