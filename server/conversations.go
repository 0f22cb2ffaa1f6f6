package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

type conversationRequest struct {
	Title string `json:"title,omitempty"`
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.store.ListConversations(r.Context(), userID(r))
	if err != nil {
		s.logger.Error("list conversations failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load conversations")
		return
	}
	if conversations == nil {
		conversations = []core.Conversation{}
	}
	respondJSON(w, http.StatusOK, conversations)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req conversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	title := req.Title
	if title == "" {
		title = "New conversation"
	}

	conv := &core.Conversation{UserID: uid, Title: title}
	if err := s.store.CreateConversation(r.Context(), conv); err != nil {
		s.logger.Error("create conversation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create conversation")
		return
	}
	respondJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.GetConversation(r.Context(), userID(r), chi.URLParam(r, "conversationID"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "conversation not found")
		return
	}
	if err != nil {
		s.logger.Error("get conversation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load conversation")
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := chi.URLParam(r, "conversationID")

	var req conversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	if err := s.store.RenameConversation(r.Context(), uid, id, req.Title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		s.logger.Error("update conversation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update conversation")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Conversation updated"})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteConversation(r.Context(), userID(r), chi.URLParam(r, "conversationID"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "conversation not found")
		return
	}
	if err != nil {
		s.logger.Error("delete conversation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete conversation")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted"})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := chi.URLParam(r, "conversationID")

	// Ownership check before exposing messages.
	if _, err := s.store.GetConversation(r.Context(), uid, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		s.logger.Error("get conversation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load messages")
		return
	}

	messages, err := s.store.ListMessages(r.Context(), id)
	if err != nil {
		s.logger.Error("list messages failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load messages")
		return
	}
	if messages == nil {
		messages = []core.ChatMessage{}
	}
	respondJSON(w, http.StatusOK, messages)
}
