package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/sop"
	"github.com/unipath-ai/unipath/store"
)

type sopGenerateRequest struct {
	UniversityID string `json:"university_id,omitempty"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

type sopUpdateRequest struct {
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
	IsDraft *bool  `json:"is_draft,omitempty"`
}

func (s *Server) handleListSOPs(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListSOPs(r.Context(), userID(r))
	if err != nil {
		s.logger.Error("list sops failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load documents")
		return
	}
	if docs == nil {
		docs = []core.SOPDocument{}
	}
	respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetSOP(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetSOP(r.Context(), userID(r), chi.URLParam(r, "sopID"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "document not found")
		return
	}
	if err != nil {
		s.logger.Error("load sop failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load document")
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGenerateSOP(w http.ResponseWriter, r *http.Request) {
	var req sopGenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := s.sop.Generate(r.Context(), userID(r), req.UniversityID, req.CustomPrompt)
	if errors.Is(err, sop.ErrProfileRequired) {
		respondError(w, http.StatusBadRequest, "profile_required", "Complete your profile first")
		return
	}
	if err != nil {
		s.respondProviderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "SOP generated", "data": doc})
}

func (s *Server) handleUpdateSOP(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	sopID := chi.URLParam(r, "sopID")

	existing, err := s.store.GetSOP(r.Context(), uid, sopID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "document not found")
		return
	}
	if err != nil {
		s.logger.Error("load sop failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update document")
		return
	}

	var req sopUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}
	existing.Content = req.Content
	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.IsDraft != nil {
		existing.IsDraft = *req.IsDraft
	}

	if err := s.store.UpdateSOP(r.Context(), existing); err != nil {
		s.logger.Error("update sop failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update document")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "SOP updated", "data": existing})
}

func (s *Server) handleDeleteSOP(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSOP(r.Context(), userID(r), chi.URLParam(r, "sopID")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "document not found")
			return
		}
		s.logger.Error("delete sop failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete document")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "SOP deleted"})
}
