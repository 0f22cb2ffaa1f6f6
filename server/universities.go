package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/guard"
	"github.com/unipath-ai/unipath/store"
)

// respondGuardError maps a guard rejection to 403 with its stable reason;
// anything else is an internal failure.
func (s *Server) respondGuardError(w http.ResponseWriter, err error) {
	if ge, ok := guard.IsRejection(err); ok {
		respondError(w, http.StatusForbidden, ge.Reason, ge.Message)
		return
	}
	s.logger.Error("guard evaluation failed", "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "failed to evaluate request")
}

func (s *Server) handleListUniversities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	country := q.Get("country")
	maxTuition, _ := strconv.Atoi(q.Get("max_tuition"))

	var (
		universities []core.University
		err          error
	)
	if country == "" && maxTuition == 0 {
		universities, err = s.store.ListUniversities(r.Context())
	} else {
		universities, err = s.store.SearchUniversities(r.Context(), store.SearchFilter{
			Country:    country,
			MaxTuition: maxTuition,
			Limit:      200,
		})
	}
	if err != nil {
		s.logger.Error("list universities failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load universities")
		return
	}
	if universities == nil {
		universities = []core.University{}
	}
	respondJSON(w, http.StatusOK, universities)
}

func (s *Server) handleGetShortlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListShortlist(r.Context(), userID(r))
	if err != nil {
		s.logger.Error("list shortlist failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load shortlist")
		return
	}
	if entries == nil {
		entries = []core.ShortlistEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

type shortlistRequest struct {
	UniversityID string `json:"university_id"`
	Category     string `json:"category"`
	Reasoning    string `json:"reasoning,omitempty"`
}

func validCategory(c string) bool {
	return c == core.CategoryDream || c == core.CategoryTarget || c == core.CategorySafe
}

func (s *Server) handleAddToShortlist(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req shortlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UniversityID == "" || !validCategory(req.Category) {
		respondError(w, http.StatusBadRequest, "invalid_request", "university_id and a valid category are required")
		return
	}

	if err := s.guard.Shortlist(r.Context(), uid, req.UniversityID); err != nil {
		s.respondGuardError(w, err)
		return
	}
	entry := &core.ShortlistEntry{
		UserID:       uid,
		UniversityID: req.UniversityID,
		Category:     req.Category,
		Reasoning:    req.Reasoning,
	}
	if err := s.store.UpsertShortlistEntry(r.Context(), entry); err != nil {
		s.logger.Error("shortlist upsert failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update shortlist")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Added to shortlist"})
}

// handleRemoveFromShortlist refuses to remove a locked entry: locking is a
// commitment, removal would silently undo it.
func (s *Server) handleRemoveFromShortlist(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	universityID := chi.URLParam(r, "universityID")

	entry, err := s.store.GetShortlistEntry(r.Context(), uid, universityID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "university not in shortlist")
		return
	}
	if err != nil {
		s.logger.Error("load shortlist entry failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update shortlist")
		return
	}
	if entry.Locked {
		respondError(w, http.StatusForbidden, "locked", "cannot remove locked university")
		return
	}

	if err := s.store.RemoveShortlistEntry(r.Context(), uid, universityID); err != nil {
		s.logger.Error("remove shortlist entry failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update shortlist")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Removed from shortlist"})
}

// handleLockUniversity only flips the lock flag. The standard task bundle is
// created by the counsellor's lock action, not by this endpoint.
func (s *Server) handleLockUniversity(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	universityID := chi.URLParam(r, "universityID")

	if err := s.guard.Lock(r.Context(), uid, universityID); err != nil {
		s.respondGuardError(w, err)
		return
	}
	if err := s.store.SetShortlistLocked(r.Context(), uid, universityID, true); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "university not in shortlist")
			return
		}
		s.logger.Error("lock university failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to lock university")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "University locked"})
}

func (s *Server) handleUnlockUniversity(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	universityID := chi.URLParam(r, "universityID")

	if err := s.store.SetShortlistLocked(r.Context(), uid, universityID, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "university not in shortlist")
			return
		}
		s.logger.Error("unlock university failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to unlock university")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "University unlocked"})
}
