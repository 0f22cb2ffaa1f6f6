package server

import (
	"errors"
	"net/http"

	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

type profileResponse struct {
	Profile        *core.Profile        `json:"profile"`
	StudentProfile *core.StudentProfile `json:"student_profile,omitempty"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	profile, err := s.store.GetProfile(r.Context(), uid)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "profile not found")
		return
	}
	if err != nil {
		s.logger.Error("get profile failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load profile")
		return
	}

	student, err := s.store.GetStudentProfile(r.Context(), uid)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("get student profile failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, profileResponse{Profile: profile, StudentProfile: student})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var sp core.StudentProfile
	if !decodeJSON(w, r, &sp) {
		return
	}
	sp.UserID = uid

	if err := s.store.SaveStudentProfile(r.Context(), &sp); err != nil {
		s.logger.Error("update profile failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

// handleOnboarding stores the submitted academic profile, marks onboarding
// complete and advances the stage to discovery.
func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var sp core.StudentProfile
	if !decodeJSON(w, r, &sp) {
		return
	}
	sp.UserID = uid

	if err := s.store.SaveStudentProfile(r.Context(), &sp); err != nil {
		s.logger.Error("save onboarding profile failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save onboarding data")
		return
	}
	if err := s.store.CompleteOnboarding(r.Context(), uid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		s.logger.Error("complete onboarding failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to complete onboarding")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Onboarding completed"})
}
