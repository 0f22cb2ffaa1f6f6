package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

type taskRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	UniversityID string     `json:"university_id,omitempty"`
	Completed    *bool      `json:"completed,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context(), userID(r))
	if err != nil {
		s.logger.Error("list tasks failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load tasks")
		return
	}
	if tasks == nil {
		tasks = []core.Task{}
	}
	respondJSON(w, http.StatusOK, tasks)
}

type universityTasks struct {
	University     *core.University `json:"university"`
	Category       string           `json:"category"`
	Tasks          []core.Task      `json:"tasks"`
	CompletedCount int              `json:"completed_count"`
	TotalCount     int              `json:"total_count"`
}

// handleTasksByUniversity groups the user's tasks under each locked
// university for dashboard display.
func (s *Server) handleTasksByUniversity(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	entries, err := s.store.ListShortlist(r.Context(), uid)
	if err != nil {
		s.logger.Error("list shortlist failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load tasks")
		return
	}
	tasks, err := s.store.ListTasks(r.Context(), uid)
	if err != nil {
		s.logger.Error("list tasks failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load tasks")
		return
	}

	groups := []universityTasks{}
	for _, entry := range entries {
		if !entry.Locked {
			continue
		}
		group := universityTasks{
			University: entry.University,
			Category:   entry.Category,
			Tasks:      []core.Task{},
		}
		for _, task := range tasks {
			if task.UniversityID != entry.UniversityID {
				continue
			}
			group.Tasks = append(group.Tasks, task)
			if task.Completed {
				group.CompletedCount++
			}
		}
		group.TotalCount = len(group.Tasks)
		groups = append(groups, group)
	}
	respondJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	if err := s.guard.CreateTask(r.Context(), uid, req.UniversityID); err != nil {
		s.respondGuardError(w, err)
		return
	}

	category := req.Category
	if category == "" {
		category = "Other"
	}
	task := &core.Task{
		UserID:       uid,
		UniversityID: req.UniversityID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     category,
		DueDate:      req.DueDate,
	}
	if err := s.store.CreateTask(r.Context(), task); err != nil {
		s.logger.Error("create task failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Task created", "data": task})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	taskID := chi.URLParam(r, "taskID")

	existing, err := s.store.GetTask(r.Context(), uid, taskID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "task not found")
		return
	}
	if err != nil {
		s.logger.Error("load task failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update task")
		return
	}

	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.Description != "" {
		existing.Description = req.Description
	}
	if req.Category != "" {
		existing.Category = req.Category
	}
	if req.Completed != nil {
		existing.Completed = *req.Completed
	}
	if req.DueDate != nil {
		existing.DueDate = req.DueDate
	}

	if err := s.store.UpdateTask(r.Context(), existing); err != nil {
		s.logger.Error("update task failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "Task updated", "data": existing})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	taskID := chi.URLParam(r, "taskID")

	if err := s.store.DeleteTask(r.Context(), uid, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "task not found")
			return
		}
		s.logger.Error("delete task failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete task")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}
