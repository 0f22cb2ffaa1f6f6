// Package server exposes the Unipath HTTP API: the counsellor chat endpoint,
// profile and onboarding, the university catalog and shortlist, tasks,
// conversations, SOP documents, and the voice passthroughs. All /api routes require a JWT
// bearer token whose subject is the user id.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unipath-ai/unipath/counsellor"
	"github.com/unipath-ai/unipath/guard"
	"github.com/unipath-ai/unipath/logging"
	"github.com/unipath-ai/unipath/sop"
	"github.com/unipath-ai/unipath/store"
	"github.com/unipath-ai/unipath/voice"
)

// Options configure optional server collaborators.
type Options struct {
	// Voice enables the /api/stt and /api/tts endpoints when set.
	Voice *voice.Service
	// SOP enables the /api/sop endpoints when set.
	SOP    *sop.Service
	Logger logging.Logger
}

// Server is the HTTP surface. It owns request plumbing only; decisions live
// in the guard layer and the counsellor engine.
type Server struct {
	store     store.Store
	engine    *counsellor.Engine
	guard     *guard.Guard
	voice     *voice.Service
	sop       *sop.Service
	jwtSecret []byte
	logger    logging.Logger
	router    chi.Router
}

// New assembles the router.
func New(st store.Store, engine *counsellor.Engine, g *guard.Guard, jwtSecret string, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		store:     st,
		engine:    engine,
		guard:     g,
		voice:     opts.Voice,
		sop:       opts.SOP,
		jwtSecret: []byte(jwtSecret),
		logger:    opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth)

		r.Post("/counsellor/chat", s.handleChat)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handleUpdateProfile)
			r.Post("/onboarding", s.handleOnboarding)
		})

		r.Route("/universities", func(r chi.Router) {
			r.Get("/", s.handleListUniversities)
			r.Get("/shortlist", s.handleGetShortlist)
			r.Post("/shortlist", s.handleAddToShortlist)
			r.Delete("/shortlist/{universityID}", s.handleRemoveFromShortlist)
			r.Post("/lock/{universityID}", s.handleLockUniversity)
			r.Post("/unlock/{universityID}", s.handleUnlockUniversity)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Get("/by-university", s.handleTasksByUniversity)
			r.Post("/", s.handleCreateTask)
			r.Put("/{taskID}", s.handleUpdateTask)
			r.Delete("/{taskID}", s.handleDeleteTask)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", s.handleListConversations)
			r.Post("/", s.handleCreateConversation)
			r.Get("/{conversationID}", s.handleGetConversation)
			r.Put("/{conversationID}", s.handleUpdateConversation)
			r.Delete("/{conversationID}", s.handleDeleteConversation)
			r.Get("/{conversationID}/messages", s.handleListMessages)
		})

		if s.sop != nil {
			r.Route("/sop", func(r chi.Router) {
				r.Get("/", s.handleListSOPs)
				r.Post("/generate", s.handleGenerateSOP)
				r.Get("/{sopID}", s.handleGetSOP)
				r.Put("/{sopID}", s.handleUpdateSOP)
				r.Delete("/{sopID}", s.handleDeleteSOP)
			})
		}

		if s.voice != nil {
			r.Post("/stt", s.handleSpeechToText)
			r.Post("/tts", s.handleTextToSpeech)
		}
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
