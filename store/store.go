// Package store defines the persistence contracts for Unipath records. The
// Store interface is a composition of narrow per-collection interfaces so
// consumers can declare exactly the slice they need (the guard layer reads
// profiles and shortlists, the prompt assembler additionally reads
// conversations, the tool dispatcher writes shortlists and tasks).
//
// Implementations live in sub-packages: store/sqlite for the durable store and
// store/memory for tests and demos.
package store

import (
	"context"
	"errors"

	"github.com/unipath-ai/unipath/core"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// SearchFilter narrows a university catalog search. Zero-value fields are
// ignored. Limit caps the result count; implementations apply a default when
// it is zero.
type SearchFilter struct {
	Name       string
	Country    string
	MaxTuition int
	Limit      int
}

// Profiles provides access to account and extended academic records.
type Profiles interface {
	GetProfile(ctx context.Context, userID string) (*core.Profile, error)
	SaveProfile(ctx context.Context, profile *core.Profile) error
	GetStudentProfile(ctx context.Context, userID string) (*core.StudentProfile, error)
	SaveStudentProfile(ctx context.Context, profile *core.StudentProfile) error
	// CompleteOnboarding marks onboarding done and advances the stage to
	// discovery. Advancing is monotonic; a later stage is never lowered.
	CompleteOnboarding(ctx context.Context, userID string) error
}

// Catalog provides read access to university reference data.
type Catalog interface {
	GetUniversity(ctx context.Context, id string) (*core.University, error)
	ListUniversities(ctx context.Context) ([]core.University, error)
	SearchUniversities(ctx context.Context, filter SearchFilter) ([]core.University, error)
}

// Shortlists manages the (user, university) candidate set.
type Shortlists interface {
	GetShortlistEntry(ctx context.Context, userID, universityID string) (*core.ShortlistEntry, error)
	// ListShortlist returns the user's entries with University populated,
	// ordered by creation time.
	ListShortlist(ctx context.Context, userID string) ([]core.ShortlistEntry, error)
	// UpsertShortlistEntry inserts or overwrites the entry keyed by
	// (user, university). Category and reasoning are replaced on conflict;
	// the locked flag is preserved.
	UpsertShortlistEntry(ctx context.Context, entry *core.ShortlistEntry) error
	RemoveShortlistEntry(ctx context.Context, userID, universityID string) error
	SetShortlistLocked(ctx context.Context, userID, universityID string, locked bool) error
}

// Tasks manages to-do records.
type Tasks interface {
	CreateTask(ctx context.Context, task *core.Task) error
	GetTask(ctx context.Context, userID, taskID string) (*core.Task, error)
	ListTasks(ctx context.Context, userID string) ([]core.Task, error)
	UpdateTask(ctx context.Context, task *core.Task) error
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// SOPs manages Statement of Purpose documents.
type SOPs interface {
	CreateSOP(ctx context.Context, doc *core.SOPDocument) error
	GetSOP(ctx context.Context, userID, id string) (*core.SOPDocument, error)
	// ListSOPs returns the user's documents with University populated when
	// linked, most recently updated first.
	ListSOPs(ctx context.Context, userID string) ([]core.SOPDocument, error)
	// UpdateSOP replaces title, content and draft state and bumps the
	// update timestamp.
	UpdateSOP(ctx context.Context, doc *core.SOPDocument) error
	DeleteSOP(ctx context.Context, userID, id string) error
}

// Conversations manages chat threads and their ordered messages.
type Conversations interface {
	CreateConversation(ctx context.Context, conv *core.Conversation) error
	GetConversation(ctx context.Context, userID, id string) (*core.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]core.Conversation, error)
	RenameConversation(ctx context.Context, userID, id, title string) error
	DeleteConversation(ctx context.Context, userID, id string) error
	AppendMessage(ctx context.Context, msg *core.ChatMessage) error
	// ListMessages returns the conversation's messages oldest-first. A
	// conversation with no messages (or an unknown id) yields an empty
	// slice, not an error.
	ListMessages(ctx context.Context, conversationID string) ([]core.ChatMessage, error)
}

// Store is the full persistence surface expected by the application wiring.
type Store interface {
	Profiles
	Catalog
	Shortlists
	Tasks
	SOPs
	Conversations
}
