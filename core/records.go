package core

import (
	"encoding/json"
	"time"
)

// Pipeline stages. The stage only ever moves forward: onboarding completion
// advances a profile to StageDiscovery, later transitions are driven by the
// application surface.
const (
	StageOnboarding  = 1
	StageDiscovery   = 2
	StageShortlisted = 3
	StageApplication = 4
)

// Shortlist fit categories. The set is closed; the tool layer validates
// against it before any guard evaluation.
const (
	CategoryDream  = "dream"
	CategoryTarget = "target"
	CategorySafe   = "safe"
)

// Profile is the account-level record gating what the counsellor may do.
type Profile struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email,omitempty"`
	FullName            string    `json:"full_name,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CurrentStage        int       `json:"current_stage"`
	CreatedAt           time.Time `json:"created_at"`
}

// StudentProfile carries the extended academic fields collected during
// onboarding. Test score fields supersede the status string when present.
type StudentProfile struct {
	UserID             string   `json:"user_id"`
	EducationLevel     string   `json:"education_level,omitempty"`
	Degree             string   `json:"degree,omitempty"`
	GraduationYear     int      `json:"graduation_year,omitempty"`
	GPA                float64  `json:"gpa,omitempty"`
	GPAScale           float64  `json:"gpa_scale,omitempty"`
	IntendedDegree     string   `json:"intended_degree,omitempty"`
	FieldOfStudy       string   `json:"field_of_study,omitempty"`
	TargetIntake       string   `json:"target_intake,omitempty"`
	PreferredCountries []string `json:"preferred_countries,omitempty"`
	BudgetMin          int      `json:"budget_min,omitempty"`
	BudgetMax          int      `json:"budget_max,omitempty"`
	FundingType        string   `json:"funding_type,omitempty"`
	EnglishTestType    string   `json:"english_test_type,omitempty"`
	EnglishTestStatus  string   `json:"english_test_status,omitempty"`
	EnglishTestScore   *float64 `json:"english_test_score,omitempty"`
	AptitudeTestType   string   `json:"aptitude_test_type,omitempty"`
	AptitudeTestStatus string   `json:"aptitude_test_status,omitempty"`
	AptitudeTestScore  *int     `json:"aptitude_test_score,omitempty"`
	SOPStatus          string   `json:"sop_status,omitempty"`
}

// University is immutable reference data from the counsellor's perspective.
type University struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Country        string  `json:"country"`
	Ranking        int     `json:"ranking,omitempty"`
	TuitionMin     int     `json:"tuition_min,omitempty"`
	TuitionMax     int     `json:"tuition_max,omitempty"`
	AcceptanceRate float64 `json:"acceptance_rate,omitempty"`
}

// ShortlistEntry links a user to a candidate university. Unique per
// (user, university); locking is irreversible by removal.
type ShortlistEntry struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	UniversityID string      `json:"university_id"`
	Category     string      `json:"category"`
	Reasoning    string      `json:"reasoning,omitempty"`
	Locked       bool        `json:"locked"`
	CreatedAt    time.Time   `json:"created_at"`
	University   *University `json:"university,omitempty"` // Joined reference data when loaded
}

// Task is a to-do item, optionally tied to a university.
type Task struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	UniversityID string     `json:"university_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	Completed    bool       `json:"completed"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SOPDocument is a Statement of Purpose draft, optionally tied to a target
// university. Generated documents start as drafts; the student edits and
// finalizes them through the application surface.
type SOPDocument struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	UniversityID string      `json:"university_id,omitempty"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	IsDraft      bool        `json:"is_draft"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	University   *University `json:"university,omitempty"` // Joined reference data when loaded
}

// Conversation groups chat messages for one user.
type Conversation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// ChatMessage is a persisted conversation turn, ordered by creation time.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ActionRecord is the audit triple accumulated per orchestration call. It is
// never persisted by the engine; the caller decides what to do with it.
type ActionRecord struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Outcome   string          `json:"outcome"`
}
