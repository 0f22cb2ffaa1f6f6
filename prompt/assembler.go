// Package prompt assembles the grounded context handed to the model for one
// chat turn: a system prompt built from the user's profile, stage and
// shortlist, plus a bounded window of prior conversation turns. Assembly is a
// pure function of stored state at call time; nothing here caches or mutates.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/internal/util"
	"github.com/unipath-ai/unipath/store"
)

// DefaultHistoryLimit bounds the conversation window handed to the model.
const DefaultHistoryLimit = 10

// Store is the read surface the assembler needs.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*core.Profile, error)
	GetStudentProfile(ctx context.Context, userID string) (*core.StudentProfile, error)
	ListShortlist(ctx context.Context, userID string) ([]core.ShortlistEntry, error)
	ListMessages(ctx context.Context, conversationID string) ([]core.ChatMessage, error)
}

// Assembler builds the model-facing snapshot of user state.
type Assembler struct {
	store Store
}

// NewAssembler creates an Assembler reading from the given store.
func NewAssembler(s Store) *Assembler {
	return &Assembler{store: s}
}

// SystemPrompt renders the persona template with the user's current profile,
// stage and shortlist.
func (a *Assembler) SystemPrompt(ctx context.Context, userID string) (string, error) {
	profileText, err := a.renderProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	shortlistText, err := a.renderShortlist(ctx, userID)
	if err != nil {
		return "", err
	}
	stage := a.Stage(ctx, userID)

	return util.RenderTemplate(personaTemplate, map[string]any{
		"UserProfile": profileText,
		"Stage":       stage,
		"Shortlist":   shortlistText,
	})
}

// Stage returns the user's current pipeline stage, defaulting to onboarding
// when the profile is unavailable.
func (a *Assembler) Stage(ctx context.Context, userID string) int {
	profile, err := a.store.GetProfile(ctx, userID)
	if err != nil || profile.CurrentStage < core.StageOnboarding {
		return core.StageOnboarding
	}
	return profile.CurrentStage
}

// History loads the most recent limit user/assistant turns with non-empty
// content, oldest first. An empty conversation id or an unknown conversation
// yields an empty slice, never an error.
func (a *Assembler) History(ctx context.Context, conversationID string, limit int) ([]core.Content, error) {
	if conversationID == "" {
		return []core.Content{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	msgs, err := a.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var turns []core.ChatMessage
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		if m.Role != core.RoleUser && m.Role != core.RoleAssistant {
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]core.Content, 0, len(turns))
	for _, m := range turns {
		switch m.Role {
		case core.RoleUser:
			out = append(out, core.NewUserContent(m.Content))
		case core.RoleAssistant:
			out = append(out, core.NewAssistantContent(m.Content))
		}
	}
	return out, nil
}

func (a *Assembler) renderProfile(ctx context.Context, userID string) (string, error) {
	sp, err := a.store.GetStudentProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		sp = &core.StudentProfile{UserID: userID}
	} else if err != nil {
		return "", fmt.Errorf("load student profile: %w", err)
	}

	englishStatus := testStatus(floatScore(sp.EnglishTestScore), sp.EnglishTestStatus)
	aptitudeStatus := testStatus(intScore(sp.AptitudeTestScore), sp.AptitudeTestStatus)

	gpaScale := sp.GPAScale
	if gpaScale == 0 {
		gpaScale = 4.0
	}
	budgetMax := sp.BudgetMax
	if budgetMax == 0 {
		budgetMax = 50000
	}
	countries := "N/A"
	if len(sp.PreferredCountries) > 0 {
		countries = strings.Join(sp.PreferredCountries, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Education: %s in %s\n", orNA(sp.EducationLevel), orNA(sp.Degree))
	gpa := "N/A"
	if sp.GPA > 0 {
		gpa = trimFloat(sp.GPA)
	}
	fmt.Fprintf(&b, "- GPA: %s/%s\n", gpa, trimFloat(gpaScale))
	fmt.Fprintf(&b, "- Target: %s in %s\n", orNA(sp.IntendedDegree), orNA(sp.FieldOfStudy))
	fmt.Fprintf(&b, "- Countries: %s\n", countries)
	fmt.Fprintf(&b, "- Budget: Up to $%d/year\n", budgetMax)
	fmt.Fprintf(&b, "- English Test: %s - %s\n", orNone(sp.EnglishTestType), englishStatus)
	fmt.Fprintf(&b, "- Aptitude Test: %s - %s\n", orNone(sp.AptitudeTestType), aptitudeStatus)
	fmt.Fprintf(&b, "- SOP: %s", orNA(sp.SOPStatus))
	return b.String(), nil
}

func (a *Assembler) renderShortlist(ctx context.Context, userID string) (string, error) {
	entries, err := a.store.ListShortlist(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load shortlist: %w", err)
	}
	if len(entries) == 0 {
		return "None yet", nil
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.UniversityID
		if e.University != nil {
			name = e.University.Name
		}
		lockState := "Not locked"
		if e.Locked {
			lockState = "Locked"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s, %s)", name, e.Category, lockState))
	}
	return strings.Join(lines, "\n"), nil
}

// testStatus renders a test field pair: a recorded score always supersedes
// the status string.
func testStatus(score, status string) string {
	if score != "" {
		return "Score: " + score
	}
	if status != "" {
		return status
	}
	return "Not taken"
}

func floatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return trimFloat(*v)
}

func intScore(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
