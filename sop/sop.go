// Package sop drafts Statements of Purpose. Generation grounds the model in
// the student's academic profile and the chosen university, then stores the
// result as an editable draft. Listing and editing stored documents is plain
// CRUD handled at the store layer; only generation lives here.
package sop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/internal/util"
	"github.com/unipath-ai/unipath/logging"
	"github.com/unipath-ai/unipath/model"
	"github.com/unipath-ai/unipath/store"
)

// ErrProfileRequired is returned when generation is attempted before the
// student has an academic profile to ground the document in.
var ErrProfileRequired = errors.New("sop: student profile required")

// Fallbacks when the draft has no linked university or declared field.
const (
	defaultUniversityName = "your target university"
	defaultProgram        = "your chosen program"
)

const generationInstructions = "You are an expert admissions consultant who writes compelling, personalized Statements of Purpose for graduate school applicants."

const generationTemplate = `You are an expert admissions consultant helping a student write their Statement of Purpose (SOP) for graduate school applications.

## Student Profile:
{{.UserProfile}}

## Target University: {{.UniversityName}}
## Target Program: {{.Program}}

## Guidelines for Writing the SOP:
1. Write in first person with an authentic, personal voice
2. Be specific about academic journey, achievements, and experiences
3. Connect past experiences to future career goals
4. Show genuine interest in the specific university and program
5. Keep it between 500-800 words (approximately 1-2 pages)
6. Avoid cliches and generic statements
7. Be honest and reflective

## Structure to Follow:
1. **Opening Hook** (1 paragraph): Start with a compelling story, moment, or insight that sparked your interest in the field
2. **Academic Background** (1-2 paragraphs): Discuss your academic journey, relevant coursework, GPA context, and intellectual development
3. **Research/Work Experience** (1-2 paragraphs): Highlight relevant projects, internships, or work experience
4. **Why This Program** (1 paragraph): Explain specific reasons for choosing this university and program (faculty, research, resources)
5. **Future Goals** (1 paragraph): Describe your career aspirations and how this program helps achieve them
6. **Conclusion** (1 paragraph): Reinforce your fit and enthusiasm

Generate a compelling, personalized Statement of Purpose:`

// Store is the persistence slice generation needs.
type Store interface {
	GetStudentProfile(ctx context.Context, userID string) (*core.StudentProfile, error)
	GetUniversity(ctx context.Context, id string) (*core.University, error)
	CreateSOP(ctx context.Context, doc *core.SOPDocument) error
}

// Options configure the service.
type Options struct {
	Logger logging.Logger
}

// Service generates Statement of Purpose drafts.
type Service struct {
	llm   model.Model
	store Store
	opts  Options
}

// NewService wires a generation service over the given model and store.
func NewService(llm model.Model, s Store, optFns ...func(o *Options)) *Service {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{llm: llm, store: s, opts: opts}
}

// Generate drafts a new document for the user, optionally targeted at a
// university and steered by extra instructions. The student profile must
// exist; a missing profile yields ErrProfileRequired. The saved document is
// always a draft. Provider failures pass through unwrapped so callers can
// classify them.
func (s *Service) Generate(ctx context.Context, userID, universityID, customPrompt string) (*core.SOPDocument, error) {
	sp, err := s.store.GetStudentProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProfileRequired
	}
	if err != nil {
		return nil, fmt.Errorf("load student profile: %w", err)
	}

	universityName := defaultUniversityName
	if universityID != "" {
		uni, err := s.store.GetUniversity(ctx, universityID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load university: %w", err)
		}
		if uni != nil {
			universityName = uni.Name
		}
	}
	program := sp.FieldOfStudy
	if program == "" {
		program = defaultProgram
	}

	prompt, err := util.RenderTemplate(generationTemplate, map[string]any{
		"UserProfile":    renderProfile(sp),
		"UniversityName": universityName,
		"Program":        program,
	})
	if err != nil {
		return nil, fmt.Errorf("render sop prompt: %w", err)
	}
	if customPrompt != "" {
		prompt += "\n\n## Additional Instructions from Student:\n" + customPrompt
	}

	resp, err := s.llm.Generate(ctx, model.Request{
		Instructions: generationInstructions,
		Contents:     []core.Content{core.NewUserContent(prompt)},
		ToolChoice:   model.ToolChoiceNone,
	})
	if err != nil {
		s.opts.Logger.Error("sop generation failed", "user_id", userID, "error", err)
		return nil, err
	}

	doc := &core.SOPDocument{
		UserID:       userID,
		UniversityID: universityID,
		Title:        "SOP for " + universityName,
		Content:      resp.Content.Text(),
		IsDraft:      true,
	}
	if err := s.store.CreateSOP(ctx, doc); err != nil {
		return nil, fmt.Errorf("save sop: %w", err)
	}
	s.opts.Logger.Info("sop generated", "user_id", userID, "sop_id", doc.ID, "university", universityName)
	return doc, nil
}

// renderProfile lays out the academic profile lines the generation prompt
// expects. Unset fields fall back to neutral placeholders rather than being
// omitted, keeping the layout stable for the model.
func renderProfile(sp *core.StudentProfile) string {
	gpaScale := sp.GPAScale
	if gpaScale == 0 {
		gpaScale = 4.0
	}
	gpa := "Not specified"
	if sp.GPA > 0 {
		gpa = fmt.Sprintf("%s/%s", trimFloat(sp.GPA), trimFloat(gpaScale))
	}
	countries := "Not specified"
	if len(sp.PreferredCountries) > 0 {
		countries = strings.Join(sp.PreferredCountries, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Education Level: %s\n", orNotSpecified(sp.EducationLevel))
	fmt.Fprintf(&b, "- Current Degree: %s\n", orNotSpecified(sp.Degree))
	fmt.Fprintf(&b, "- GPA: %s\n", gpa)
	fmt.Fprintf(&b, "- Target Degree: %s\n", orNotSpecified(sp.IntendedDegree))
	fmt.Fprintf(&b, "- Field of Study: %s\n", orNotSpecified(sp.FieldOfStudy))
	fmt.Fprintf(&b, "- Target Intake: %s\n", orNotSpecified(sp.TargetIntake))
	fmt.Fprintf(&b, "- Countries of Interest: %s\n", countries)
	fmt.Fprintf(&b, "- English Test: %s - Score: %s\n", orNotTaken(sp.EnglishTestType), floatScore(sp.EnglishTestScore))
	fmt.Fprintf(&b, "- Aptitude Test: %s - Score: %s", orNotTaken(sp.AptitudeTestType), intScore(sp.AptitudeTestScore))
	return b.String()
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

func orNotTaken(s string) string {
	if s == "" {
		return "Not taken"
	}
	return s
}

func floatScore(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return trimFloat(*v)
}

func intScore(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
