package sop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/model"
	"github.com/unipath-ai/unipath/store/memory"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.SaveProfile(context.Background(), &core.Profile{ID: "user-1"}))
	s.AddUniversity(core.University{ID: "uni-1", Name: "ETH Zurich", Country: "Switzerland"})
	return s
}

func TestGenerateRequiresProfile(t *testing.T) {
	s := seededStore(t)
	svc := NewService(model.NewScriptedModel("test"), s)

	_, err := svc.Generate(context.Background(), "user-1", "", "")
	assert.ErrorIs(t, err, ErrProfileRequired)
}

func TestGenerateSavesDraft(t *testing.T) {
	s := seededStore(t)
	score := 7.5
	require.NoError(t, s.SaveStudentProfile(context.Background(), &core.StudentProfile{
		UserID:           "user-1",
		EducationLevel:   "Bachelors",
		Degree:           "BSc Computer Science",
		GPA:              3.8,
		IntendedDegree:   "Masters",
		FieldOfStudy:     "Robotics",
		EnglishTestType:  "IELTS",
		EnglishTestScore: &score,
	}))

	llm := model.NewScriptedModel("test", model.TextResponse("My journey into robotics began..."))
	svc := NewService(llm, s)

	doc, err := svc.Generate(context.Background(), "user-1", "uni-1", "Mention my internship at Acme.")
	require.NoError(t, err)

	assert.Equal(t, "SOP for ETH Zurich", doc.Title)
	assert.Equal(t, "My journey into robotics began...", doc.Content)
	assert.True(t, doc.IsDraft)
	assert.Equal(t, "uni-1", doc.UniversityID)
	require.NotEmpty(t, doc.ID)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, generationInstructions, reqs[0].Instructions)
	assert.Equal(t, model.ToolChoiceNone, reqs[0].ToolChoice)
	require.Len(t, reqs[0].Contents, 1)
	sent := reqs[0].Contents[0].Text()
	assert.Contains(t, sent, "University: ETH Zurich")
	assert.Contains(t, sent, "Program: Robotics")
	assert.Contains(t, sent, "- GPA: 3.8/4")
	assert.Contains(t, sent, "- English Test: IELTS - Score: 7.5")
	assert.Contains(t, sent, "## Additional Instructions from Student:\nMention my internship at Acme.")

	stored, err := s.GetSOP(context.Background(), "user-1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, stored.Content)
}

func TestGenerateFallsBackWithoutUniversity(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.SaveStudentProfile(context.Background(), &core.StudentProfile{UserID: "user-1"}))

	llm := model.NewScriptedModel("test", model.TextResponse("draft"))
	svc := NewService(llm, s)

	doc, err := svc.Generate(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "SOP for your target university", doc.Title)

	sent := llm.Requests()[0].Contents[0].Text()
	assert.Contains(t, sent, "University: your target university")
	assert.Contains(t, sent, "Program: your chosen program")
	assert.Contains(t, sent, "- Education Level: Not specified")
	assert.Contains(t, sent, "- English Test: Not taken - Score: N/A")
	assert.NotContains(t, sent, "Additional Instructions")
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.SaveStudentProfile(context.Background(), &core.StudentProfile{UserID: "user-1"}))

	provErr := model.NewProviderError(model.ErrKindRateLimit, "openai", errors.New("429"))
	svc := NewService(&model.FailingModel{Err: provErr}, s)

	_, err := svc.Generate(context.Background(), "user-1", "", "")
	var pe *model.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, model.ErrKindRateLimit, pe.Kind)
}
