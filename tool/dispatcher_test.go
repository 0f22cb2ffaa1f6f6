package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/guard"
	"github.com/unipath-ai/unipath/store/memory"
)

func newFixture(t *testing.T, onboarded bool, stage int) (*Dispatcher, *memory.Store, string) {
	t.Helper()
	s := memory.New()
	userID := "user-1"
	require.NoError(t, s.SaveProfile(context.Background(), &core.Profile{
		ID:                  userID,
		OnboardingCompleted: onboarded,
		CurrentStage:        stage,
	}))
	s.AddUniversity(core.University{ID: "uni-1", Name: "MIT", Country: "USA", Ranking: 1, TuitionMax: 55000})
	return NewDispatcher(s, guard.New(s)), s, userID
}

func call(name string, args map[string]any) core.FunctionCall {
	raw, _ := json.Marshal(args)
	return core.FunctionCall{ID: "call-1", Name: name, Arguments: string(raw)}
}

func TestDispatchShortlistUpsert(t *testing.T) {
	ctx := context.Background()
	d, s, userID := newFixture(t, true, core.StageDiscovery)

	rec := d.Dispatch(ctx, userID, call(ActionShortlist, map[string]any{
		"university_id": "uni-1", "category": "safe", "reasoning": "strong GPA fit",
	}))
	assert.Equal(t, "Added to shortlist as safe", rec.Outcome)

	// Repeating with a different category overwrites, never duplicates.
	rec = d.Dispatch(ctx, userID, call(ActionShortlist, map[string]any{
		"university_id": "uni-1", "category": "target", "reasoning": "reconsidered",
	}))
	assert.Equal(t, "Added to shortlist as target", rec.Outcome)

	entries, err := s.ListShortlist(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.CategoryTarget, entries[0].Category)
}

func TestDispatchShortlistRejectedBeforeOnboarding(t *testing.T) {
	ctx := context.Background()
	d, s, userID := newFixture(t, false, core.StageOnboarding)

	rec := d.Dispatch(ctx, userID, call(ActionShortlist, map[string]any{
		"university_id": "uni-1", "category": "safe", "reasoning": "x",
	}))
	assert.Contains(t, rec.Outcome, guard.ReasonNotOnboarded)

	entries, err := s.ListShortlist(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDispatchLockCreatesStandardTasks(t *testing.T) {
	ctx := context.Background()
	d, s, userID := newFixture(t, true, core.StageDiscovery)

	d.Dispatch(ctx, userID, call(ActionShortlist, map[string]any{
		"university_id": "uni-1", "category": "dream", "reasoning": "x",
	}))
	rec := d.Dispatch(ctx, userID, call(ActionLock, map[string]any{"university_id": "uni-1"}))
	assert.Equal(t, "University locked for application. Created 4 application tasks for MIT.", rec.Outcome)

	entry, err := s.GetShortlistEntry(ctx, userID, "uni-1")
	require.NoError(t, err)
	assert.True(t, entry.Locked)

	tasks, err := s.ListTasks(ctx, userID)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	for _, task := range tasks {
		assert.Equal(t, "uni-1", task.UniversityID)
	}
}

func TestDispatchLockRequiresShortlist(t *testing.T) {
	ctx := context.Background()
	d, s, userID := newFixture(t, true, core.StageDiscovery)

	rec := d.Dispatch(ctx, userID, call(ActionLock, map[string]any{"university_id": "uni-1"}))
	assert.Contains(t, rec.Outcome, guard.ReasonNotShortlisted)

	tasks, err := s.ListTasks(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDispatchCreateTask(t *testing.T) {
	ctx := context.Background()
	d, s, userID := newFixture(t, true, core.StageDiscovery)

	t.Run("general task", func(t *testing.T) {
		rec := d.Dispatch(ctx, userID, call(ActionCreateTask, map[string]any{"title": "Book IELTS slot"}))
		assert.Equal(t, "Created task: Book IELTS slot", rec.Outcome)

		tasks, err := s.ListTasks(ctx, userID)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Other", tasks[0].Category)
	})

	t.Run("university task requires lock", func(t *testing.T) {
		d.Dispatch(ctx, userID, call(ActionShortlist, map[string]any{
			"university_id": "uni-1", "category": "safe", "reasoning": "x",
		}))
		rec := d.Dispatch(ctx, userID, call(ActionCreateTask, map[string]any{
			"title": "Visit campus", "university_id": "uni-1",
		}))
		assert.Contains(t, rec.Outcome, guard.ReasonNotLocked)
	})
}

func TestDispatchSearch(t *testing.T) {
	ctx := context.Background()
	d, _, userID := newFixture(t, true, core.StageDiscovery)

	t.Run("match returns summaries", func(t *testing.T) {
		rec := d.Dispatch(ctx, userID, call(ActionSearch, map[string]any{"name": "MIT"}))
		assert.Contains(t, rec.Outcome, "\"name\": \"MIT\"")
		assert.Contains(t, rec.Outcome, "uni-1")
	})

	t.Run("no match is an explicit signal", func(t *testing.T) {
		rec := d.Dispatch(ctx, userID, call(ActionSearch, map[string]any{"name": "Hogwarts"}))
		assert.Equal(t, "No universities found matching criteria. The university may not be in our database yet.", rec.Outcome)
	})

	t.Run("program argument is accepted without narrowing", func(t *testing.T) {
		rec := d.Dispatch(ctx, userID, call(ActionSearch, map[string]any{
			"name": "MIT", "program": "Computer Science",
		}))
		assert.Contains(t, rec.Outcome, "\"name\": \"MIT\"")
	})
}

func TestDispatchUnknownAction(t *testing.T) {
	d, _, userID := newFixture(t, true, core.StageDiscovery)

	rec := d.Dispatch(context.Background(), userID, call("drop_tables", nil))
	assert.Contains(t, rec.Outcome, "unknown action")
}

func TestDispatchMalformedArguments(t *testing.T) {
	d, _, userID := newFixture(t, true, core.StageDiscovery)

	rec := d.Dispatch(context.Background(), userID, core.FunctionCall{
		ID: "call-1", Name: ActionShortlist, Arguments: `{"university_id": "uni-1", "category": "reach"}`,
	})
	assert.Contains(t, rec.Outcome, "Error:")
}

func TestParseArgsVariants(t *testing.T) {
	args, err := ParseArgs(ActionSearch, nil)
	require.NoError(t, err)
	assert.IsType(t, SearchArgs{}, args)

	args, err = ParseArgs(ActionSearch, json.RawMessage(`{"program":"Robotics"}`))
	require.NoError(t, err)
	assert.Equal(t, "Robotics", args.(SearchArgs).Program)

	args, err = ParseArgs(ActionShortlist, json.RawMessage(`{"university_id":"u","category":"dream","reasoning":"r"}`))
	require.NoError(t, err)
	sa, ok := args.(ShortlistArgs)
	require.True(t, ok)
	assert.Equal(t, core.CategoryDream, sa.Category)

	_, err = ParseArgs("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
