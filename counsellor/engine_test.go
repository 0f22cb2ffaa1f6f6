package counsellor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/guard"
	"github.com/unipath-ai/unipath/model"
	"github.com/unipath-ai/unipath/prompt"
	"github.com/unipath-ai/unipath/store/memory"
	"github.com/unipath-ai/unipath/tool"
)

func newEngineFixture(t *testing.T, llm model.Model, stage int, onboarded bool, optFns ...func(o *Options)) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.SaveProfile(context.Background(), &core.Profile{
		ID:                  "user-1",
		OnboardingCompleted: onboarded,
		CurrentStage:        stage,
	}))
	s.AddUniversity(core.University{ID: "mit-id", Name: "MIT", Country: "USA", Ranking: 1, TuitionMax: 55000})

	assembler := prompt.NewAssembler(s)
	dispatcher := tool.NewDispatcher(s, guard.New(s))
	return NewEngine(llm, assembler, dispatcher, optFns...), s
}

func TestChatTextOnlyTerminatesFirstRound(t *testing.T) {
	llm := model.NewScriptedModel("test", model.TextResponse("Welcome! Let's finish your onboarding first."))
	engine, _ := newEngineFixture(t, llm, core.StageOnboarding, false)

	result, err := engine.Chat(context.Background(), "user-1", "", "hi")
	require.NoError(t, err)

	assert.Equal(t, "Welcome! Let's finish your onboarding first.", result.Response)
	assert.Empty(t, result.Actions)
	assert.False(t, result.Forced)
	assert.Equal(t, 1, llm.Calls())
}

func TestChatDispatchesToolCallsInOrder(t *testing.T) {
	llm := model.NewScriptedModel("test",
		model.ToolCallResponse("",
			core.FunctionCall{ID: "c1", Name: tool.ActionSearch, Arguments: `{"name":"MIT"}`},
		),
		model.ToolCallResponse("",
			core.FunctionCall{ID: "c2", Name: tool.ActionShortlist, Arguments: `{"university_id":"mit-id","category":"safe","reasoning":"fits"}`},
		),
		model.TextResponse("**MIT** is now on your shortlist as a safe option."),
	)
	engine, s := newEngineFixture(t, llm, core.StageDiscovery, true)

	result, err := engine.Chat(context.Background(), "user-1", "", "shortlist MIT as safe")
	require.NoError(t, err)

	require.Len(t, result.Actions, 2)
	assert.Equal(t, tool.ActionSearch, result.Actions[0].Name)
	assert.Equal(t, tool.ActionShortlist, result.Actions[1].Name)
	assert.False(t, result.Forced)

	entries, err := s.ListShortlist(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Tool results are fed back keyed by invocation id.
	reqs := llm.Requests()
	require.Len(t, reqs, 3)
	var sawResult bool
	for _, c := range reqs[1].Contents {
		if c.Role != core.RoleTool {
			continue
		}
		for _, p := range c.Parts {
			if fr, ok := p.(core.FunctionResponsePart); ok {
				sawResult = true
				assert.Equal(t, "c1", fr.FunctionResponse.ID)
			}
		}
	}
	assert.True(t, sawResult)
}

func TestChatGuardRejectionFlowsBackToModel(t *testing.T) {
	// User at stage 1: search succeeds, shortlist is refused, final answer
	// references the rejection.
	llm := model.NewScriptedModel("test",
		model.ToolCallResponse("",
			core.FunctionCall{ID: "c1", Name: tool.ActionSearch, Arguments: `{"name":"MIT"}`},
		),
		model.ToolCallResponse("",
			core.FunctionCall{ID: "c2", Name: tool.ActionShortlist, Arguments: `{"university_id":"mit-id","category":"safe","reasoning":"fits"}`},
		),
		model.TextResponse("I can't shortlist yet - please complete onboarding first."),
	)
	engine, s := newEngineFixture(t, llm, core.StageOnboarding, false)

	result, err := engine.Chat(context.Background(), "user-1", "", "shortlist MIT as safe")
	require.NoError(t, err)

	require.Len(t, result.Actions, 2)
	assert.Contains(t, result.Actions[0].Outcome, "MIT")
	assert.Contains(t, result.Actions[1].Outcome, guard.ReasonNotOnboarded)
	assert.Contains(t, result.Response, "onboarding")

	entries, err := s.ListShortlist(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChatForcedFinishAtRoundBudget(t *testing.T) {
	searchCall := core.FunctionCall{ID: "c", Name: tool.ActionSearch, Arguments: `{"name":"MIT"}`}
	llm := model.NewScriptedModel("test")
	for i := 0; i < 3; i++ {
		llm.Enqueue(model.ToolCallResponse("", searchCall))
	}
	llm.Enqueue(model.TextResponse("Here is what I found."))

	engine, _ := newEngineFixture(t, llm, core.StageDiscovery, true, func(o *Options) {
		o.MaxRounds = 3
	})

	result, err := engine.Chat(context.Background(), "user-1", "", "keep searching")
	require.NoError(t, err)

	assert.True(t, result.Forced)
	assert.Equal(t, "Here is what I found.", result.Response)
	assert.Len(t, result.Actions, 3)
	assert.Equal(t, 4, llm.Calls())

	// The final call must not offer the tool vocabulary.
	reqs := llm.Requests()
	for i := 0; i < 3; i++ {
		assert.NotEmpty(t, reqs[i].Tools)
		assert.Equal(t, model.ToolChoiceAuto, reqs[i].ToolChoice)
	}
	final := reqs[3]
	assert.Empty(t, final.Tools)
	assert.Equal(t, model.ToolChoiceNone, final.ToolChoice)
}

func TestChatRoundBudgetFloor(t *testing.T) {
	llm := model.NewScriptedModel("test",
		model.ToolCallResponse("", core.FunctionCall{ID: "c", Name: tool.ActionSearch, Arguments: `{}`}),
		model.TextResponse("done"),
	)
	engine, _ := newEngineFixture(t, llm, core.StageDiscovery, true, func(o *Options) {
		o.MaxRounds = 0 // must be raised to 1, never unbounded or zero
	})

	result, err := engine.Chat(context.Background(), "user-1", "", "hello")
	require.NoError(t, err)
	assert.True(t, result.Forced)
	assert.Equal(t, 2, llm.Calls())
}

func TestChatProviderErrorPropagates(t *testing.T) {
	pErr := model.NewProviderError(model.ErrKindRateLimit, "openai", assert.AnError)
	engine, _ := newEngineFixture(t, &model.FailingModel{Err: pErr}, core.StageDiscovery, true)

	_, err := engine.Chat(context.Background(), "user-1", "", "hello")
	require.Error(t, err)

	var got *model.ProviderError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, model.ErrKindRateLimit, got.Kind)
}

func TestChatDispatchFailureDoesNotAbort(t *testing.T) {
	llm := model.NewScriptedModel("test",
		model.ToolCallResponse("", core.FunctionCall{ID: "c1", Name: "bogus_action", Arguments: `{}`}),
		model.TextResponse("Sorry, I couldn't do that."),
	)
	engine, _ := newEngineFixture(t, llm, core.StageDiscovery, true)

	result, err := engine.Chat(context.Background(), "user-1", "", "do something weird")
	require.NoError(t, err)
	require.Len(t, result.Actions, 1)
	assert.Contains(t, result.Actions[0].Outcome, "unknown action")
	assert.Equal(t, "Sorry, I couldn't do that.", result.Response)
}

func TestChatLoadsConversationHistory(t *testing.T) {
	ctx := context.Background()
	llm := model.NewScriptedModel("test", model.TextResponse("continuing where we left off"))
	engine, s := newEngineFixture(t, llm, core.StageDiscovery, true)

	conv := &core.Conversation{UserID: "user-1", Title: "planning"}
	require.NoError(t, s.CreateConversation(ctx, conv))
	require.NoError(t, s.AppendMessage(ctx, &core.ChatMessage{
		ConversationID: conv.ID, Role: core.RoleUser, Content: "tell me about MIT",
	}))
	require.NoError(t, s.AppendMessage(ctx, &core.ChatMessage{
		ConversationID: conv.ID, Role: core.RoleAssistant, Content: "MIT is a top school.",
	}))

	_, err := engine.Chat(ctx, "user-1", conv.ID, "what about tuition?")
	require.NoError(t, err)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Contents, 3)
	assert.Equal(t, "tell me about MIT", reqs[0].Contents[0].Text())
	assert.Equal(t, "MIT is a top school.", reqs[0].Contents[1].Text())
	assert.Equal(t, "what about tuition?", reqs[0].Contents[2].Text())
}
