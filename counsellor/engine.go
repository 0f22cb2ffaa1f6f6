// Package counsellor drives the tool-calling orchestration loop for one chat
// turn: assemble grounded context, let the model request platform actions
// through the fixed tool vocabulary, dispatch each approved action, feed the
// results back, and repeat until the model answers in plain text or the round
// budget runs out. The budget plus the final tool-free call guarantee every
// turn ends with a user-facing answer, even against a model that never stops
// requesting tools.
package counsellor

import (
	"context"
	"fmt"
	"time"

	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/logging"
	"github.com/unipath-ai/unipath/model"
	"github.com/unipath-ai/unipath/prompt"
	"github.com/unipath-ai/unipath/tool"
)

// DefaultMaxRounds bounds the model/tool cycles within one chat turn.
const DefaultMaxRounds = 5

// Assembler builds the model-facing context for a user.
type Assembler interface {
	SystemPrompt(ctx context.Context, userID string) (string, error)
	History(ctx context.Context, conversationID string, limit int) ([]core.Content, error)
}

// Dispatcher executes a single tool invocation.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, call core.FunctionCall) core.ActionRecord
}

// Options configure the Engine.
type Options struct {
	// MaxRounds caps the model/tool cycles. Values below 1 are raised to 1;
	// the loop can never be configured unbounded.
	MaxRounds    int
	HistoryLimit int
	Logger       logging.Logger
}

// Result is the outcome of one chat turn.
type Result struct {
	// Response is the final user-facing answer.
	Response string `json:"response"`
	// Actions is the ordered audit log of every tool invocation this turn.
	Actions []core.ActionRecord `json:"actions"`
	// Forced is true when the answer was obtained by exhausting the round
	// budget and issuing a final call with no tools offered.
	Forced bool `json:"forced"`
}

// Engine runs the orchestration loop. Collaborators are injected; the engine
// holds no mutable state between calls.
type Engine struct {
	llm          model.Model
	assembler    Assembler
	dispatcher   Dispatcher
	maxRounds    int
	historyLimit int
	logger       logging.Logger
}

// NewEngine creates an Engine.
func NewEngine(llm model.Model, assembler Assembler, dispatcher Dispatcher, optFns ...func(o *Options)) *Engine {
	opts := Options{
		MaxRounds:    DefaultMaxRounds,
		HistoryLimit: prompt.DefaultHistoryLimit,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxRounds < 1 {
		opts.MaxRounds = 1
	}
	return &Engine{
		llm:          llm,
		assembler:    assembler,
		dispatcher:   dispatcher,
		maxRounds:    opts.MaxRounds,
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger,
	}
}

// Chat processes one user message and returns the final answer plus the
// action log. Provider failures propagate unchanged; dispatch failures are
// absorbed into tool results and never abort the loop.
func (e *Engine) Chat(ctx context.Context, userID, conversationID, message string) (*Result, error) {
	instructions, err := e.assembler.SystemPrompt(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("assemble system prompt: %w", err)
	}
	history, err := e.assembler.History(ctx, conversationID, e.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("assemble history: %w", err)
	}

	contents := make([]core.Content, 0, len(history)+1)
	contents = append(contents, history...)
	contents = append(contents, core.NewUserContent(message))

	var actions []core.ActionRecord
	definitions := tool.Definitions()

	for round := 1; round <= e.maxRounds; round++ {
		resp, err := e.generate(ctx, model.Request{
			Instructions: instructions,
			Contents:     contents,
			Tools:        definitions,
			ToolChoice:   model.ToolChoiceAuto,
		})
		if err != nil {
			return nil, err
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			return &Result{Response: resp.Content.Text(), Actions: actions}, nil
		}

		// The model's own message goes first, then one tool result per
		// invocation keyed by its call id, dispatched in request order.
		contents = append(contents, resp.Content)
		for _, fc := range calls {
			record := e.dispatcher.Dispatch(ctx, userID, fc)
			actions = append(actions, record)
			contents = append(contents, core.NewToolResultContent(fc.ID, fc.Name, record.Outcome))
		}
		e.logger.Debug("orchestration round complete",
			"round", round,
			"tool_calls", len(calls),
			"user_id", userID)
	}

	// Budget exhausted: one last call with no tools offered forces a
	// user-facing answer.
	resp, err := e.generate(ctx, model.Request{
		Instructions: instructions,
		Contents:     contents,
		ToolChoice:   model.ToolChoiceNone,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Warn("round budget exhausted, forced final answer",
		"max_rounds", e.maxRounds,
		"user_id", userID)
	return &Result{Response: resp.Content.Text(), Actions: actions, Forced: true}, nil
}

// generate wraps the provider call with timing logs. No retry here; the
// caller owns resilience, keyed off the classified provider error.
func (e *Engine) generate(ctx context.Context, req model.Request) (*model.Response, error) {
	start := time.Now()
	resp, err := e.llm.Generate(ctx, req)
	if err != nil {
		e.logger.Error("model call failed",
			"model", e.llm.Info().Name,
			"duration", time.Since(start),
			"error", err)
		return nil, err
	}
	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	e.logger.Debug("model call complete",
		"model", e.llm.Info().Name,
		"duration", time.Since(start),
		"tokens", tokens,
		"finish_reason", resp.FinishReason)
	return resp, nil
}
