package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/unipath-ai/unipath/core"
)

// ScriptedModel is a lightweight in-memory Model useful for tests. It replays
// a fixed sequence of responses, one per Generate call, and records every
// request so tests can assert on what the engine sent.
type ScriptedModel struct {
	mu        sync.Mutex
	info      Info
	responses []Response
	calls     int
	requests  []Request
}

// NewScriptedModel constructs a ScriptedModel with tool support enabled.
func NewScriptedModel(name string, responses ...Response) *ScriptedModel {
	return &ScriptedModel{
		info: Info{
			Name:          name,
			Provider:      "scripted",
			SupportsTools: true,
		},
		responses: responses,
	}
}

// Enqueue appends another canned response to the script.
func (m *ScriptedModel) Enqueue(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Generate implements Model; returns the next scripted response.
func (m *ScriptedModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.calls >= len(m.responses) {
		return nil, fmt.Errorf("scripted model exhausted after %d calls", m.calls)
	}
	resp := m.responses[m.calls]
	m.calls++
	return &resp, nil
}

// Info implements the Model interface.
func (m *ScriptedModel) Info() Info { return m.info }

// Calls reports how many Generate calls were made.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of the recorded requests in call order.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// TextResponse is a convenience constructor for a plain assistant answer.
func TextResponse(text string) Response {
	return Response{
		Content:      core.NewAssistantContent(text),
		FinishReason: "stop",
	}
}

// ToolCallResponse is a convenience constructor for a response that requests
// the given tool invocations (optionally preceded by assistant text).
func ToolCallResponse(text string, calls ...core.FunctionCall) Response {
	parts := make([]core.Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, core.TextPart{Text: text})
	}
	for _, fc := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	return Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: "tool_calls",
	}
}

// FailingModel always returns the configured error. Useful for testing
// provider failure propagation.
type FailingModel struct {
	Err error
}

// Generate implements Model by failing unconditionally.
func (m *FailingModel) Generate(context.Context, Request) (*Response, error) {
	return nil, m.Err
}

// Info implements the Model interface.
func (m *FailingModel) Info() Info {
	return Info{Name: "failing", Provider: "test", SupportsTools: true}
}
