package model

import (
	"context"
	"fmt"

	"github.com/unipath-ai/unipath/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolChoice controls whether the model may request tool invocations.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide between text and tool requests.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone forbids tool requests; the model must answer in text.
	ToolChoiceNone ToolChoice = "none"
)

// Request captures the normalized model input produced by the counsellor engine.
type Request struct {
	Instructions string           `json:"instructions"` // System prompt
	Contents     []core.Content   `json:"contents"`     // Ordered message sequence
	Tools        []ToolDefinition `json:"tools,omitempty"`
	ToolChoice   ToolChoice       `json:"tool_choice,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed model output for one call.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Generate blocks
// for the duration of the provider call; there is no retry inside. Resilience
// belongs to the caller, keyed off the classified ProviderError.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrorKind classifies provider transport failures so callers can apply
// provider-specific backoff and user-facing messaging.
type ErrorKind string

const (
	// ErrKindConnection covers network/connectivity failures.
	ErrKindConnection ErrorKind = "connection"
	// ErrKindTimeout covers deadline and timeout failures.
	ErrKindTimeout ErrorKind = "timeout"
	// ErrKindAuth covers authentication and authorization failures.
	ErrKindAuth ErrorKind = "auth"
	// ErrKindRateLimit covers provider rate limiting.
	ErrKindRateLimit ErrorKind = "rate_limit"
	// ErrKindProvider covers all remaining provider faults.
	ErrKindProvider ErrorKind = "provider"
)

// ProviderError wraps a provider transport failure with a stable kind.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error [%s]: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a classified provider error.
func NewProviderError(kind ErrorKind, provider string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}
