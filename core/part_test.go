package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentText(t *testing.T) {
	content := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "Here are "},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "search_universities"}},
		TextPart{Text: "some options."},
	}}
	assert.Equal(t, "Here are some options.", content.Text())
}

func TestContentFunctionCalls(t *testing.T) {
	content := Content{Role: RoleAssistant, Parts: []Part{
		TextPart{Text: "Locking it in."},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "lock_university", Arguments: `{"university_id":"u1"}`}},
		FunctionCallPart{FunctionCall: FunctionCall{ID: "c2", Name: "create_task", Arguments: `{"title":"Draft SOP"}`}},
	}}

	calls := content.FunctionCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "create_task", calls[1].Name)

	assert.Empty(t, Content{}.FunctionCalls())
}

func TestContentConstructors(t *testing.T) {
	assert.Equal(t, RoleSystem, NewSystemContent("x").Role)
	assert.Equal(t, RoleUser, NewUserContent("x").Role)
	assert.Equal(t, RoleAssistant, NewAssistantContent("x").Role)

	result := NewToolResultContent("c9", "create_task", "Created task: Draft SOP")
	assert.Equal(t, RoleTool, result.Role)
	part, ok := result.Parts[0].(FunctionResponsePart)
	assert.True(t, ok)
	assert.Equal(t, "c9", part.FunctionResponse.ID)
	assert.Equal(t, "Created task: Draft SOP", part.FunctionResponse.Response)
}
