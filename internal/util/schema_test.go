package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	Name     string   `json:"name" description:"Display name"`
	Category string   `json:"category" enum:"dream,target,safe"`
	Budget   *int     `json:"budget,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	ignored  string
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleArgs{})

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 4)
	assert.NotContains(t, props, "ignored")

	name := props["name"].(map[string]any)
	assert.Equal(t, "string", name["type"])
	assert.Equal(t, "Display name", name["description"])

	category := props["category"].(map[string]any)
	assert.Equal(t, []any{"dream", "target", "safe"}, category["enum"])

	assert.Equal(t, "integer", props["budget"].(map[string]any)["type"])
	assert.Equal(t, "array", props["tags"].(map[string]any)["type"])

	// Pointer and omitempty fields are optional.
	assert.ElementsMatch(t, []string{"name", "category"}, schema["required"])
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(sampleArgs{})

	tests := []struct {
		name    string
		params  map[string]any
		wantErr string
	}{
		{
			name:   "valid",
			params: map[string]any{"name": "MIT", "category": "dream"},
		},
		{
			name:   "optional fields and json numbers accepted",
			params: map[string]any{"name": "MIT", "category": "safe", "budget": float64(40000)},
		},
		{
			name:   "unknown fields ignored",
			params: map[string]any{"name": "MIT", "category": "target", "extra": true},
		},
		{
			name:    "missing required field",
			params:  map[string]any{"name": "MIT"},
			wantErr: "category",
		},
		{
			name:    "enum violation",
			params:  map[string]any{"name": "MIT", "category": "reach"},
			wantErr: "category",
		},
		{
			name:    "wrong type",
			params:  map[string]any{"name": 42, "category": "dream"},
			wantErr: "name",
		},
		{
			name:    "fractional value for integer field",
			params:  map[string]any{"name": "MIT", "category": "dream", "budget": 1.5},
			wantErr: "budget",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameters(tt.params, schema)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Field)
		})
	}
}
