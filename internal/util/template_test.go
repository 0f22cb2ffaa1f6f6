package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	t.Run("plain text passes through", func(t *testing.T) {
		out, err := RenderTemplate("no markers here", nil)
		require.NoError(t, err)
		assert.Equal(t, "no markers here", out)
	})

	t.Run("substitutes state", func(t *testing.T) {
		out, err := RenderTemplate("Stage: {{.Stage}}", map[string]any{"Stage": 2})
		require.NoError(t, err)
		assert.Equal(t, "Stage: 2", out)
	})

	t.Run("default func", func(t *testing.T) {
		out, err := RenderTemplate(`{{default "N/A" .Missing}}`, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, "N/A", out)
	})

	t.Run("join func", func(t *testing.T) {
		out, err := RenderTemplate("{{join .Countries \", \"}}", map[string]any{
			"Countries": []string{"USA", "UK"},
		})
		require.NoError(t, err)
		assert.Equal(t, "USA, UK", out)
	})

	t.Run("parse error reported", func(t *testing.T) {
		_, err := RenderTemplate("{{.Unclosed", nil)
		assert.Error(t, err)
	})
}
