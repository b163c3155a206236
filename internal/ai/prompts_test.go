package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogRendersEveryTask(t *testing.T) {
	c, err := LoadPrompts(nil)
	require.NoError(t, err)

	for task, spec := range c.Tasks {
		vars := map[string]any{}
		for _, in := range spec.Inputs {
			vars[in] = "value-of-" + in
		}
		p, err := c.Render(task, vars)
		require.NoError(t, err, task)
		assert.NotEmpty(t, p.System, task)
		for _, in := range spec.Inputs {
			if in == "instruction" {
				continue
			}
			assert.Contains(t, p.User, "value-of-"+in, task)
		}
	}
}

func TestRenderRequiresDeclaredInputs(t *testing.T) {
	c, err := LoadPrompts(nil)
	require.NoError(t, err)
	_, err = c.Render(TaskExtractFeatures, map[string]any{})
	require.Error(t, err)
}

func TestLoadPromptsRejectsIncompleteCatalog(t *testing.T) {
	_, err := LoadPrompts([]byte("version: 1\ntasks:\n  extract_features:\n    user: hi\n"))
	require.Error(t, err)
}

func TestInstructionIsOptional(t *testing.T) {
	c, err := LoadPrompts(nil)
	require.NoError(t, err)
	p, err := c.Render(TaskRecommendTechStack, map[string]any{"requirements": "{}", "features": "[]", "instruction": ""})
	require.NoError(t, err)
	assert.NotContains(t, p.User, "Additional instruction")
}
