package ai

import (
	_ "embed"
	"fmt"

	"github.com/tmc/langchaingo/prompts"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptSpec is one task's entry in the prompt catalog.
type PromptSpec struct {
	Temperature float64  `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	Inputs      []string `yaml:"inputs"`
	System      string   `yaml:"system"`
	User        string   `yaml:"user"`
}

// RenderedPrompt is a prompt ready to send.
type RenderedPrompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// PromptCatalog maps tasks to their prompt templates.
type PromptCatalog struct {
	Version int                 `yaml:"version"`
	Tasks   map[Task]PromptSpec `yaml:"tasks"`
}

// LoadPrompts parses a YAML catalog. Nil data loads the embedded default.
func LoadPrompts(data []byte) (*PromptCatalog, error) {
	if data == nil {
		data = defaultPrompts
	}
	var c PromptCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	for _, t := range []Task{
		TaskStructureRequirements, TaskExtractFeatures, TaskEstimateTimelineAndCost,
		TaskRecommendTechStack, TaskGenerateUserFlows, TaskGenerateWireframes,
		TaskRegenerateEstimateSection,
	} {
		spec, ok := c.Tasks[t]
		if !ok {
			return nil, fmt.Errorf("prompt catalog: missing task %q", t)
		}
		if spec.User == "" {
			return nil, fmt.Errorf("prompt catalog: task %q has no user template", t)
		}
	}
	return &c, nil
}

// Render fills the task's templates. Every declared input must be present in vars.
func (c *PromptCatalog) Render(task Task, vars map[string]any) (RenderedPrompt, error) {
	spec, ok := c.Tasks[task]
	if !ok {
		return RenderedPrompt{}, fmt.Errorf("no prompt for task %q", task)
	}
	for _, in := range spec.Inputs {
		if _, ok := vars[in]; !ok {
			return RenderedPrompt{}, fmt.Errorf("prompt %q: missing input %q", task, in)
		}
	}
	user, err := prompts.NewPromptTemplate(spec.User, spec.Inputs).Format(vars)
	if err != nil {
		return RenderedPrompt{}, fmt.Errorf("render %s prompt: %w", task, err)
	}
	return RenderedPrompt{
		System:      spec.System,
		User:        user,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
	}, nil
}
