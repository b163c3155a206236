package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/metrics"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/logger"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	errEmptyReply = errors.New("model returned no content")
	errNoJSON     = errors.New("model reply contains no JSON object")
)

// RunRecorder persists one AIRun row per call.
type RunRecorder interface {
	Create(ctx context.Context, run *models.AIRun) error
}

// Options configures an LLMGateway.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// NewModel builds the langchaingo model for the configured provider.
func NewModel(opts Options) (llms.Model, error) {
	switch opts.Provider {
	case ProviderOpenAI:
		o := []openai.Option{openai.WithToken(opts.APIKey)}
		if opts.Model != "" {
			o = append(o, openai.WithModel(opts.Model))
		}
		if opts.BaseURL != "" {
			o = append(o, openai.WithBaseURL(opts.BaseURL))
		}
		m, err := openai.New(o...)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		return m, nil
	case ProviderAnthropic:
		o := []anthropic.Option{anthropic.WithToken(opts.APIKey)}
		if opts.Model != "" {
			o = append(o, anthropic.WithModel(opts.Model))
		}
		if opts.BaseURL != "" {
			o = append(o, anthropic.WithBaseURL(opts.BaseURL))
		}
		m, err := anthropic.New(o...)
		if err != nil {
			return nil, fmt.Errorf("anthropic client: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported ai provider %q", opts.Provider)
}

// LLMGateway implements Gateway on a langchaingo model.
type LLMGateway struct {
	model    llms.Model
	opts     Options
	prompts  *PromptCatalog
	recorder RunRecorder
	metrics  *metrics.Metrics
	validate *validator.Validate
}

var _ Gateway = (*LLMGateway)(nil)

// NewLLMGateway wires a model with the prompt catalog. recorder and m may be nil.
func NewLLMGateway(model llms.Model, opts Options, catalog *PromptCatalog, recorder RunRecorder, m *metrics.Metrics) *LLMGateway {
	return &LLMGateway{
		model:    model,
		opts:     opts,
		prompts:  catalog,
		recorder: recorder,
		metrics:  m,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (g *LLMGateway) Provider() string { return g.opts.Provider }

func (g *LLMGateway) StructureRequirements(ctx context.Context, req StructureRequirementsRequest) (*StructureRequirementsResult, error) {
	var out struct {
		models.StructuredRequirements
		Assumptions []string `json:"assumptions"`
	}
	vars := map[string]any{
		"texts":       numbered(req.Texts),
		"instruction": req.Instruction,
	}
	runID, err := g.run(ctx, TaskStructureRequirements, req.Audit, vars, &out)
	if err != nil {
		return nil, err
	}
	return &StructureRequirementsResult{Structured: out.StructuredRequirements, Assumptions: out.Assumptions, RunID: runID}, nil
}

func (g *LLMGateway) ExtractFeatures(ctx context.Context, req ExtractFeaturesRequest) (*ExtractFeaturesResult, error) {
	var out struct {
		Features []Feature `json:"features" validate:"min=1,dive"`
	}
	vars := map[string]any{"requirements": toJSON(req.Structured)}
	runID, err := g.run(ctx, TaskExtractFeatures, req.Audit, vars, &out, func() {
		for i := range out.Features {
			out.Features[i].normalize()
		}
	})
	if err != nil {
		return nil, err
	}
	return &ExtractFeaturesResult{Features: out.Features, RunID: runID}, nil
}

func (g *LLMGateway) EstimateTimelineAndCost(ctx context.Context, req EstimateRequest) (*EstimateResult, error) {
	var out Estimation
	vars := map[string]any{
		"requirements": toJSON(req.Structured),
		"features":     toJSON(req.Features),
		"currency":     req.Currency,
		"instruction":  req.Instruction,
	}
	runID, err := g.run(ctx, TaskEstimateTimelineAndCost, req.Audit, vars, &out)
	if err != nil {
		return nil, err
	}
	return &EstimateResult{Estimation: out, RunID: runID}, nil
}

func (g *LLMGateway) RecommendTechStack(ctx context.Context, req TechStackRequest) (*TechStackResult, error) {
	var out StackRecommendation
	vars := map[string]any{
		"requirements": toJSON(req.Structured),
		"features":     toJSON(req.Features),
		"instruction":  req.Instruction,
	}
	runID, err := g.run(ctx, TaskRecommendTechStack, req.Audit, vars, &out)
	if err != nil {
		return nil, err
	}
	return &TechStackResult{Stack: out, RunID: runID}, nil
}

func (g *LLMGateway) GenerateUserFlows(ctx context.Context, req UserFlowsRequest) (*UserFlowsResult, error) {
	var out struct {
		Flows []Flow `json:"flows" validate:"min=1,dive"`
	}
	vars := map[string]any{
		"requirements": toJSON(req.Structured),
		"features":     toJSON(req.Features),
		"instruction":  req.Instruction,
	}
	runID, err := g.run(ctx, TaskGenerateUserFlows, req.Audit, vars, &out)
	if err != nil {
		return nil, err
	}
	return &UserFlowsResult{Flows: out.Flows, RunID: runID}, nil
}

func (g *LLMGateway) GenerateWireframes(ctx context.Context, req WireframesRequest) (*WireframesResult, error) {
	var out struct {
		Screens []Screen `json:"screens" validate:"min=1,dive"`
	}
	vars := map[string]any{
		"flows":       toJSON(req.Flows),
		"instruction": req.Instruction,
	}
	runID, err := g.run(ctx, TaskGenerateWireframes, req.Audit, vars, &out)
	if err != nil {
		return nil, err
	}
	return &WireframesResult{Screens: out.Screens, RunID: runID}, nil
}

type sectionReply struct {
	Timeline    *models.TimelineSection `json:"timeline"`
	Cost        *models.CostSection     `json:"cost"`
	Assumptions []string                `json:"assumptions"`
	LineItems   []LineItem              `json:"lineItems" validate:"dive"`
}

func (g *LLMGateway) RegenerateEstimateSection(ctx context.Context, req RegenerateSectionRequest) (*SectionResult, error) {
	if !req.Section.Valid() {
		return nil, appErr.Newf(appErr.CodeBadRequest, "unknown estimate section %q", req.Section)
	}
	var out sectionReply
	vars := map[string]any{
		"section":      string(req.Section),
		"current":      toJSON(req.Current),
		"requirements": toJSON(req.Structured),
		"features":     toJSON(req.Features),
		"currency":     req.Currency,
		"instruction":  req.Instruction,
	}
	var missing bool
	runID, err := g.run(ctx, TaskRegenerateEstimateSection, req.Audit, vars, &out, func() {
		switch req.Section {
		case models.SectionTimeline:
			missing = out.Timeline == nil
		case models.SectionCost:
			missing = out.Cost == nil
		case models.SectionAssumptions:
			missing = out.Assumptions == nil
		case models.SectionLineItems:
			missing = out.LineItems == nil
		}
	})
	if err != nil {
		return nil, err
	}
	if missing {
		return nil, appErr.Newf(appErr.CodeUpstreamFailure, "model reply lacks the %s section", req.Section)
	}
	res := &SectionResult{Section: req.Section, RunID: runID}
	switch req.Section {
	case models.SectionTimeline:
		res.Timeline = out.Timeline
	case models.SectionCost:
		res.Cost = out.Cost
	case models.SectionAssumptions:
		res.Assumptions = out.Assumptions
	case models.SectionLineItems:
		res.LineItems = out.LineItems
	}
	return res, nil
}

// run renders the task prompt, calls the model, decodes and validates the reply into
// out and records the AIRun. after runs between decoding and validation.
func (g *LLMGateway) run(ctx context.Context, task Task, audit AuditContext, vars map[string]any, out any, after ...func()) (string, error) {
	log := logger.FromContext(ctx).With(zap.String("task", string(task)), zap.String("project_id", audit.ProjectID.String()))

	prompt, err := g.prompts.Render(task, vars)
	if err != nil {
		return "", appErr.Wrap(err, appErr.CodeInternal, "render prompt failed")
	}

	run := &models.AIRun{
		ID:             uuid.New(),
		Task:           string(task),
		Provider:       g.opts.Provider,
		Model:          g.opts.Model,
		OrganizationID: audit.OrganizationID,
		ProjectID:      audit.ProjectID,
		UserID:         audit.UserID,
	}

	callCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt.User),
	}
	callOpts := []llms.CallOption{llms.WithTemperature(prompt.Temperature)}
	if prompt.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(prompt.MaxTokens))
	}
	resp, callErr := g.model.GenerateContent(callCtx, msgs, callOpts...)
	if callErr == nil {
		run.PromptTokens, run.CompletionTokens = tokenUsage(resp)
		callErr = g.decode(replyText(resp), out, after...)
	}
	elapsed := time.Since(start)
	run.DurationMs = elapsed.Milliseconds()
	run.Status = models.AIRunSucceeded
	if callErr != nil {
		run.Status = models.AIRunFailed
		run.Error = callErr.Error()
	}

	g.record(ctx, run, log)
	g.metrics.ObserveAICall(string(task), g.opts.Provider, string(run.Status), elapsed, run.PromptTokens, run.CompletionTokens)

	if callErr != nil {
		log.Warn("ai call failed", zap.String("run_id", run.ID.String()), zap.Duration("duration", elapsed), zap.Error(callErr))
		return "", appErr.Wrap(callErr, appErr.CodeUpstreamFailure, fmt.Sprintf("AI %s failed", strings.ReplaceAll(string(task), "_", " "))).
			WithMeta("runId", run.ID.String())
	}
	log.Info("ai call succeeded",
		zap.String("run_id", run.ID.String()),
		zap.Duration("duration", elapsed),
		zap.Int("prompt_tokens", run.PromptTokens),
		zap.Int("completion_tokens", run.CompletionTokens),
	)
	return run.ID.String(), nil
}

func (g *LLMGateway) decode(text string, out any, after ...func()) error {
	if strings.TrimSpace(text) == "" {
		return errEmptyReply
	}
	raw := ExtractJSON(text)
	if raw == "" {
		return errNoJSON
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	for _, fn := range after {
		fn()
	}
	if err := g.validate.Struct(out); err != nil {
		return fmt.Errorf("model reply failed validation: %w", err)
	}
	return nil
}

func (g *LLMGateway) record(ctx context.Context, run *models.AIRun, log *zap.Logger) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.Create(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("record ai run failed", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}

func replyText(resp *llms.ContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Choices {
		if c.Content != "" {
			return c.Content
		}
	}
	return ""
}

// tokenUsage reads OpenAI-style keys first, then Anthropic-style ones.
func tokenUsage(resp *llms.ContentResponse) (prompt, completion int) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].GenerationInfo == nil {
		return 0, 0
	}
	info := resp.Choices[0].GenerationInfo
	prompt = intValue(info, "PromptTokens")
	if prompt == 0 {
		prompt = intValue(info, "InputTokens")
	}
	completion = intValue(info, "CompletionTokens")
	if completion == 0 {
		completion = intValue(info, "OutputTokens")
	}
	return prompt, completion
}

func intValue(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func numbered(texts []string) string {
	var b strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&b, "--- input %d ---\n%s\n", i+1, strings.TrimSpace(t))
	}
	return b.String()
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Open builds the provider model and a gateway over it. promptsFile overrides the
// embedded prompt catalog when set.
func Open(opts Options, promptsFile string, recorder RunRecorder, m *metrics.Metrics) (*LLMGateway, error) {
	var data []byte
	if promptsFile != "" {
		b, err := os.ReadFile(promptsFile)
		if err != nil {
			return nil, fmt.Errorf("read prompt catalog: %w", err)
		}
		data = b
	}
	catalog, err := LoadPrompts(data)
	if err != nil {
		return nil, err
	}
	model, err := NewModel(opts)
	if err != nil {
		return nil, err
	}
	return NewLLMGateway(model, opts, catalog, recorder, m), nil
}
