package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/metrics"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type mockModel struct {
	mock.Mock
}

func (m *mockModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	args := m.Called(ctx, prompt, options)
	return args.String(0), args.Error(1)
}

func (m *mockModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	args := m.Called(ctx, messages, options)
	resp, _ := args.Get(0).(*llms.ContentResponse)
	return resp, args.Error(1)
}

type recorderStub struct {
	runs []models.AIRun
}

func (r *recorderStub) Create(_ context.Context, run *models.AIRun) error {
	r.runs = append(r.runs, *run)
	return nil
}

func reply(content string, info map[string]any) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content, GenerationInfo: info}}}
}

func newTestGateway(t *testing.T, m *mockModel) (*LLMGateway, *recorderStub) {
	t.Helper()
	catalog, err := LoadPrompts(nil)
	require.NoError(t, err)
	rec := &recorderStub{}
	return NewLLMGateway(m, Options{Provider: ProviderOpenAI, Model: "gpt-test"}, catalog, rec, metrics.New()), rec
}

func audit() AuditContext {
	return AuditContext{OrganizationID: uuid.New(), ProjectID: uuid.New(), UserID: uuid.New()}
}

func TestExtractFeaturesNormalizesAndRecordsRun(t *testing.T) {
	m := &mockModel{}
	m.On("GenerateContent", mock.Anything, mock.MatchedBy(func(msgs []llms.MessageContent) bool {
		return len(msgs) == 2 && msgs[0].Role == llms.ChatMessageTypeSystem
	}), mock.Anything).Return(reply("```json\n{\"features\":[{\"title\":\" Task list \",\"priority\":\"must\",\"complexity\":\"low\"},]}\n```",
		map[string]any{"PromptTokens": 100, "CompletionTokens": 20}), nil)

	g, rec := newTestGateway(t, m)
	a := audit()
	res, err := g.ExtractFeatures(context.Background(), ExtractFeaturesRequest{
		Structured: models.StructuredRequirements{Summary: "Build a todo app"},
		Audit:      a,
	})
	require.NoError(t, err)
	require.Len(t, res.Features, 1)
	assert.Equal(t, "Task list", res.Features[0].Title)
	assert.Equal(t, models.PriorityMust, res.Features[0].Priority)
	assert.Equal(t, models.ComplexityLow, res.Features[0].Complexity)

	require.Len(t, rec.runs, 1)
	run := rec.runs[0]
	assert.Equal(t, res.RunID, run.ID.String())
	assert.Equal(t, string(TaskExtractFeatures), run.Task)
	assert.Equal(t, models.AIRunSucceeded, run.Status)
	assert.Equal(t, 100, run.PromptTokens)
	assert.Equal(t, 20, run.CompletionTokens)
	assert.Equal(t, a.ProjectID, run.ProjectID)
	m.AssertExpectations(t)
}

func TestStructureRequirementsDecodesAssumptions(t *testing.T) {
	m := &mockModel{}
	m.On("GenerateContent", mock.Anything, mock.MatchedBy(func(msgs []llms.MessageContent) bool {
		text := msgs[1].Parts[0].(llms.TextContent).Text
		return strings.Contains(text, "Build a todo app") && strings.Contains(text, "--- input 1 ---")
	}), mock.Anything).Return(reply(`{"summary":"Todo app","goals":["track tasks"],"assumptions":["web only"]}`,
		map[string]any{"InputTokens": 50, "OutputTokens": 10}), nil)

	g, rec := newTestGateway(t, m)
	res, err := g.StructureRequirements(context.Background(), StructureRequirementsRequest{
		Texts: []string{"Build a todo app"},
		Audit: audit(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Todo app", res.Structured.Summary)
	assert.Equal(t, []string{"web only"}, res.Assumptions)
	assert.Equal(t, 50, rec.runs[0].PromptTokens)
	assert.Equal(t, 10, rec.runs[0].CompletionTokens)
}

func TestMalformedReplyIsUpstreamFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"prose only", "I cannot help with that."},
		{"schema violation", `{"timelineMinDays": 10, "timelineMaxDays": 5, "costMin": 1, "costMax": 2, "confidenceScore": 0.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockModel{}
			m.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(reply(tt.content, nil), nil)
			g, rec := newTestGateway(t, m)

			_, err := g.EstimateTimelineAndCost(context.Background(), EstimateRequest{Currency: "USD", Audit: audit()})
			require.Error(t, err)
			assert.True(t, appErr.IsCode(err, appErr.CodeUpstreamFailure))
			require.Len(t, rec.runs, 1)
			assert.Equal(t, models.AIRunFailed, rec.runs[0].Status)
			assert.NotEmpty(t, rec.runs[0].Error)
		})
	}
}

func TestProviderErrorIsUpstreamFailure(t *testing.T) {
	m := &mockModel{}
	m.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("503 overloaded")).Once()
	g, _ := newTestGateway(t, m)

	_, err := g.RecommendTechStack(context.Background(), TechStackRequest{Audit: audit()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeUpstreamFailure))
	m.AssertNumberOfCalls(t, "GenerateContent", 1)
}

func TestRegenerateSectionRequiresNamedSection(t *testing.T) {
	m := &mockModel{}
	m.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).
		Return(reply(`{"cost":{"currency":"USD","min":1000,"max":2000}}`, nil), nil)
	g, _ := newTestGateway(t, m)

	res, err := g.RegenerateEstimateSection(context.Background(), RegenerateSectionRequest{Section: models.SectionCost, Currency: "USD", Audit: audit()})
	require.NoError(t, err)
	require.NotNil(t, res.Cost)
	assert.Equal(t, 2000.0, res.Cost.Max)
	assert.Nil(t, res.Timeline)

	_, err = g.RegenerateEstimateSection(context.Background(), RegenerateSectionRequest{Section: models.SectionTimeline, Audit: audit()})
	assert.True(t, appErr.IsCode(err, appErr.CodeUpstreamFailure))

	_, err = g.RegenerateEstimateSection(context.Background(), RegenerateSectionRequest{Section: "risks", Audit: audit()})
	assert.True(t, appErr.IsCode(err, appErr.CodeBadRequest))
}

func TestRegenerateSectionRejectsInvalidRanges(t *testing.T) {
	tests := []struct {
		name    string
		section models.EstimateSection
		content string
	}{
		{"inverted timeline", models.SectionTimeline, `{"timeline":{"minDays":50,"maxDays":-3}}`},
		{"negative cost", models.SectionCost, `{"cost":{"min":-10,"max":-500}}`},
		{"inverted cost", models.SectionCost, `{"cost":{"min":900,"max":100}}`},
		{"negative phase", models.SectionTimeline, `{"timeline":{"minDays":5,"maxDays":9,"phases":[{"name":"Build","days":-1}]}}`},
		{"both sections", models.SectionTimeline, `{"timeline":{"minDays":50,"maxDays":-3},"cost":{"min":-10,"max":-500}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockModel{}
			m.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything).Return(reply(tt.content, nil), nil)
			g, rec := newTestGateway(t, m)

			res, err := g.RegenerateEstimateSection(context.Background(), RegenerateSectionRequest{Section: tt.section, Currency: "USD", Audit: audit()})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, appErr.IsCode(err, appErr.CodeUpstreamFailure))
			require.Len(t, rec.runs, 1)
			assert.Equal(t, models.AIRunFailed, rec.runs[0].Status)
		})
	}
}

func TestNewModelRejectsUnknownProvider(t *testing.T) {
	_, err := NewModel(Options{Provider: "mystery"})
	require.Error(t, err)
}
