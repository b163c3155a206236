package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTodoAppScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Equal(t, models.StageDraft, h.stage())
	h.addText("Build a todo app where teams create tasks and assign them to each other.")
	assert.Equal(t, models.StageInputCollection, h.stage())

	h.expectRequirements(1, todoFeatures)
	req := h.generateRequirements()
	assert.Equal(t, 1, req.Version)
	require.Len(t, req.Features, 3)
	assert.Equal(t, "Task creation", req.Features[0].Title)
	assert.Equal(t, 2, req.Features[2].OrderIndex)
	assert.Equal(t, "run-structure", req.AIRunID)
	assert.Equal(t, "run-features", req.FeatureRunID)
	assert.Equal(t, models.StageFeatureDefinition, h.stage())

	h.gw.On("EstimateTimelineAndCost", mock.Anything, mock.MatchedBy(func(r ai.EstimateRequest) bool {
		return r.Currency == "USD" && len(r.Features) == 3
	})).Return(&ai.EstimateResult{
		Estimation: ai.Estimation{
			TimelineMinDays: 20, TimelineMaxDays: 30,
			CostMin: 10000, CostMax: 15000, ConfidenceScore: 0.7,
			Assumptions: []string{"One developer"},
			LineItems: []ai.LineItem{
				{Name: "  task CREATION ", HoursMin: 8, HoursMax: 12, CostMin: 800, CostMax: 1200},
				{Name: "Task assignment", HoursMin: 16, HoursMax: 24, CostMin: 1600, CostMax: 2400},
				{Name: "Deployment", HoursMin: 4, HoursMax: 6, CostMin: 400, CostMax: 600},
			},
		},
		RunID: "run-estimate",
	}, nil).Once()

	est, err := h.estimates.Generate(ctx, h.owner, GenerateEstimateInput{ProjectID: h.projectID()})
	require.NoError(t, err)
	assert.Equal(t, 1, est.Version)
	assert.Equal(t, req.ID, est.RequirementSnapshotID)
	assert.Equal(t, "mock", est.AIProvider)
	require.Len(t, est.LineItems, 3)
	require.NotNil(t, est.LineItems[0].FeatureItemID)
	assert.Equal(t, req.Features[0].ID, *est.LineItems[0].FeatureItemID)
	require.NotNil(t, est.LineItems[1].FeatureItemID)
	assert.Nil(t, est.LineItems[2].FeatureItemID)
	assert.Equal(t, "USD", est.Breakdown.Data().Cost.Currency)
	assert.Equal(t, models.StageEstimation, h.stage())

	h.gw.On("RecommendTechStack", mock.Anything, mock.Anything).Return(&ai.TechStackResult{
		Stack: ai.StackRecommendation{Frontend: []string{"React"}, Backend: []string{"Go"}, Database: []string{"PostgreSQL"}, Rationale: "Boring and fast"},
		RunID: "run-stack",
	}, nil).Once()
	stack, err := h.stacks.Generate(ctx, h.owner, GenerateFromRequirementsInput{ProjectID: h.projectID()})
	require.NoError(t, err)
	assert.Equal(t, 1, stack.Version)
	assert.Equal(t, []string{"Go"}, []string(stack.Backend))
	assert.Equal(t, models.StageTechStack, h.stage())

	h.gw.On("GenerateUserFlows", mock.Anything, mock.Anything).Return(&ai.UserFlowsResult{
		Flows: []ai.Flow{
			{Name: "Create a task", Actor: "Member", Steps: []string{"Open list", "Type title", "Save"}},
			{Name: "Assign a task", Actor: "Lead", Steps: []string{"Open task", "Pick assignee"}},
		},
		RunID: "run-flows",
	}, nil).Once()
	flows, err := h.flows.Generate(ctx, h.owner, GenerateFromRequirementsInput{ProjectID: h.projectID()})
	require.NoError(t, err)
	require.Len(t, flows.Flows, 2)
	assert.Equal(t, models.StageUserFlows, h.stage())

	h.gw.On("GenerateWireframes", mock.Anything, mock.MatchedBy(func(r ai.WireframesRequest) bool {
		return len(r.Flows) == 2 && r.Flows[0].Name == "Create a task"
	})).Return(&ai.WireframesResult{
		Screens: []ai.Screen{{Name: "Task list", FlowName: "Create a task", Components: []string{"List", "Button"}}},
		RunID:   "run-wireframes",
	}, nil).Once()
	wf, err := h.wireframes.Generate(ctx, h.owner, GenerateWireframesInput{ProjectID: h.projectID()})
	require.NoError(t, err)
	assert.Equal(t, flows.ID, wf.UserFlowSnapshotID)
	require.Len(t, wf.Screens, 1)
	assert.Equal(t, models.StageWireframes, h.stage())

	page, err := h.activity.List(ctx, h.owner, h.projectID(), "", pagination.New(1, 50))
	require.NoError(t, err)
	assert.EqualValues(t, 6, page.Meta.Total)
	assert.Equal(t, models.EventWireframesGenerated, page.Data[0].EventType)

	page, err = h.activity.List(ctx, h.owner, h.projectID(), models.EventEstimateGenerated, pagination.New(1, 50))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	p, err := page.Data[0].DecodePayload()
	require.NoError(t, err)
	eg := p.(*models.EstimateGeneratedPayload)
	assert.Equal(t, 3, eg.LineItemCount)
	assert.Equal(t, 2, eg.MatchedFeatureCount)

	h.gw.AssertExpectations(t)
}

func TestVersionsStayGaplessAcrossFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addText("A habit tracker")

	structured := &ai.StructureRequirementsResult{Structured: todoStructured, RunID: "run-s"}
	features := &ai.ExtractFeaturesResult{Features: todoFeatures, RunID: "run-f"}
	h.gw.On("StructureRequirements", mock.Anything, mock.Anything).Return(structured, nil).Once()
	h.gw.On("StructureRequirements", mock.Anything, mock.Anything).Return(nil, upstreamErr()).Once()
	h.gw.On("StructureRequirements", mock.Anything, mock.Anything).Return(structured, nil).Once()
	h.gw.On("ExtractFeatures", mock.Anything, mock.Anything).Return(features, nil).Twice()

	first, err := h.requirements.Generate(ctx, h.owner, GenerateRequirementsInput{ProjectID: h.projectID()})
	require.NoError(t, err)

	_, err = h.requirements.Generate(ctx, h.owner, GenerateRequirementsInput{ProjectID: h.projectID()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeUpstreamFailure))

	_, err = h.requirements.Generate(ctx, h.owner, GenerateRequirementsInput{ProjectID: h.projectID(), InputIDs: []uuid.UUID{uuid.New()}})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	second, err := h.requirements.Generate(ctx, h.owner, GenerateRequirementsInput{ProjectID: h.projectID()})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	h.gw.AssertExpectations(t)
}

func TestForbiddenGenerationAllocatesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addText("An invoicing tool")

	_, err := h.requirements.Generate(ctx, h.stranger(), GenerateRequirementsInput{ProjectID: h.projectID()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
	h.gw.AssertNotCalled(t, "StructureRequirements", mock.Anything, mock.Anything)
	assert.Zero(t, countRows(t, h, &models.RequirementSnapshot{}))

	h.expectRequirements(1, todoFeatures)
	snap := h.generateRequirements()
	assert.Equal(t, 1, snap.Version)
}

func TestMissingProjectIsNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.requirements.Generate(context.Background(), h.owner, GenerateRequirementsInput{ProjectID: uuid.New()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestGenerateWithoutInputsIsBadRequest(t *testing.T) {
	h := newHarness(t)
	_, err := h.requirements.Generate(context.Background(), h.owner, GenerateRequirementsInput{ProjectID: h.projectID()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeBadRequest))
	assert.Contains(t, err.Error(), "No text inputs found")
	assert.Zero(t, countRows(t, h, &models.RequirementSnapshot{}))
	assert.Zero(t, countRows(t, h, &models.ProjectActivity{}))
	h.gw.AssertNotCalled(t, "StructureRequirements", mock.Anything, mock.Anything)
}

func TestNonTextInputIsRejected(t *testing.T) {
	h := newHarness(t)
	url, err := h.inputs.Add(context.Background(), h.owner, h.projectID(), AddInputInput{Type: models.InputTypeURL, Content: "https://example.com/brief"})
	require.NoError(t, err)

	_, err = h.requirements.Generate(context.Background(), h.owner, GenerateRequirementsInput{ProjectID: h.projectID(), InputIDs: []uuid.UUID{url.ID}})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeBadRequest))
}

func TestAIFailureLeavesTablesUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addText("A recipe sharing site")
	activitiesBefore := countRows(t, h, &models.ProjectActivity{})
	stageBefore := h.stage()

	h.gw.On("StructureRequirements", mock.Anything, mock.Anything).
		Return(&ai.StructureRequirementsResult{Structured: todoStructured, RunID: "run-s"}, nil).Once()
	h.gw.On("ExtractFeatures", mock.Anything, mock.Anything).Return(nil, upstreamErr()).Once()

	_, err := h.requirements.Generate(ctx, h.owner, GenerateRequirementsInput{ProjectID: h.projectID()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeUpstreamFailure))

	assert.Zero(t, countRows(t, h, &models.RequirementSnapshot{}))
	assert.Zero(t, countRows(t, h, &models.FeatureItem{}))
	assert.Equal(t, activitiesBefore, countRows(t, h, &models.ProjectActivity{}))
	assert.Equal(t, stageBefore, h.stage())
}

// failingRecorder writes the activity row and then fails, so the rollback has
// something to undo.
type failingRecorder struct {
	next ActivityRecorder
}

func (r failingRecorder) Record(tx *gorm.DB, entry ActivityEntry) (*models.ProjectActivity, error) {
	if _, err := r.next.Record(tx, entry); err != nil {
		return nil, err
	}
	return nil, errors.New("boom")
}

func TestFailureInsideTransactionRollsBackEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addText("A recipe sharing site")
	activitiesBefore := countRows(t, h, &models.ProjectActivity{})
	stageBefore := h.stage()

	deps := h.deps
	deps.Activity = failingRecorder{next: NewActivityRecorder()}
	svc := NewRequirementService(deps, repository.NewRequirementRepository(h.db), repository.NewInputRepository(h.db))
	h.expectRequirements(1, todoFeatures)

	_, err := svc.Generate(ctx, h.owner, GenerateRequirementsInput{ProjectID: h.projectID()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeInternal))
	assert.ErrorContains(t, err, "boom")

	assert.Zero(t, countRows(t, h, &models.RequirementSnapshot{}))
	assert.Zero(t, countRows(t, h, &models.FeatureItem{}))
	assert.Equal(t, activitiesBefore, countRows(t, h, &models.ProjectActivity{}))
	assert.Equal(t, stageBefore, h.stage())
	assert.Equal(t, models.StageInputCollection, h.stage())
}

func TestConcurrentGenerationsGetConsecutiveVersions(t *testing.T) {
	h := newHarness(t)
	h.addText("A fleet tracking dashboard")
	const n = 5
	h.expectRequirements(n, todoFeatures)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		versions []int
		errs     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := h.requirements.Generate(context.Background(), h.owner, GenerateRequirementsInput{ProjectID: h.projectID()})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			versions = append(versions, snap.Version)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Ints(versions)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, versions)
}

func TestUpdateRequirementKeepsVersionAndFeatures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addText("A booking system for a barber shop")
	h.expectRequirements(1, todoFeatures)
	snap := h.generateRequirements()

	status := models.RequirementStatusApproved
	assumptions := []string{"Single location"}
	updated, err := h.requirements.Update(ctx, h.owner, h.projectID(), snap.ID, UpdateRequirementInput{
		Assumptions: &assumptions,
		Status:      &status,
	})
	require.NoError(t, err)
	assert.Equal(t, snap.Version, updated.Version)
	assert.Equal(t, models.RequirementStatusApproved, updated.Status)
	assert.Equal(t, []string{"Single location"}, []string(updated.Assumptions))
	require.Len(t, updated.Features, len(snap.Features))
	for i := range snap.Features {
		assert.Equal(t, snap.Features[i].ID, updated.Features[i].ID)
	}
	assert.EqualValues(t, 1, countRows(t, h, &models.RequirementSnapshot{}))

	page, err := h.activity.List(ctx, h.owner, h.projectID(), models.EventRequirementUpdated, pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	_, err = h.requirements.Update(ctx, h.owner, h.projectID(), snap.ID, UpdateRequirementInput{})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeBadRequest))
}

func TestDownstreamWithoutUpstreamIsBadRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.estimates.Generate(ctx, h.owner, GenerateEstimateInput{ProjectID: h.projectID()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeBadRequest))
	assert.Contains(t, err.Error(), "Generate requirements first.")
	ae, ok := appErr.As(err)
	require.True(t, ok)
	assert.Equal(t, "requirement", ae.Meta["missing"])

	_, err = h.wireframes.Generate(ctx, h.owner, GenerateWireframesInput{ProjectID: h.projectID()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Generate user flows first.")

	assert.Zero(t, countRows(t, h, &models.EstimateSnapshot{}))
	assert.Zero(t, countRows(t, h, &models.WireframeSnapshot{}))
}

func TestEstimateRequiresFeatures(t *testing.T) {
	h := newHarness(t)
	h.addText("An empty idea")
	h.expectRequirements(1, nil)
	snap := h.generateRequirements()
	assert.Empty(t, snap.Features)

	_, err := h.estimates.Generate(context.Background(), h.owner, GenerateEstimateInput{ProjectID: h.projectID()})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeBadRequest))
	assert.Contains(t, err.Error(), "has no features")
	h.gw.AssertNotCalled(t, "EstimateTimelineAndCost", mock.Anything, mock.Anything)
}

func TestPinnedUpstreamFromOtherProjectIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.addText("A chat app")
	h.expectRequirements(1, todoFeatures)
	snap := h.generateRequirements()

	other := models.Project{OrganizationID: h.tenant.Org.ID, Name: "Other", Currency: "EUR", CreatedByID: h.tenant.Owner.ID}
	require.NoError(t, h.db.Create(&other).Error)

	_, err := h.estimates.Generate(context.Background(), h.owner, GenerateEstimateInput{ProjectID: other.ID, RequirementSnapshotID: &snap.ID})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestGetChecksExistenceBeforeAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addText("A photo gallery")
	h.expectRequirements(1, todoFeatures)
	snap := h.generateRequirements()
	stranger := h.stranger()

	_, err := h.requirements.Get(ctx, stranger, uuid.New(), snap.ID)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = h.requirements.Get(ctx, stranger, h.projectID(), uuid.New())
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = h.requirements.Get(ctx, stranger, h.projectID(), snap.ID)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))

	got, err := h.requirements.Get(ctx, h.owner, h.projectID(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	latest, err := h.requirements.Latest(ctx, h.owner, h.projectID())
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)

	_, err = h.estimates.Latest(ctx, h.owner, h.projectID())
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestLineItemRowsMatchTitles(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	features := []models.FeatureItem{{ID: a, Title: "Login"}, {ID: b, Title: " Search  "}, {ID: uuid.New(), Title: "login"}}
	rows, matched := lineItemRows(uuid.New(), []ai.LineItem{{Name: "LOGIN"}, {Name: "search"}, {Name: "Hosting"}}, features)

	require.Len(t, rows, 3)
	assert.Equal(t, 2, matched)
	assert.Equal(t, a, *rows[0].FeatureItemID)
	assert.Equal(t, b, *rows[1].FeatureItemID)
	assert.Nil(t, rows[2].FeatureItemID)
	assert.Equal(t, 2, rows[2].SortOrder)
}

func countRows(t *testing.T, h *harness, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Count(&n).Error)
	return n
}

func TestListAIRunsIsGated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, task := range []string{"structure_requirements", "extract_features"} {
		require.NoError(t, h.db.Create(&models.AIRun{
			Task:           task,
			Provider:       "mock",
			OrganizationID: h.tenant.Org.ID,
			ProjectID:      h.projectID(),
			UserID:         h.owner.UserID,
			Status:         models.AIRunSucceeded,
		}).Error)
	}

	page, err := h.activity.ListAIRuns(ctx, h.owner, h.projectID(), pagination.New(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(2), page.Meta.Total)

	_, err = h.activity.ListAIRuns(ctx, h.stranger(), h.projectID(), pagination.New(1, 10))
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}
