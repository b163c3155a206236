package services

import (
	"context"
	"sync"
	"testing"

	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedEstimate(t *testing.T, h *harness) *models.EstimateSnapshot {
	t.Helper()
	h.addText("An internal wiki with search")
	h.expectRequirements(1, todoFeatures)
	h.generateRequirements()

	h.gw.On("EstimateTimelineAndCost", mock.Anything, mock.Anything).Return(&ai.EstimateResult{
		Estimation: ai.Estimation{
			TimelineMinDays: 10, TimelineMaxDays: 15, CostMin: 5000, CostMax: 8000, ConfidenceScore: 0.6,
			Assumptions: []string{"Existing SSO"},
			LineItems:   []ai.LineItem{{Name: "Task creation", HoursMin: 4, HoursMax: 8, CostMin: 400, CostMax: 800}},
		},
		RunID: "run-estimate",
	}, nil).Once()
	est, err := h.estimates.Generate(context.Background(), h.owner, GenerateEstimateInput{ProjectID: h.projectID()})
	require.NoError(t, err)
	return est
}

func TestRegenerateCostSectionInPlace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	est := seedEstimate(t, h)

	h.gw.On("RegenerateEstimateSection", mock.Anything, mock.MatchedBy(func(r ai.RegenerateSectionRequest) bool {
		return r.Section == models.SectionCost && r.Current.Cost.Min == 5000 && r.Currency == "USD"
	})).Return(&ai.SectionResult{
		Section: models.SectionCost,
		Cost:    &models.CostSection{Min: 6000, Max: 9000},
		RunID:   "run-section",
	}, nil).Once()

	got, err := h.estimates.RegenerateSection(ctx, h.owner, RegenerateSectionInput{
		ProjectID: h.projectID(), EstimateID: est.ID, Section: models.SectionCost, Instruction: "Assume a senior rate",
	})
	require.NoError(t, err)
	assert.Equal(t, est.Version, got.Version)
	assert.Equal(t, 6000.0, got.CostMin)
	assert.Equal(t, 9000.0, got.CostMax)
	assert.Equal(t, "USD", got.Breakdown.Data().Cost.Currency)
	assert.Equal(t, est.TimelineMinDays, got.TimelineMinDays)
	assert.Equal(t, []string(est.Assumptions), []string(got.Assumptions))
	assert.EqualValues(t, 1, countRows(t, h, &models.EstimateSnapshot{}))

	page, err := h.activity.List(ctx, h.owner, h.projectID(), models.EventEstimateSectionRegenerated, pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
}

func TestConcurrentSectionRegenerationsKeepBothSections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	est := seedEstimate(t, h)

	// Both calls hold in the gateway until each has read the original breakdown.
	var barrier sync.WaitGroup
	barrier.Add(2)
	wait := func(mock.Arguments) {
		barrier.Done()
		barrier.Wait()
	}
	h.gw.On("RegenerateEstimateSection", mock.Anything, mock.MatchedBy(func(r ai.RegenerateSectionRequest) bool {
		return r.Section == models.SectionTimeline
	})).Run(wait).Return(&ai.SectionResult{
		Section:  models.SectionTimeline,
		Timeline: &models.TimelineSection{MinDays: 20, MaxDays: 30},
		RunID:    "run-timeline",
	}, nil).Once()
	h.gw.On("RegenerateEstimateSection", mock.Anything, mock.MatchedBy(func(r ai.RegenerateSectionRequest) bool {
		return r.Section == models.SectionCost
	})).Run(wait).Return(&ai.SectionResult{
		Section: models.SectionCost,
		Cost:    &models.CostSection{Min: 7000, Max: 9000},
		RunID:   "run-cost",
	}, nil).Once()

	sections := []models.EstimateSection{models.SectionTimeline, models.SectionCost}
	errs := make([]error, len(sections))
	var wg sync.WaitGroup
	for i, section := range sections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.estimates.RegenerateSection(ctx, h.owner, RegenerateSectionInput{
				ProjectID: h.projectID(), EstimateID: est.ID, Section: section,
			})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := h.estimates.Get(ctx, h.owner, h.projectID(), est.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.TimelineMinDays)
	assert.Equal(t, 30, got.TimelineMaxDays)
	assert.Equal(t, 7000.0, got.CostMin)
	assert.Equal(t, 9000.0, got.CostMax)

	breakdown := got.Breakdown.Data()
	assert.Equal(t, 20, breakdown.Timeline.MinDays)
	assert.Equal(t, 30, breakdown.Timeline.MaxDays)
	assert.Equal(t, 7000.0, breakdown.Cost.Min)
	assert.Equal(t, 9000.0, breakdown.Cost.Max)
	assert.Equal(t, "USD", breakdown.Cost.Currency)
	assert.Equal(t, []string{"Existing SSO"}, breakdown.Assumptions)
}

func TestRegenerateLineItemsReplacesRows(t *testing.T) {
	h := newHarness(t)
	est := seedEstimate(t, h)
	require.Len(t, est.LineItems, 1)

	h.gw.On("RegenerateEstimateSection", mock.Anything, mock.Anything).Return(&ai.SectionResult{
		Section: models.SectionLineItems,
		LineItems: []ai.LineItem{
			{Name: "Task assignment", HoursMin: 2, HoursMax: 3},
			{Name: "QA", HoursMin: 5, HoursMax: 6},
		},
		RunID: "run-section",
	}, nil).Once()

	got, err := h.estimates.RegenerateSection(context.Background(), h.owner, RegenerateSectionInput{
		ProjectID: h.projectID(), EstimateID: est.ID, Section: models.SectionLineItems,
	})
	require.NoError(t, err)
	require.Len(t, got.LineItems, 2)
	assert.Equal(t, "Task assignment", got.LineItems[0].Name)
	assert.NotNil(t, got.LineItems[0].FeatureItemID)
	assert.Len(t, got.Breakdown.Data().LineItems, 2)
	assert.EqualValues(t, 2, countRows(t, h, &models.EstimateLineItem{}))
}

func TestRegenerateSectionRejectsUnknownSection(t *testing.T) {
	h := newHarness(t)
	est := seedEstimate(t, h)

	_, err := h.estimates.RegenerateSection(context.Background(), h.owner, RegenerateSectionInput{
		ProjectID: h.projectID(), EstimateID: est.ID, Section: "risks",
	})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeBadRequest))
	h.gw.AssertNotCalled(t, "RegenerateEstimateSection", mock.Anything, mock.Anything)
}

func TestRegenerateSectionMissingFromReply(t *testing.T) {
	h := newHarness(t)
	est := seedEstimate(t, h)
	h.gw.On("RegenerateEstimateSection", mock.Anything, mock.Anything).
		Return(&ai.SectionResult{Section: models.SectionTimeline, RunID: "run-section"}, nil).Once()

	_, err := h.estimates.RegenerateSection(context.Background(), h.owner, RegenerateSectionInput{
		ProjectID: h.projectID(), EstimateID: est.ID, Section: models.SectionTimeline,
	})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeUpstreamFailure))
}
