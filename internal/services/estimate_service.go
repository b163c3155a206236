package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EstimateService interface {
	Generate(ctx context.Context, caller auth.Caller, in GenerateEstimateInput) (*models.EstimateSnapshot, error)
	// RegenerateSection rewrites one section of an existing estimate in place. The
	// version and every other section are left unchanged.
	RegenerateSection(ctx context.Context, caller auth.Caller, in RegenerateSectionInput) (*models.EstimateSnapshot, error)
	List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.EstimateSnapshot], error)
	Latest(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*models.EstimateSnapshot, error)
	Get(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID) (*models.EstimateSnapshot, error)
}

type GenerateEstimateInput struct {
	ProjectID uuid.UUID
	// RequirementSnapshotID pins the upstream snapshot. Nil picks the latest.
	RequirementSnapshotID *uuid.UUID
	Instruction           string
}

type RegenerateSectionInput struct {
	ProjectID   uuid.UUID
	EstimateID  uuid.UUID
	Section     models.EstimateSection
	Instruction string
}

type estimateService struct {
	pipeline
	snapshotReader[models.EstimateSnapshot]
	requirements repository.SnapshotRepository[models.RequirementSnapshot]
}

func NewEstimateService(deps Deps, estimates repository.SnapshotRepository[models.EstimateSnapshot], requirements repository.SnapshotRepository[models.RequirementSnapshot]) EstimateService {
	return &estimateService{
		pipeline: pipeline{Deps: deps, family: models.FamilyEstimate},
		snapshotReader: snapshotReader[models.EstimateSnapshot]{
			projects:  deps.Projects,
			access:    deps.Access,
			repo:      estimates,
			projectOf: func(s *models.EstimateSnapshot) uuid.UUID { return s.ProjectID },
		},
		requirements: requirements,
	}
}

var _ EstimateService = (*estimateService)(nil)

func (s *estimateService) Generate(ctx context.Context, caller auth.Caller, in GenerateEstimateInput) (snap *models.EstimateSnapshot, err error) {
	start := time.Now()
	version := 0
	defer func() { s.observe(ctx, in.ProjectID, start, version, err) }()

	project, err := s.project(ctx, in.ProjectID, caller)
	if err != nil {
		return nil, err
	}
	req, err := resolveUpstream(ctx, s.requirements, project.ID, in.RequirementSnapshotID, requirementProject)
	if err != nil {
		return nil, err
	}
	if len(req.Features) == 0 {
		return nil, noFeatures(req)
	}

	res, err := s.Gateway.EstimateTimelineAndCost(ctx, ai.EstimateRequest{
		Structured:  req.StructuredJSON.Data(),
		Features:    ai.FeaturesFromItems(req.Features),
		Currency:    project.Currency,
		Instruction: in.Instruction,
		Audit:       s.audit(project, caller),
	})
	if err != nil {
		return nil, err
	}
	est := res.Estimation

	var created models.EstimateSnapshot
	version, err = s.commit(ctx, project, caller, func(tx *gorm.DB, v int) (string, models.ActivityPayload, error) {
		created = models.EstimateSnapshot{
			ProjectID:             project.ID,
			Version:               v,
			RequirementSnapshotID: req.ID,
			Currency:              project.Currency,
			TimelineMinDays:       est.TimelineMinDays,
			TimelineMaxDays:       est.TimelineMaxDays,
			CostMin:               est.CostMin,
			CostMax:               est.CostMax,
			ConfidenceScore:       est.ConfidenceScore,
			Assumptions:           datatypes.NewJSONSlice(nonNil(est.Assumptions)),
			Breakdown:             datatypes.NewJSONType(breakdownOf(est, project.Currency)),
			AIProvider:            s.Gateway.Provider(),
			AIRunID:               res.RunID,
			CreatedByID:           caller.UserID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return "", nil, err
		}
		items, matched := lineItemRows(created.ID, est.LineItems, req.Features)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return "", nil, err
			}
		}
		summary := fmt.Sprintf("Generated estimate v%d from requirements v%d: %d-%d days, %s %.2f-%.2f",
			v, req.Version, est.TimelineMinDays, est.TimelineMaxDays, project.Currency, est.CostMin, est.CostMax)
		return summary, models.EstimateGeneratedPayload{
			SnapshotID:            created.ID,
			Version:               v,
			RequirementSnapshotID: req.ID,
			AIRunIDs:              []string{res.RunID},
			LineItemCount:         len(items),
			MatchedFeatureCount:   matched,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, created.ID)
}

func (s *estimateService) RegenerateSection(ctx context.Context, caller auth.Caller, in RegenerateSectionInput) (*models.EstimateSnapshot, error) {
	project, est, err := s.load(ctx, in.ProjectID, in.EstimateID)
	if err != nil {
		return nil, err
	}
	if err := s.Access.Require(ctx, project, caller); err != nil {
		return nil, err
	}
	if !in.Section.Valid() {
		return nil, appErr.Newf(appErr.CodeBadRequest, "Unknown estimate section %q. Use timeline, cost, assumptions or line_items.", in.Section)
	}
	req, err := s.requirements.GetByID(ctx, est.RequirementSnapshotID)
	if err != nil {
		return nil, err
	}

	res, err := s.Gateway.RegenerateEstimateSection(ctx, ai.RegenerateSectionRequest{
		Section:     in.Section,
		Current:     est.Breakdown.Data(),
		Structured:  req.StructuredJSON.Data(),
		Features:    ai.FeaturesFromItems(req.Features),
		Currency:    est.Currency,
		Instruction: in.Instruction,
		Audit:       s.audit(project, caller),
	})
	if err != nil {
		return nil, err
	}

	if (in.Section == models.SectionTimeline && res.Timeline == nil) || (in.Section == models.SectionCost && res.Cost == nil) {
		return nil, appErr.Newf(appErr.CodeUpstreamFailure, "AI reply lacks the %s section", in.Section)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, project.ID); err != nil {
			return err
		}
		// Re-read under the project lock so a concurrent regeneration of
		// another section is merged rather than overwritten.
		var fresh models.EstimateSnapshot
		if err := tx.First(&fresh, "id = ?", est.ID).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "reload estimate failed")
		}
		updates := sectionUpdates(&fresh, in.Section, res)
		if err := tx.Model(&models.EstimateSnapshot{}).Where("id = ?", est.ID).Updates(updates).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "update estimate failed")
		}
		if in.Section == models.SectionLineItems {
			if err := tx.Where("estimate_snapshot_id = ?", est.ID).Delete(&models.EstimateLineItem{}).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "replace line items failed")
			}
			items, _ := lineItemRows(est.ID, res.LineItems, req.Features)
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return appErr.Wrap(err, appErr.CodeInternal, "replace line items failed")
				}
			}
		}
		_, err := s.Activity.Record(tx, ActivityEntry{
			OrganizationID: project.OrganizationID,
			ProjectID:      project.ID,
			ActorUserID:    caller.UserID,
			Summary:        fmt.Sprintf("Regenerated the %s section of estimate v%d", in.Section, est.Version),
			Payload: models.EstimateSectionRegeneratedPayload{
				SnapshotID: est.ID,
				Version:    est.Version,
				Section:    in.Section,
				AIRunIDs:   []string{res.RunID},
			},
		})
		if err != nil {
			return activityError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, est.ID)
}

// sectionUpdates applies one regenerated section to est's breakdown and
// returns the column updates that keep the mirrored fields in step.
func sectionUpdates(est *models.EstimateSnapshot, section models.EstimateSection, res *ai.SectionResult) map[string]any {
	breakdown := est.Breakdown.Data()
	updates := map[string]any{}
	switch section {
	case models.SectionTimeline:
		breakdown.Timeline = *res.Timeline
		updates["timeline_min_days"] = res.Timeline.MinDays
		updates["timeline_max_days"] = res.Timeline.MaxDays
	case models.SectionCost:
		breakdown.Cost = *res.Cost
		if breakdown.Cost.Currency == "" {
			breakdown.Cost.Currency = est.Currency
		}
		updates["cost_min"] = res.Cost.Min
		updates["cost_max"] = res.Cost.Max
	case models.SectionAssumptions:
		breakdown.Assumptions = nonNil(res.Assumptions)
		updates["assumptions"] = datatypes.NewJSONSlice(breakdown.Assumptions)
	case models.SectionLineItems:
		breakdown.LineItems = lineItemEstimates(res.LineItems)
	}
	updates["breakdown"] = datatypes.NewJSONType(breakdown)
	return updates
}

func requirementProject(s *models.RequirementSnapshot) uuid.UUID { return s.ProjectID }

func noFeatures(req *models.RequirementSnapshot) error {
	return appErr.Newf(appErr.CodeBadRequest, "Requirement snapshot v%d has no features. Generate requirements first.", req.Version).
		WithMeta("missing", "features")
}

func breakdownOf(est ai.Estimation, currency string) models.EstimateBreakdown {
	return models.EstimateBreakdown{
		Timeline: models.TimelineSection{
			MinDays: est.TimelineMinDays,
			MaxDays: est.TimelineMaxDays,
			Phases:  est.Phases,
		},
		Cost:        models.CostSection{Currency: currency, Min: est.CostMin, Max: est.CostMax},
		Assumptions: nonNil(est.Assumptions),
		LineItems:   lineItemEstimates(est.LineItems),
	}
}

func lineItemEstimates(in []ai.LineItem) []models.LineItemEstimate {
	out := make([]models.LineItemEstimate, 0, len(in))
	for _, li := range in {
		out = append(out, models.LineItemEstimate{
			Name:        li.Name,
			Description: li.Description,
			HoursMin:    li.HoursMin,
			HoursMax:    li.HoursMax,
			CostMin:     li.CostMin,
			CostMax:     li.CostMax,
		})
	}
	return out
}

// lineItemRows builds line item rows in AI order and links each to the feature whose
// title matches case-insensitively after trimming. It returns the number linked.
func lineItemRows(estimateID uuid.UUID, in []ai.LineItem, features []models.FeatureItem) ([]models.EstimateLineItem, int) {
	byTitle := make(map[string]uuid.UUID, len(features))
	for _, f := range features {
		key := titleKey(f.Title)
		if _, dup := byTitle[key]; !dup {
			byTitle[key] = f.ID
		}
	}
	rows := make([]models.EstimateLineItem, 0, len(in))
	matched := 0
	for i, li := range in {
		row := models.EstimateLineItem{
			EstimateSnapshotID: estimateID,
			Name:               li.Name,
			Description:        li.Description,
			HoursMin:           li.HoursMin,
			HoursMax:           li.HoursMax,
			CostMin:            li.CostMin,
			CostMax:            li.CostMax,
			SortOrder:          i,
		}
		if id, ok := byTitle[titleKey(li.Name)]; ok {
			fid := id
			row.FeatureItemID = &fid
			matched++
		}
		rows = append(rows, row)
	}
	return rows, matched
}

func titleKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
