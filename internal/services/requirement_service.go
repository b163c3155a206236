package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/logger"
	"github.com/scopeforge/engine/pkg/pagination"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RequirementService interface {
	Generate(ctx context.Context, caller auth.Caller, in GenerateRequirementsInput) (*models.RequirementSnapshot, error)
	Update(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID, in UpdateRequirementInput) (*models.RequirementSnapshot, error)
	List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.RequirementSnapshot], error)
	Latest(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*models.RequirementSnapshot, error)
	Get(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID) (*models.RequirementSnapshot, error)
}

type GenerateRequirementsInput struct {
	ProjectID uuid.UUID
	// InputIDs restricts generation to these inputs. Empty means every text input.
	InputIDs    []uuid.UUID
	Instruction string
}

// UpdateRequirementInput replaces content fields. Nil fields are left unchanged.
type UpdateRequirementInput struct {
	StructuredJSON *models.StructuredRequirements
	Assumptions    *[]string
	Status         *models.RequirementStatus
}

type requirementService struct {
	pipeline
	snapshotReader[models.RequirementSnapshot]
	inputs   repository.InputRepository
	validate *validator.Validate
}

func NewRequirementService(deps Deps, requirements repository.SnapshotRepository[models.RequirementSnapshot], inputs repository.InputRepository) RequirementService {
	return &requirementService{
		pipeline: pipeline{Deps: deps, family: models.FamilyRequirement},
		snapshotReader: snapshotReader[models.RequirementSnapshot]{
			projects:  deps.Projects,
			access:    deps.Access,
			repo:      requirements,
			projectOf: func(s *models.RequirementSnapshot) uuid.UUID { return s.ProjectID },
		},
		inputs:   inputs,
		validate: validator.New(),
	}
}

var _ RequirementService = (*requirementService)(nil)

func (s *requirementService) Generate(ctx context.Context, caller auth.Caller, in GenerateRequirementsInput) (snap *models.RequirementSnapshot, err error) {
	start := time.Now()
	version := 0
	defer func() { s.observe(ctx, in.ProjectID, start, version, err) }()

	project, err := s.project(ctx, in.ProjectID, caller)
	if err != nil {
		return nil, err
	}

	sources, err := s.gatherInputs(ctx, project.ID, in.InputIDs)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(sources))
	for _, src := range sources {
		texts = append(texts, src.Content)
	}

	audit := s.audit(project, caller)
	structured, err := s.Gateway.StructureRequirements(ctx, ai.StructureRequirementsRequest{
		Texts:       texts,
		Instruction: in.Instruction,
		Audit:       audit,
	})
	if err != nil {
		return nil, err
	}
	extracted, err := s.Gateway.ExtractFeatures(ctx, ai.ExtractFeaturesRequest{
		Structured: structured.Structured,
		Audit:      audit,
	})
	if err != nil {
		return nil, err
	}

	sourceID := sources[len(sources)-1].ID
	var created models.RequirementSnapshot
	version, err = s.commit(ctx, project, caller, func(tx *gorm.DB, v int) (string, models.ActivityPayload, error) {
		created = models.RequirementSnapshot{
			ProjectID:      project.ID,
			Version:        v,
			StructuredJSON: datatypes.NewJSONType(structured.Structured),
			Assumptions:    datatypes.NewJSONSlice(nonNil(structured.Assumptions)),
			Status:         models.RequirementStatusDraft,
			SourceInputID:  &sourceID,
			AIRunID:        structured.RunID,
			FeatureRunID:   extracted.RunID,
			CreatedByID:    caller.UserID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return "", nil, err
		}
		items := make([]models.FeatureItem, 0, len(extracted.Features))
		for i, f := range extracted.Features {
			items = append(items, models.FeatureItem{
				RequirementSnapshotID: created.ID,
				Title:                 f.Title,
				Description:           f.Description,
				Priority:              f.Priority,
				Complexity:            f.Complexity,
				OrderIndex:            i,
			})
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return "", nil, err
			}
		}
		summary := fmt.Sprintf("Generated requirements v%d with %d features from %d inputs", v, len(items), len(sources))
		return summary, models.RequirementGeneratedPayload{
			SnapshotID:   created.ID,
			Version:      v,
			AIRunIDs:     []string{structured.RunID, extracted.RunID},
			FeatureCount: len(items),
			InputCount:   len(sources),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, created.ID)
}

// gatherInputs returns the text inputs to structure, deduplicated by content hash.
func (s *requirementService) gatherInputs(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) ([]models.ProjectInput, error) {
	var candidates []models.ProjectInput
	if len(ids) > 0 {
		for _, id := range ids {
			var in models.ProjectInput
			if err := s.inputs.GetByID(ctx, id, &in); err != nil {
				return nil, err
			}
			if in.ProjectID != projectID {
				return nil, appErr.New(appErr.CodeNotFound, "input not found")
			}
			if !in.Type.IsTextual() {
				return nil, appErr.Newf(appErr.CodeBadRequest, "Input %s is a %s input. Only TEXT and TRANSCRIPT inputs can be structured.", in.ID, in.Type)
			}
			candidates = append(candidates, in)
		}
	} else {
		all, err := s.inputs.ListTextual(ctx, projectID)
		if err != nil {
			return nil, err
		}
		candidates = all
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]models.ProjectInput, 0, len(candidates))
	for _, in := range candidates {
		if strings.TrimSpace(in.Content) == "" || seen[in.ContentHash] {
			continue
		}
		seen[in.ContentHash] = true
		out = append(out, in)
	}
	if len(out) == 0 {
		return nil, appErr.New(appErr.CodeBadRequest, "No text inputs found. Add a TEXT or TRANSCRIPT input first.").
			WithMeta("missing", "input")
	}
	return out, nil
}

func (s *requirementService) Update(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID, in UpdateRequirementInput) (*models.RequirementSnapshot, error) {
	logger.FromContext(ctx).Info("update requirement snapshot", zap.String("project_id", projectID.String()), zap.String("snapshot_id", id.String()))

	project, snap, err := s.load(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if err := s.Access.Require(ctx, project, caller); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	var changed []string
	if in.StructuredJSON != nil {
		if err := s.validate.Struct(in.StructuredJSON); err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid structured requirements")
		}
		updates["structured_json"] = datatypes.NewJSONType(*in.StructuredJSON)
		changed = append(changed, "structuredJson")
	}
	if in.Assumptions != nil {
		updates["assumptions"] = datatypes.NewJSONSlice(nonNil(*in.Assumptions))
		changed = append(changed, "assumptions")
	}
	if in.Status != nil {
		switch *in.Status {
		case models.RequirementStatusDraft, models.RequirementStatusInReview, models.RequirementStatusApproved:
		default:
			return nil, appErr.Newf(appErr.CodeInvalid, "unknown requirement status %q", *in.Status)
		}
		updates["status"] = *in.Status
		changed = append(changed, "status")
	}
	if len(updates) == 0 {
		return nil, appErr.New(appErr.CodeBadRequest, "Nothing to update")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RequirementSnapshot{}).Where("id = ?", snap.ID).Updates(updates).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "update requirement snapshot failed")
		}
		_, err := s.Activity.Record(tx, ActivityEntry{
			OrganizationID: project.OrganizationID,
			ProjectID:      project.ID,
			ActorUserID:    caller.UserID,
			Summary:        fmt.Sprintf("Updated requirements v%d (%s)", snap.Version, strings.Join(changed, ", ")),
			Payload: models.RequirementUpdatedPayload{
				SnapshotID:    snap.ID,
				Version:       snap.Version,
				ChangedFields: changed,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, snap.ID)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
