package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserFlowService interface {
	Generate(ctx context.Context, caller auth.Caller, in GenerateFromRequirementsInput) (*models.UserFlowSnapshot, error)
	List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.UserFlowSnapshot], error)
	Latest(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*models.UserFlowSnapshot, error)
	Get(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID) (*models.UserFlowSnapshot, error)
}

type userFlowService struct {
	pipeline
	snapshotReader[models.UserFlowSnapshot]
	requirements repository.SnapshotRepository[models.RequirementSnapshot]
}

func NewUserFlowService(deps Deps, flows repository.SnapshotRepository[models.UserFlowSnapshot], requirements repository.SnapshotRepository[models.RequirementSnapshot]) UserFlowService {
	return &userFlowService{
		pipeline: pipeline{Deps: deps, family: models.FamilyUserFlow},
		snapshotReader: snapshotReader[models.UserFlowSnapshot]{
			projects:  deps.Projects,
			access:    deps.Access,
			repo:      flows,
			projectOf: userFlowProject,
		},
		requirements: requirements,
	}
}

var _ UserFlowService = (*userFlowService)(nil)

func (s *userFlowService) Generate(ctx context.Context, caller auth.Caller, in GenerateFromRequirementsInput) (snap *models.UserFlowSnapshot, err error) {
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

	res, err := s.Gateway.GenerateUserFlows(ctx, ai.UserFlowsRequest{
		Structured:  req.StructuredJSON.Data(),
		Features:    ai.FeaturesFromItems(req.Features),
		Instruction: in.Instruction,
		Audit:       s.audit(project, caller),
	})
	if err != nil {
		return nil, err
	}

	var created models.UserFlowSnapshot
	version, err = s.commit(ctx, project, caller, func(tx *gorm.DB, v int) (string, models.ActivityPayload, error) {
		created = models.UserFlowSnapshot{
			ProjectID:             project.ID,
			Version:               v,
			RequirementSnapshotID: req.ID,
			AIRunID:               res.RunID,
			CreatedByID:           caller.UserID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return "", nil, err
		}
		rows := make([]models.UserFlow, 0, len(res.Flows))
		for i, f := range res.Flows {
			rows = append(rows, models.UserFlow{
				UserFlowSnapshotID: created.ID,
				Name:               f.Name,
				Actor:              f.Actor,
				Description:        f.Description,
				Steps:              datatypes.NewJSONSlice(nonNil(f.Steps)),
				OrderIndex:         i,
			})
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return "", nil, err
			}
		}
		return fmt.Sprintf("Generated %d user flows (v%d) from requirements v%d", len(rows), v, req.Version),
			models.UserFlowsGeneratedPayload{
				SnapshotID:            created.ID,
				Version:               v,
				RequirementSnapshotID: req.ID,
				AIRunIDs:              []string{res.RunID},
				FlowCount:             len(rows),
			}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, created.ID)
}

func userFlowProject(s *models.UserFlowSnapshot) uuid.UUID { return s.ProjectID }
