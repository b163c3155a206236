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

type TechStackService interface {
	Generate(ctx context.Context, caller auth.Caller, in GenerateFromRequirementsInput) (*models.TechStackRecommendation, error)
	List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.TechStackRecommendation], error)
	Latest(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*models.TechStackRecommendation, error)
	Get(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID) (*models.TechStackRecommendation, error)
}

// GenerateFromRequirementsInput conditions a generation on a requirement snapshot.
type GenerateFromRequirementsInput struct {
	ProjectID uuid.UUID
	// RequirementSnapshotID pins the upstream snapshot. Nil picks the latest.
	RequirementSnapshotID *uuid.UUID
	Instruction           string
}

type techStackService struct {
	pipeline
	snapshotReader[models.TechStackRecommendation]
	requirements repository.SnapshotRepository[models.RequirementSnapshot]
}

func NewTechStackService(deps Deps, stacks repository.SnapshotRepository[models.TechStackRecommendation], requirements repository.SnapshotRepository[models.RequirementSnapshot]) TechStackService {
	return &techStackService{
		pipeline: pipeline{Deps: deps, family: models.FamilyTechStack},
		snapshotReader: snapshotReader[models.TechStackRecommendation]{
			projects:  deps.Projects,
			access:    deps.Access,
			repo:      stacks,
			projectOf: func(s *models.TechStackRecommendation) uuid.UUID { return s.ProjectID },
		},
		requirements: requirements,
	}
}

var _ TechStackService = (*techStackService)(nil)

func (s *techStackService) Generate(ctx context.Context, caller auth.Caller, in GenerateFromRequirementsInput) (rec *models.TechStackRecommendation, err error) {
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

	res, err := s.Gateway.RecommendTechStack(ctx, ai.TechStackRequest{
		Structured:  req.StructuredJSON.Data(),
		Features:    ai.FeaturesFromItems(req.Features),
		Instruction: in.Instruction,
		Audit:       s.audit(project, caller),
	})
	if err != nil {
		return nil, err
	}
	stack := res.Stack

	var created models.TechStackRecommendation
	version, err = s.commit(ctx, project, caller, func(tx *gorm.DB, v int) (string, models.ActivityPayload, error) {
		created = models.TechStackRecommendation{
			ProjectID:             project.ID,
			Version:               v,
			RequirementSnapshotID: req.ID,
			Frontend:              datatypes.NewJSONSlice(nonNil(stack.Frontend)),
			Backend:               datatypes.NewJSONSlice(nonNil(stack.Backend)),
			Database:              datatypes.NewJSONSlice(nonNil(stack.Database)),
			Infrastructure:        datatypes.NewJSONSlice(nonNil(stack.Infrastructure)),
			Integrations:          datatypes.NewJSONSlice(nonNil(stack.Integrations)),
			Rationale:             stack.Rationale,
			AIRunID:               res.RunID,
			CreatedByID:           caller.UserID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Generated tech stack v%d from requirements v%d", v, req.Version),
			models.TechStackGeneratedPayload{
				SnapshotID:            created.ID,
				Version:               v,
				RequirementSnapshotID: req.ID,
				AIRunIDs:              []string{res.RunID},
			}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, created.ID)
}
