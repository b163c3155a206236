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
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WireframeService interface {
	Generate(ctx context.Context, caller auth.Caller, in GenerateWireframesInput) (*models.WireframeSnapshot, error)
	List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.WireframeSnapshot], error)
	Latest(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*models.WireframeSnapshot, error)
	Get(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID) (*models.WireframeSnapshot, error)
}

type GenerateWireframesInput struct {
	ProjectID uuid.UUID
	// UserFlowSnapshotID pins the upstream snapshot. Nil picks the latest.
	UserFlowSnapshotID *uuid.UUID
	Instruction        string
}

type wireframeService struct {
	pipeline
	snapshotReader[models.WireframeSnapshot]
	flows repository.SnapshotRepository[models.UserFlowSnapshot]
}

func NewWireframeService(deps Deps, wireframes repository.SnapshotRepository[models.WireframeSnapshot], flows repository.SnapshotRepository[models.UserFlowSnapshot]) WireframeService {
	return &wireframeService{
		pipeline: pipeline{Deps: deps, family: models.FamilyWireframe},
		snapshotReader: snapshotReader[models.WireframeSnapshot]{
			projects:  deps.Projects,
			access:    deps.Access,
			repo:      wireframes,
			projectOf: func(s *models.WireframeSnapshot) uuid.UUID { return s.ProjectID },
		},
		flows: flows,
	}
}

var _ WireframeService = (*wireframeService)(nil)

func (s *wireframeService) Generate(ctx context.Context, caller auth.Caller, in GenerateWireframesInput) (snap *models.WireframeSnapshot, err error) {
	start := time.Now()
	version := 0
	defer func() { s.observe(ctx, in.ProjectID, start, version, err) }()

	project, err := s.project(ctx, in.ProjectID, caller)
	if err != nil {
		return nil, err
	}
	flows, err := resolveUpstream(ctx, s.flows, project.ID, in.UserFlowSnapshotID, userFlowProject)
	if err != nil {
		return nil, err
	}
	if len(flows.Flows) == 0 {
		return nil, appErr.Newf(appErr.CodeBadRequest, "User flow snapshot v%d has no flows. Generate user flows first.", flows.Version).
			WithMeta("missing", "flows")
	}

	res, err := s.Gateway.GenerateWireframes(ctx, ai.WireframesRequest{
		Flows:       ai.FlowsFromRows(flows.Flows),
		Instruction: in.Instruction,
		Audit:       s.audit(project, caller),
	})
	if err != nil {
		return nil, err
	}

	var created models.WireframeSnapshot
	version, err = s.commit(ctx, project, caller, func(tx *gorm.DB, v int) (string, models.ActivityPayload, error) {
		created = models.WireframeSnapshot{
			ProjectID:          project.ID,
			Version:            v,
			UserFlowSnapshotID: flows.ID,
			AIRunID:            res.RunID,
			CreatedByID:        caller.UserID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return "", nil, err
		}
		rows := make([]models.WireframeScreen, 0, len(res.Screens))
		for i, sc := range res.Screens {
			rows = append(rows, models.WireframeScreen{
				WireframeSnapshotID: created.ID,
				Name:                sc.Name,
				FlowName:            sc.FlowName,
				Purpose:             sc.Purpose,
				Components:          datatypes.NewJSONSlice(nonNil(sc.Components)),
				Layout:              sc.Layout,
				OrderIndex:          i,
			})
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return "", nil, err
			}
		}
		return fmt.Sprintf("Generated %d wireframe screens (v%d) from user flows v%d", len(rows), v, flows.Version),
			models.WireframesGeneratedPayload{
				SnapshotID:         created.ID,
				Version:            v,
				UserFlowSnapshotID: flows.ID,
				AIRunIDs:           []string{res.RunID},
				ScreenCount:        len(rows),
			}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, created.ID)
}
