package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"github.com/scopeforge/engine/pkg/utils"
	"gorm.io/gorm"
)

type InputService interface {
	Add(ctx context.Context, caller auth.Caller, projectID uuid.UUID, in AddInputInput) (*models.ProjectInput, error)
	List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.ProjectInput], error)
}

type AddInputInput struct {
	Type    models.InputType
	Content string
}

type inputService struct {
	db       *gorm.DB
	projects repository.ProjectRepository
	inputs   repository.InputRepository
	access   AccessResolver
	activity ActivityRecorder
}

func NewInputService(db *gorm.DB, projects repository.ProjectRepository, inputs repository.InputRepository, access AccessResolver, activity ActivityRecorder) InputService {
	return &inputService{db: db, projects: projects, inputs: inputs, access: access, activity: activity}
}

var _ InputService = (*inputService)(nil)

// Add stores a raw input and moves a DRAFT project to INPUT_COLLECTION.
func (s *inputService) Add(ctx context.Context, caller auth.Caller, projectID uuid.UUID, in AddInputInput) (*models.ProjectInput, error) {
	project, err := loadProject(ctx, s.projects, s.access, projectID, caller)
	if err != nil {
		return nil, err
	}
	switch in.Type {
	case models.InputTypeText, models.InputTypeTranscript, models.InputTypeURL, models.InputTypeFile:
	default:
		return nil, appErr.Newf(appErr.CodeInvalid, "unknown input type %q", in.Type)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, appErr.New(appErr.CodeInvalid, "input content is empty")
	}

	hash := utils.ContentHash(in.Content)
	dup, err := s.inputs.FindByHash(ctx, project.ID, hash)
	if err != nil {
		return nil, err
	}

	row := &models.ProjectInput{
		ProjectID:   project.ID,
		Type:        in.Type,
		Content:     in.Content,
		ContentHash: hash,
		CreatedByID: caller.UserID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create input failed")
		}
		locked, err := lockProject(tx, project.ID)
		if err != nil {
			return err
		}
		if err := advanceStage(tx, locked, models.StageInputCollection); err != nil {
			return err
		}
		_, err = s.activity.Record(tx, ActivityEntry{
			OrganizationID: project.OrganizationID,
			ProjectID:      project.ID,
			ActorUserID:    caller.UserID,
			Summary:        fmt.Sprintf("Added a %s input", strings.ToLower(string(in.Type))),
			Payload:        models.InputAddedPayload{InputID: row.ID, InputType: in.Type, Duplicate: dup != nil},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *inputService) List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.ProjectInput], error) {
	if _, err := loadProject(ctx, s.projects, s.access, projectID, caller); err != nil {
		return pagination.Page[models.ProjectInput]{}, err
	}
	return s.inputs.ListByProject(ctx, projectID, p)
}
