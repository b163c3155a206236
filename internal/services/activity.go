package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityEntry describes one audit event. The event type comes from the payload.
type ActivityEntry struct {
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	ActorUserID    uuid.UUID
	Summary        string
	Payload        models.ActivityPayload
}

// ActivityRecorder appends audit rows inside the caller's transaction.
type ActivityRecorder interface {
	Record(tx *gorm.DB, entry ActivityEntry) (*models.ProjectActivity, error)
}

type activityRecorder struct{}

func NewActivityRecorder() ActivityRecorder { return activityRecorder{} }

func (activityRecorder) Record(tx *gorm.DB, entry ActivityEntry) (*models.ProjectActivity, error) {
	if entry.Payload == nil {
		return nil, appErr.New(appErr.CodeInternal, "activity payload is required")
	}
	b, err := json.Marshal(entry.Payload)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode activity payload failed")
	}
	a := &models.ProjectActivity{
		OrganizationID: entry.OrganizationID,
		ProjectID:      entry.ProjectID,
		ActorUserID:    entry.ActorUserID,
		EventType:      entry.Payload.EventType(),
		Summary:        entry.Summary,
		Payload:        datatypes.JSON(b),
	}
	if err := tx.Create(a).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "record activity failed")
	}
	return a, nil
}

type ActivityService interface {
	List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, eventType models.EventType, p pagination.Params) (pagination.Page[models.ProjectActivity], error)
	// ListAIRuns returns the AI call audit rows of a project, newest first.
	ListAIRuns(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.AIRun], error)
}

type activityService struct {
	projects   repository.ProjectRepository
	activities repository.ActivityRepository
	aiRuns     repository.AIRunRepository
	access     AccessResolver
}

func NewActivityService(projects repository.ProjectRepository, activities repository.ActivityRepository, aiRuns repository.AIRunRepository, access AccessResolver) ActivityService {
	return &activityService{projects: projects, activities: activities, aiRuns: aiRuns, access: access}
}

func (s *activityService) List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, eventType models.EventType, p pagination.Params) (pagination.Page[models.ProjectActivity], error) {
	if _, err := loadProject(ctx, s.projects, s.access, projectID, caller); err != nil {
		return pagination.Page[models.ProjectActivity]{}, err
	}
	return s.activities.ListByProject(ctx, projectID, eventType, p)
}

func (s *activityService) ListAIRuns(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.AIRun], error) {
	if _, err := loadProject(ctx, s.projects, s.access, projectID, caller); err != nil {
		return pagination.Page[models.AIRun]{}, err
	}
	return s.aiRuns.ListByProject(ctx, projectID, p)
}
