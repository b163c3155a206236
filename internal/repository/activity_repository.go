package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/gorm"
)

// ActivityRepository reads the append-only project activity log.
type ActivityRepository interface {
	ListByProject(ctx context.Context, projectID uuid.UUID, eventType models.EventType, p pagination.Params) (pagination.Page[models.ProjectActivity], error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) ListByProject(ctx context.Context, projectID uuid.UUID, eventType models.EventType, p pagination.Params) (pagination.Page[models.ProjectActivity], error) {
	q := r.db.WithContext(ctx).Model(&models.ProjectActivity{}).Where("project_id = ?", projectID)
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}
	page, err := paginate[models.ProjectActivity](q, p, "created_at DESC")
	if err != nil {
		return page, appErr.Wrap(err, appErr.CodeInternal, "list activities failed")
	}
	return page, nil
}
