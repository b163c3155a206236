package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/gorm"
)

type AIRunRepository interface {
	BaseRepository[models.AIRun]
	ListByProject(ctx context.Context, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.AIRun], error)
}

type aiRunRepository struct {
	BaseRepository[models.AIRun]
	db *gorm.DB
}

func NewAIRunRepository(db *gorm.DB) AIRunRepository {
	return &aiRunRepository{BaseRepository: NewBaseRepository[models.AIRun](db, "ai run"), db: db}
}

func (r *aiRunRepository) ListByProject(ctx context.Context, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.AIRun], error) {
	q := r.db.WithContext(ctx).Model(&models.AIRun{}).Where("project_id = ?", projectID)
	page, err := paginate[models.AIRun](q, p, "created_at DESC")
	if err != nil {
		return page, appErr.Wrap(err, appErr.CodeInternal, "list ai runs failed")
	}
	return page, nil
}
