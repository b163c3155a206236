package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"gorm.io/gorm"
)

type InputRepository interface {
	BaseRepository[models.ProjectInput]
	ListByProject(ctx context.Context, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.ProjectInput], error)
	// ListTextual returns the project's TEXT and TRANSCRIPT inputs oldest first.
	ListTextual(ctx context.Context, projectID uuid.UUID) ([]models.ProjectInput, error)
	// FindByHash returns nil without error when no input of the project carries hash.
	FindByHash(ctx context.Context, projectID uuid.UUID, hash string) (*models.ProjectInput, error)
	Count(ctx context.Context, projectID uuid.UUID) (int64, error)
}

type inputRepository struct {
	BaseRepository[models.ProjectInput]
	db *gorm.DB
}

func NewInputRepository(db *gorm.DB) InputRepository {
	return &inputRepository{BaseRepository: NewBaseRepository[models.ProjectInput](db, "input"), db: db}
}

func (r *inputRepository) ListByProject(ctx context.Context, projectID uuid.UUID, p pagination.Params) (pagination.Page[models.ProjectInput], error) {
	q := r.db.WithContext(ctx).Model(&models.ProjectInput{}).Where("project_id = ?", projectID)
	page, err := paginate[models.ProjectInput](q, p, "created_at DESC")
	if err != nil {
		return page, appErr.Wrap(err, appErr.CodeInternal, "list inputs failed")
	}
	return page, nil
}

func (r *inputRepository) ListTextual(ctx context.Context, projectID uuid.UUID) ([]models.ProjectInput, error) {
	var out []models.ProjectInput
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND type IN ?", projectID, []models.InputType{models.InputTypeText, models.InputTypeTranscript}).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list textual inputs failed")
	}
	return out, nil
}

func (r *inputRepository) FindByHash(ctx context.Context, projectID uuid.UUID, hash string) (*models.ProjectInput, error) {
	var in models.ProjectInput
	err := r.db.WithContext(ctx).Where("project_id = ? AND content_hash = ?", projectID, hash).First(&in).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "find input by hash failed")
	}
	return &in, nil
}

func (r *inputRepository) Count(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.ProjectInput{}).Where("project_id = ?", projectID).Count(&n).Error; err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count inputs failed")
	}
	return n, nil
}
