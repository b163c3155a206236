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

type ProjectRepository interface {
	BaseRepository[models.Project]
	// ListVisible returns projects the user reaches through a project membership or an
	// accepted organization membership. all skips the membership filter.
	ListVisible(ctx context.Context, userID uuid.UUID, organizationID *uuid.UUID, all bool, p pagination.Params) (pagination.Page[models.Project], error)
	// FindMember returns nil without error when the user has no project membership.
	FindMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error)
	CreateMember(ctx context.Context, m *models.ProjectMember) error
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error)
}

type projectRepository struct {
	BaseRepository[models.Project]
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{BaseRepository: NewBaseRepository[models.Project](db, "project"), db: db}
}

func (r *projectRepository) ListVisible(ctx context.Context, userID uuid.UUID, organizationID *uuid.UUID, all bool, p pagination.Params) (pagination.Page[models.Project], error) {
	q := r.db.WithContext(ctx).Model(&models.Project{})
	if organizationID != nil {
		q = q.Where("organization_id = ?", *organizationID)
	}
	if !all {
		memberOf := r.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)
		orgsOf := r.db.Model(&models.OrganizationMember{}).Select("organization_id").
			Where("user_id = ? AND invite_status = ?", userID, models.InviteStatusAccepted)
		q = q.Where(r.db.Where("id IN (?)", memberOf).Or("organization_id IN (?)", orgsOf))
	}
	page, err := paginate[models.Project](q, p, "created_at DESC")
	if err != nil {
		return page, appErr.Wrap(err, appErr.CodeInternal, "list projects failed")
	}
	return page, nil
}

func (r *projectRepository) FindMember(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectMember, error) {
	var m models.ProjectMember
	err := r.db.WithContext(ctx).Where("project_id = ? AND user_id = ?", projectID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get project member failed")
	}
	return &m, nil
}

func (r *projectRepository) CreateMember(ctx context.Context, m *models.ProjectMember) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return writeError(err, "create project member failed")
	}
	return nil
}

func (r *projectRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error) {
	var out []models.ProjectMember
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list project members failed")
	}
	return out, nil
}
