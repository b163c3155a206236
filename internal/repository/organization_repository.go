package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	BaseRepository[models.Organization]
	GetBySlug(ctx context.Context, slug string, dest *models.Organization) error
	// FindMember returns nil without error when the user has no membership row.
	FindMember(ctx context.Context, organizationID, userID uuid.UUID) (*models.OrganizationMember, error)
	CreateMember(ctx context.Context, m *models.OrganizationMember) error
	UpdateMember(ctx context.Context, m *models.OrganizationMember) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Organization, error)
}

type organizationRepository struct {
	BaseRepository[models.Organization]
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{BaseRepository: NewBaseRepository[models.Organization](db, "organization"), db: db}
}

func (r *organizationRepository) GetBySlug(ctx context.Context, slug string, dest *models.Organization) error {
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(dest).Error; err != nil {
		return readError(err, "organization")
	}
	return nil
}

func (r *organizationRepository) FindMember(ctx context.Context, organizationID, userID uuid.UUID) (*models.OrganizationMember, error) {
	var m models.OrganizationMember
	err := r.db.WithContext(ctx).Where("organization_id = ? AND user_id = ?", organizationID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get organization member failed")
	}
	return &m, nil
}

func (r *organizationRepository) CreateMember(ctx context.Context, m *models.OrganizationMember) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return writeError(err, "create organization member failed")
	}
	return nil
}

func (r *organizationRepository) UpdateMember(ctx context.Context, m *models.OrganizationMember) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return writeError(err, "update organization member failed")
	}
	return nil
}

func (r *organizationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Organization, error) {
	var out []models.Organization
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.OrganizationMember{}).Select("organization_id").
			Where("user_id = ? AND invite_status = ?", userID, models.InviteStatusAccepted)).
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list organizations failed")
	}
	return out, nil
}
