package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/logger"
	"github.com/scopeforge/engine/pkg/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectService manages projects and their explicit members.
type ProjectService interface {
	CreateProject(ctx context.Context, caller auth.Caller, input *CreateProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, caller auth.Caller, filters *ProjectFilters) (pagination.Page[models.Project], error)
	AddMember(ctx context.Context, caller auth.Caller, projectID uuid.UUID, input *AddMemberInput) (*models.ProjectMember, error)
	ListMembers(ctx context.Context, caller auth.Caller, projectID uuid.UUID) ([]models.ProjectMember, error)
}

type CreateProjectInput struct {
	OrganizationID uuid.UUID
	Name           string
	Description    string
	Currency       string
}

type ProjectFilters struct {
	OrganizationID *uuid.UUID
	Page           pagination.Params
}

type AddMemberInput struct {
	UserID *uuid.UUID
	Email  string
	Role   models.ProjectRole
}

type projectService struct {
	db          *gorm.DB
	projectRepo repository.ProjectRepository
	orgRepo     repository.OrganizationRepository
	userRepo    repository.UserRepository
	access      AccessResolver
	activity    ActivityRecorder
}

func NewProjectService(db *gorm.DB, projectRepo repository.ProjectRepository, orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, access AccessResolver, activity ActivityRecorder) ProjectService {
	return &projectService{db: db, projectRepo: projectRepo, orgRepo: orgRepo, userRepo: userRepo, access: access, activity: activity}
}

// Ensure interfaces are satisfied at compile time
var _ ProjectService = (*projectService)(nil)

// CreateProject creates a project and makes the caller its owner.
func (s *projectService) CreateProject(ctx context.Context, caller auth.Caller, input *CreateProjectInput) (*models.Project, error) {
	log := logger.FromContext(ctx)
	log.Info("create project called", zap.String("user_id", caller.UserID.String()), zap.String("organization_id", input.OrganizationID.String()))

	var org models.Organization
	if err := s.orgRepo.GetByID(ctx, input.OrganizationID, &org); err != nil {
		return nil, err
	}
	if !caller.IsSuperAdmin() {
		m, err := s.orgRepo.FindMember(ctx, org.ID, caller.UserID)
		if err != nil {
			return nil, err
		}
		if !m.Grants() {
			return nil, appErr.New(appErr.CodeForbidden, "You are not a member of this organization")
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}
	p := &models.Project{
		OrganizationID: org.ID,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Currency:       currency,
		Stage:          models.StageDraft,
		CreatedByID:    caller.UserID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create project failed")
		}
		owner := &models.ProjectMember{ProjectID: p.ID, UserID: caller.UserID, Role: models.ProjectRoleOwner}
		if err := tx.Create(owner).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create project owner failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("project created", zap.String("project_id", p.ID.String()), zap.String("user_id", caller.UserID.String()))
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*models.Project, error) {
	return loadProject(ctx, s.projectRepo, s.access, projectID, caller)
}

func (s *projectService) ListProjects(ctx context.Context, caller auth.Caller, filters *ProjectFilters) (pagination.Page[models.Project], error) {
	logger.FromContext(ctx).Debug("list projects", zap.String("user_id", caller.UserID.String()))
	return s.projectRepo.ListVisible(ctx, caller.UserID, filters.OrganizationID, caller.IsSuperAdmin(), filters.Page)
}

// AddMember grants a user explicit access to the project. Project owners, organization
// owners and admins, and super-admins may add members.
func (s *projectService) AddMember(ctx context.Context, caller auth.Caller, projectID uuid.UUID, input *AddMemberInput) (*models.ProjectMember, error) {
	project, err := loadProject(ctx, s.projectRepo, s.access, projectID, caller)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, project, caller); err != nil {
		return nil, err
	}

	var user models.User
	switch {
	case input.UserID != nil:
		err = s.userRepo.GetByID(ctx, *input.UserID, &user)
	case input.Email != "":
		err = s.userRepo.GetByEmail(ctx, input.Email, &user)
	default:
		err = appErr.New(appErr.CodeInvalid, "userId or email is required")
	}
	if err != nil {
		return nil, err
	}

	m := &models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: input.Role}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return appErr.Wrap(err, appErr.CodeConflict, "User is already a member of this project")
			}
			return appErr.Wrap(err, appErr.CodeInternal, "add project member failed")
		}
		_, err := s.activity.Record(tx, ActivityEntry{
			OrganizationID: project.OrganizationID,
			ProjectID:      project.ID,
			ActorUserID:    caller.UserID,
			Summary:        fmt.Sprintf("Added %s as %s", user.Email, input.Role),
			Payload:        models.MemberAddedPayload{UserID: user.ID, Role: input.Role},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *projectService) ListMembers(ctx context.Context, caller auth.Caller, projectID uuid.UUID) ([]models.ProjectMember, error) {
	if _, err := loadProject(ctx, s.projectRepo, s.access, projectID, caller); err != nil {
		return nil, err
	}
	return s.projectRepo.ListMembers(ctx, projectID)
}

func (s *projectService) requireManager(ctx context.Context, project *models.Project, caller auth.Caller) error {
	if caller.IsSuperAdmin() {
		return nil
	}
	pm, err := s.projectRepo.FindMember(ctx, project.ID, caller.UserID)
	if err != nil {
		return err
	}
	if pm != nil && pm.Role == models.ProjectRoleOwner {
		return nil
	}
	om, err := s.orgRepo.FindMember(ctx, project.OrganizationID, caller.UserID)
	if err != nil {
		return err
	}
	if om.Grants() && (om.Role == models.OrganizationRoleOwner || om.Role == models.OrganizationRoleAdmin) {
		return nil
	}
	return appErr.New(appErr.CodeForbidden, "Only project owners and organization admins can add members")
}
