package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrganizationService interface {
	Create(ctx context.Context, caller auth.Caller, name, slug string) (*models.Organization, error)
	ListMine(ctx context.Context, caller auth.Caller) ([]models.Organization, error)
	Invite(ctx context.Context, caller auth.Caller, organizationID uuid.UUID, email string, role models.OrganizationRole) (*models.OrganizationMember, error)
	// RespondToInvite accepts or declines the caller's pending invitation.
	RespondToInvite(ctx context.Context, caller auth.Caller, organizationID uuid.UUID, accept bool) (*models.OrganizationMember, error)
}

type organizationService struct {
	db    *gorm.DB
	orgs  repository.OrganizationRepository
	users repository.UserRepository
}

func NewOrganizationService(db *gorm.DB, orgs repository.OrganizationRepository, users repository.UserRepository) OrganizationService {
	return &organizationService{db: db, orgs: orgs, users: users}
}

var _ OrganizationService = (*organizationService)(nil)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses anything outside [a-z0-9] into single dashes.
func Slugify(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Create makes the caller the accepted owner of a new organization.
func (s *organizationService) Create(ctx context.Context, caller auth.Caller, name, slug string) (*models.Organization, error) {
	if slug == "" {
		slug = name
	}
	slug = Slugify(slug)
	if slug == "" {
		return nil, appErr.New(appErr.CodeInvalid, "organization slug is empty")
	}
	org := &models.Organization{Name: strings.TrimSpace(name), Slug: slug, CreatedByID: caller.UserID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return appErr.Wrap(err, appErr.CodeConflict, "Organization slug is already taken")
			}
			return appErr.Wrap(err, appErr.CodeInternal, "create organization failed")
		}
		owner := &models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         caller.UserID,
			Role:           models.OrganizationRoleOwner,
			InviteStatus:   models.InviteStatusAccepted,
		}
		if err := tx.Create(owner).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "create organization owner failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("organization created", zap.String("organization_id", org.ID.String()), zap.String("user_id", caller.UserID.String()))
	return org, nil
}

func (s *organizationService) ListMine(ctx context.Context, caller auth.Caller) ([]models.Organization, error) {
	return s.orgs.ListForUser(ctx, caller.UserID)
}

func (s *organizationService) Invite(ctx context.Context, caller auth.Caller, organizationID uuid.UUID, email string, role models.OrganizationRole) (*models.OrganizationMember, error) {
	var org models.Organization
	if err := s.orgs.GetByID(ctx, organizationID, &org); err != nil {
		return nil, err
	}
	if !caller.IsSuperAdmin() {
		m, err := s.orgs.FindMember(ctx, org.ID, caller.UserID)
		if err != nil {
			return nil, err
		}
		if !m.Grants() || (m.Role != models.OrganizationRoleOwner && m.Role != models.OrganizationRoleAdmin) {
			return nil, appErr.New(appErr.CodeForbidden, "Only organization owners and admins can invite members")
		}
	}

	var user models.User
	if err := s.users.GetByEmail(ctx, email, &user); err != nil {
		return nil, err
	}
	existing, err := s.orgs.FindMember(ctx, org.ID, user.ID)
	if err != nil {
		return nil, err
	}
	invitedBy := caller.UserID
	if existing != nil {
		if existing.InviteStatus != models.InviteStatusDeclined {
			return nil, appErr.New(appErr.CodeConflict, "User is already a member or has a pending invitation")
		}
		existing.InviteStatus = models.InviteStatusPending
		existing.Role = role
		existing.InvitedByID = &invitedBy
		if err := s.orgs.UpdateMember(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	m := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           role,
		InviteStatus:   models.InviteStatusPending,
		InvitedByID:    &invitedBy,
	}
	if err := s.orgs.CreateMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *organizationService) RespondToInvite(ctx context.Context, caller auth.Caller, organizationID uuid.UUID, accept bool) (*models.OrganizationMember, error) {
	m, err := s.orgs.FindMember(ctx, organizationID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.InviteStatus != models.InviteStatusPending {
		return nil, appErr.New(appErr.CodeNotFound, "No pending invitation for this organization")
	}
	m.InviteStatus = models.InviteStatusDeclined
	if accept {
		m.InviteStatus = models.InviteStatusAccepted
	}
	if err := s.orgs.UpdateMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
