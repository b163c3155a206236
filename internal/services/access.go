package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	appErr "github.com/scopeforge/engine/pkg/errors"
)

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "ALLOW"
	}
	return "DENY"
}

// AccessResolver decides whether a caller may act on a project. It only reads.
type AccessResolver interface {
	// ResolveAccess applies, first match wins: super-admin, any project membership,
	// accepted organization membership. Everything else is denied.
	ResolveAccess(ctx context.Context, projectID, organizationID uuid.UUID, caller auth.Caller) (Decision, error)
	// Require returns a forbidden error unless the caller is allowed on project.
	Require(ctx context.Context, project *models.Project, caller auth.Caller) error
}

type accessResolver struct {
	projects repository.ProjectRepository
	orgs     repository.OrganizationRepository
}

func NewAccessResolver(projects repository.ProjectRepository, orgs repository.OrganizationRepository) AccessResolver {
	return &accessResolver{projects: projects, orgs: orgs}
}

var _ AccessResolver = (*accessResolver)(nil)

func (r *accessResolver) ResolveAccess(ctx context.Context, projectID, organizationID uuid.UUID, caller auth.Caller) (Decision, error) {
	if caller.IsSuperAdmin() {
		return Allow, nil
	}
	if caller.UserID == uuid.Nil {
		return Deny, nil
	}
	pm, err := r.projects.FindMember(ctx, projectID, caller.UserID)
	if err != nil {
		return Deny, err
	}
	if pm != nil {
		return Allow, nil
	}
	om, err := r.orgs.FindMember(ctx, organizationID, caller.UserID)
	if err != nil {
		return Deny, err
	}
	if om.Grants() {
		return Allow, nil
	}
	return Deny, nil
}

func (r *accessResolver) Require(ctx context.Context, project *models.Project, caller auth.Caller) error {
	d, err := r.ResolveAccess(ctx, project.ID, project.OrganizationID, caller)
	if err != nil {
		return err
	}
	if d != Allow {
		return appErr.New(appErr.CodeForbidden, "You do not have access to this project").
			WithMeta("projectId", project.ID.String())
	}
	return nil
}

// loadProject runs the not-found check strictly before the access gate.
func loadProject(ctx context.Context, projects repository.ProjectRepository, access AccessResolver, projectID uuid.UUID, caller auth.Caller) (*models.Project, error) {
	var p models.Project
	if err := projects.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	if err := access.Require(ctx, &p, caller); err != nil {
		return nil, err
	}
	return &p, nil
}
