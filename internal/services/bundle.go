package services

import (
	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/metrics"
	"github.com/scopeforge/engine/internal/repository"
	"gorm.io/gorm"
)

// Bundle holds every service wired against one database and AI gateway. The API and
// the worker build the same bundle.
type Bundle struct {
	Auth          AuthService
	Organizations OrganizationService
	Projects      ProjectService
	Inputs        InputService
	Activity      ActivityService
	Requirements  RequirementService
	Estimates     EstimateService
	TechStacks    TechStackService
	UserFlows     UserFlowService
	Wireframes    WireframeService
}

func NewBundle(db *gorm.DB, gateway ai.Gateway, tokens *auth.TokenIssuer, m *metrics.Metrics) *Bundle {
	projects := repository.NewProjectRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	users := repository.NewUserRepository(db)
	inputs := repository.NewInputRepository(db)
	requirements := repository.NewRequirementRepository(db)
	flows := repository.NewUserFlowRepository(db)

	access := NewAccessResolver(projects, orgs)
	recorder := NewActivityRecorder()
	deps := Deps{
		DB:        db,
		Projects:  projects,
		Access:    access,
		Versioner: NewVersioner(),
		Activity:  recorder,
		Gateway:   gateway,
		Metrics:   m,
	}

	return &Bundle{
		Auth:          NewAuthService(users, orgs, tokens),
		Organizations: NewOrganizationService(db, orgs, users),
		Projects:      NewProjectService(db, projects, orgs, users, access, recorder),
		Inputs:        NewInputService(db, projects, inputs, access, recorder),
		Activity:      NewActivityService(projects, repository.NewActivityRepository(db), repository.NewAIRunRepository(db), access),
		Requirements:  NewRequirementService(deps, requirements, inputs),
		Estimates:     NewEstimateService(deps, repository.NewEstimateRepository(db), requirements),
		TechStacks:    NewTechStackService(deps, repository.NewTechStackRepository(db), requirements),
		UserFlows:     NewUserFlowService(deps, flows, requirements),
		Wireframes:    NewWireframeService(deps, repository.NewWireframeRepository(db), flows),
	}
}

