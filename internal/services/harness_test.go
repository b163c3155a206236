package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/ai/aitest"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/metrics"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	"github.com/scopeforge/engine/internal/testutil"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	t      *testing.T
	db     *gorm.DB
	deps   Deps
	gw     *aitest.Gateway
	tenant testutil.Tenant
	owner  auth.Caller

	projects repository.ProjectRepository
	orgs     repository.OrganizationRepository
	access   AccessResolver

	inputs       InputService
	requirements RequirementService
	estimates    EstimateService
	stacks       TechStackService
	flows        UserFlowService
	wireframes   WireframeService
	activity     ActivityService
	projectSvc   ProjectService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, testutil.NewDB(t))
}

// newHarnessOn wires every service against an already migrated db.
func newHarnessOn(t *testing.T, db *gorm.DB) *harness {
	t.Helper()
	gw := &aitest.Gateway{}

	projects := repository.NewProjectRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	users := repository.NewUserRepository(db)
	inputs := repository.NewInputRepository(db)
	reqRepo := repository.NewRequirementRepository(db)
	estRepo := repository.NewEstimateRepository(db)
	stackRepo := repository.NewTechStackRepository(db)
	flowRepo := repository.NewUserFlowRepository(db)
	wfRepo := repository.NewWireframeRepository(db)

	access := NewAccessResolver(projects, orgs)
	recorder := NewActivityRecorder()
	deps := Deps{
		DB:        db,
		Projects:  projects,
		Access:    access,
		Versioner: NewVersioner(),
		Activity:  recorder,
		Gateway:   gw,
		Metrics:   metrics.New(),
	}

	tn := testutil.SeedTenant(t, db)
	return &harness{
		t:            t,
		db:           db,
		deps:         deps,
		gw:           gw,
		tenant:       tn,
		owner:        auth.Caller{UserID: tn.Owner.ID, Email: tn.Owner.Email, SystemRole: models.SystemRoleUser},
		projects:     projects,
		orgs:         orgs,
		access:       access,
		inputs:       NewInputService(db, projects, inputs, access, recorder),
		requirements: NewRequirementService(deps, reqRepo, inputs),
		estimates:    NewEstimateService(deps, estRepo, reqRepo),
		stacks:       NewTechStackService(deps, stackRepo, reqRepo),
		flows:        NewUserFlowService(deps, flowRepo, reqRepo),
		wireframes:   NewWireframeService(deps, wfRepo, flowRepo),
		activity:     NewActivityService(projects, repository.NewActivityRepository(db), repository.NewAIRunRepository(db), access),
		projectSvc:   NewProjectService(db, projects, orgs, users, access, recorder),
	}
}

func (h *harness) projectID() uuid.UUID { return h.tenant.Project.ID }

func (h *harness) stranger() auth.Caller {
	u := testutil.SeedUser(h.t, h.db, "stranger")
	return auth.Caller{UserID: u.ID, Email: u.Email, SystemRole: models.SystemRoleUser}
}

func (h *harness) addText(content string) models.ProjectInput {
	h.t.Helper()
	in, err := h.inputs.Add(context.Background(), h.owner, h.projectID(), AddInputInput{Type: models.InputTypeText, Content: content})
	require.NoError(h.t, err)
	return *in
}

func (h *harness) stage() models.ProjectStage {
	h.t.Helper()
	var p models.Project
	require.NoError(h.t, h.db.First(&p, "id = ?", h.projectID()).Error)
	return p.Stage
}

var todoStructured = models.StructuredRequirements{
	Summary: "A shared todo list for small teams",
	Goals:   []string{"Track tasks"},
	FunctionalRequirements: []models.RequirementItem{
		{ID: "FR-1", Title: "Create tasks"},
		{ID: "FR-2", Title: "Assign tasks"},
	},
}

var todoFeatures = []ai.Feature{
	{Title: "Task creation", Priority: models.PriorityMust, Complexity: models.ComplexityLow},
	{Title: "Task assignment", Priority: models.PriorityShould, Complexity: models.ComplexityMedium},
	{Title: "Due date reminders", Priority: models.PriorityCould, Complexity: models.ComplexityHigh},
}

// expectRequirements stubs both requirement calls for n generations.
func (h *harness) expectRequirements(n int, features []ai.Feature) {
	h.gw.On("StructureRequirements", mock.Anything, mock.Anything).
		Return(&ai.StructureRequirementsResult{Structured: todoStructured, Assumptions: []string{"Web only"}, RunID: "run-structure"}, nil).Times(n)
	h.gw.On("ExtractFeatures", mock.Anything, mock.Anything).
		Return(&ai.ExtractFeaturesResult{Features: features, RunID: "run-features"}, nil).Times(n)
}

func (h *harness) generateRequirements() *models.RequirementSnapshot {
	h.t.Helper()
	snap, err := h.requirements.Generate(context.Background(), h.owner, GenerateRequirementsInput{ProjectID: h.projectID()})
	require.NoError(h.t, err)
	return snap
}

func upstreamErr() error {
	return appErr.New(appErr.CodeUpstreamFailure, "AI provider call failed").WithMeta("runId", "run-failed")
}
