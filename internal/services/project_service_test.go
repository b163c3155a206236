package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/repository"
	"github.com/scopeforge/engine/internal/testutil"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateProjectMakesCallerOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p, err := h.projectSvc.CreateProject(ctx, h.owner, &CreateProjectInput{OrganizationID: h.tenant.Org.ID, Name: " Portal ", Currency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "Portal", p.Name)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, models.StageDraft, p.Stage)

	members, err := h.projectSvc.ListMembers(ctx, h.owner, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.ProjectRoleOwner, members[0].Role)

	_, err = h.projectSvc.CreateProject(ctx, h.stranger(), &CreateProjectInput{OrganizationID: h.tenant.Org.ID, Name: "Nope"})
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}

func TestListProjectsOnlyVisible(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	page, err := h.projectSvc.ListProjects(ctx, h.owner, &ProjectFilters{Page: pagination.New(1, 10)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Meta.Total)

	page, err = h.projectSvc.ListProjects(ctx, h.stranger(), &ProjectFilters{Page: pagination.New(1, 10)})
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	super := auth.Caller{UserID: uuid.New(), SystemRole: models.SystemRoleSuperAdmin}
	page, err = h.projectSvc.ListProjects(ctx, super, &ProjectFilters{Page: pagination.New(1, 10)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Meta.Total)
}

func TestAddMemberGrantsAccessAndRecordsActivity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	guest := testutil.SeedUser(t, h.db, "guest")
	guestCaller := auth.Caller{UserID: guest.ID}

	_, err := h.projectSvc.GetProject(ctx, guestCaller, h.projectID())
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))

	m, err := h.projectSvc.AddMember(ctx, h.owner, h.projectID(), &AddMemberInput{Email: guest.Email, Role: models.ProjectRoleEditor})
	require.NoError(t, err)
	assert.Equal(t, guest.ID, m.UserID)

	_, err = h.projectSvc.GetProject(ctx, guestCaller, h.projectID())
	require.NoError(t, err)

	_, err = h.projectSvc.AddMember(ctx, h.owner, h.projectID(), &AddMemberInput{UserID: &guest.ID, Role: models.ProjectRoleViewer})
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))

	other := testutil.SeedUser(t, h.db, "other")
	_, err = h.projectSvc.AddMember(ctx, guestCaller, h.projectID(), &AddMemberInput{UserID: &other.ID, Role: models.ProjectRoleViewer})
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))

	page, err := h.activity.List(ctx, h.owner, h.projectID(), models.EventMemberAdded, pagination.New(1, 10))
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
}

func TestAddInputFlagsDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.addText("Customers book appointments online.")
	second := h.addText("  Customers   book appointments online. ")
	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.NotEqual(t, first.ID, second.ID)

	page, err := h.activity.List(ctx, h.owner, h.projectID(), models.EventInputAdded, pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	dups := 0
	for _, a := range page.Data {
		p, err := a.DecodePayload()
		require.NoError(t, err)
		if p.(*models.InputAddedPayload).Duplicate {
			dups++
		}
	}
	assert.Equal(t, 1, dups)

	_, err = h.inputs.Add(ctx, h.owner, h.projectID(), AddInputInput{Type: "AUDIO", Content: "x"})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	_, err = h.inputs.Add(ctx, h.owner, h.projectID(), AddInputInput{Type: models.InputTypeText, Content: "   "})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	inputs, err := h.inputs.List(ctx, h.owner, h.projectID(), pagination.New(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, inputs.Meta.Total)
}

func TestDuplicateInputsAreStructuredOnce(t *testing.T) {
	h := newHarness(t)
	h.addText("Track expenses")
	h.addText("Track   expenses")
	last := h.addText("Export reports")
	h.expectRequirements(1, todoFeatures)

	snap := h.generateRequirements()
	require.NotNil(t, snap.SourceInputID)
	assert.Equal(t, last.ID, *snap.SourceInputID)

	req := h.gw.Calls[0].Arguments.Get(1).(ai.StructureRequirementsRequest)
	assert.Equal(t, []string{"Track expenses", "Export reports"}, req.Texts)
	assert.Equal(t, h.tenant.Org.ID, req.Audit.OrganizationID)
}

func TestOrganizationInviteLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	orgs := NewOrganizationService(h.db, h.orgs, repository.NewUserRepository(h.db))

	org, err := orgs.Create(ctx, h.owner, "Globex Corp", "")
	require.NoError(t, err)
	assert.Equal(t, "globex-corp", org.Slug)

	_, err = orgs.Create(ctx, h.owner, "Globex", "Globex Corp")
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))

	invitee := testutil.SeedUser(t, h.db, "invitee")
	m, err := orgs.Invite(ctx, h.owner, org.ID, invitee.Email, models.OrganizationRoleMember)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, m.InviteStatus)

	inviteeCaller := auth.Caller{UserID: invitee.ID}
	mine, err := orgs.ListMine(ctx, inviteeCaller)
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = orgs.Invite(ctx, inviteeCaller, org.ID, h.tenant.Owner.Email, models.OrganizationRoleMember)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))

	m, err = orgs.RespondToInvite(ctx, inviteeCaller, org.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, m.InviteStatus)

	mine, err = orgs.ListMine(ctx, inviteeCaller)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, org.ID, mine[0].ID)

	_, err = orgs.RespondToInvite(ctx, inviteeCaller, org.ID, false)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	issuer := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	svc := &authService{
		userRepo: repository.NewUserRepository(h.db),
		orgRepo:  h.orgs,
		tokens:   issuer,
		cost:     bcrypt.MinCost,
	}

	u, err := svc.Register(ctx, " Ada@Example.com ", "s3cret-pass", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = svc.Register(ctx, "ada@example.com", "other-pass", "Ada Again")
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))

	_, err = svc.Login(ctx, "ada@example.com", "wrong", nil)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass", nil)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))

	sess, err := svc.Login(ctx, "ADA@example.com", "s3cret-pass", nil)
	require.NoError(t, err)
	parsed, err := issuer.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, parsed.UserID)
	assert.Nil(t, parsed.OrganizationID)

	_, err = svc.Login(ctx, "ada@example.com", "s3cret-pass", &h.tenant.Org.ID)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}
