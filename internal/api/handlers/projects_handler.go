package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/api/types"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/services"
	appErr "github.com/scopeforge/engine/pkg/errors"
)

type ProjectsHandler struct {
	svc      services.ProjectService
	inputs   services.InputService
	activity services.ActivityService
	validate Validator
}

func NewProjectsHandler(svc services.ProjectService, inputs services.InputService, activity services.ActivityService, v Validator) *ProjectsHandler {
	return &ProjectsHandler{svc: svc, inputs: inputs, activity: activity, validate: v}
}

// List godoc
// @Summary   List projects visible to the caller
// @Tags      projects
// @Produce   json
// @Param     organizationId query string false "Organization filter"
// @Param     page  query int false "Page (1-based)"
// @Param     limit query int false "Page size (max 100)"
// @Success   200 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects [get]
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filters := &services.ProjectFilters{Page: pageParams(r)}
	if raw := r.URL.Query().Get("organizationId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, appErr.New(appErr.CodeInvalid, "organizationId must be a UUID"))
			return
		}
		filters.OrganizationID = &id
	}
	page, err := h.svc.ListProjects(r.Context(), c, filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, r, page)
}

// Create godoc
// @Summary   Create a project
// @Tags      projects
// @Accept    json
// @Produce   json
// @Param     body body types.ProjectCreateRequest true "Project"
// @Success   201 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects [post]
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.ProjectCreateRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.CreateProject(r.Context(), c, &services.CreateProjectInput{
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		Currency:       req.Currency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, p)
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProject(r.Context(), c, projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	var req types.AddMemberRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.AddMember(r.Context(), c, projectID, &services.AddMemberInput{UserID: req.UserID, Email: req.Email, Role: req.Role})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, m)
}

func (h *ProjectsHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	members, err := h.svc.ListMembers(r.Context(), c, projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, members)
}

// AddInput godoc
// @Summary   Add a raw input to a project
// @Tags      inputs
// @Accept    json
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     body body types.InputCreateRequest true "Input"
// @Success   201 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/inputs [post]
func (h *ProjectsHandler) AddInput(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	var req types.InputCreateRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := h.inputs.Add(r.Context(), c, projectID, services.AddInputInput{Type: req.Type, Content: req.Content})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, in)
}

func (h *ProjectsHandler) ListInputs(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	page, err := h.inputs.List(r.Context(), c, projectID, pageParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, r, page)
}

// ListActivities godoc
// @Summary   List the project's audit trail, newest first
// @Tags      activities
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     eventType query string false "Event type filter"
// @Success   200 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/activities [get]
func (h *ProjectsHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	eventType := models.EventType(r.URL.Query().Get("eventType"))
	page, err := h.activity.List(r.Context(), c, projectID, eventType, pageParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, r, page)
}

func (h *ProjectsHandler) ListAIRuns(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	page, err := h.activity.ListAIRuns(r.Context(), c, projectID, pageParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, r, page)
}
