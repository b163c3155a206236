package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/api/types"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/internal/queue/tasks"
	"github.com/scopeforge/engine/internal/services"
	appErr "github.com/scopeforge/engine/pkg/errors"
	"github.com/scopeforge/engine/pkg/pagination"
)

// snapshotReader is the read surface every family service exposes.
type snapshotReader[T any] interface {
	List(ctx context.Context, caller auth.Caller, projectID uuid.UUID, p pagination.Params) (pagination.Page[T], error)
	Latest(ctx context.Context, caller auth.Caller, projectID uuid.UUID) (*T, error)
	Get(ctx context.Context, caller auth.Caller, projectID, id uuid.UUID) (*T, error)
}

// ArtifactsHandler serves the versioned artifact families of a project.
type ArtifactsHandler struct {
	projects     services.ProjectService
	requirements services.RequirementService
	estimates    services.EstimateService
	stacks       services.TechStackService
	flows        services.UserFlowService
	wireframes   services.WireframeService
	enqueuer     tasks.Enqueuer
	validate     Validator
}

type ArtifactServices struct {
	Projects     services.ProjectService
	Requirements services.RequirementService
	Estimates    services.EstimateService
	TechStacks   services.TechStackService
	UserFlows    services.UserFlowService
	Wireframes   services.WireframeService
}

// NewArtifactsHandler wires the family services. enqueuer may be nil, in which case
// ?async=true is rejected.
func NewArtifactsHandler(svc ArtifactServices, enqueuer tasks.Enqueuer, v Validator) *ArtifactsHandler {
	return &ArtifactsHandler{
		projects:     svc.Projects,
		requirements: svc.Requirements,
		estimates:    svc.Estimates,
		stacks:       svc.TechStacks,
		flows:        svc.UserFlows,
		wireframes:   svc.Wireframes,
		enqueuer:     enqueuer,
		validate:     v,
	}
}

// Mount registers the family routes under a router scoped to /projects/{projectID}.
func (h *ArtifactsHandler) Mount(r chi.Router) {
	r.Route("/requirements", func(rr chi.Router) {
		rr.Post("/", h.GenerateRequirements)
		mountReads[models.RequirementSnapshot](rr, h.requirements)
		rr.Patch("/{id}", h.UpdateRequirement)
	})
	r.Route("/estimates", func(er chi.Router) {
		er.Post("/", h.GenerateEstimate)
		mountReads[models.EstimateSnapshot](er, h.estimates)
		er.Post("/{id}/sections/{section}", h.RegenerateEstimateSection)
	})
	r.Route("/tech-stacks", func(tr chi.Router) {
		tr.Post("/", h.GenerateTechStack)
		mountReads[models.TechStackRecommendation](tr, h.stacks)
	})
	r.Route("/user-flows", func(ur chi.Router) {
		ur.Post("/", h.GenerateUserFlows)
		mountReads[models.UserFlowSnapshot](ur, h.flows)
	})
	r.Route("/wireframes", func(wr chi.Router) {
		wr.Post("/", h.GenerateWireframes)
		mountReads[models.WireframeSnapshot](wr, h.wireframes)
	})
}

func mountReads[T any](r chi.Router, svc snapshotReader[T]) {
	r.Get("/", listSnapshots(svc))
	r.Get("/latest", latestSnapshot(svc))
	r.Get("/{id}", getSnapshot(svc))
}

func listSnapshots[T any](svc snapshotReader[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, projectID, ok := scope(w, r)
		if !ok {
			return
		}
		page, err := svc.List(r.Context(), c, projectID, pageParams(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writePage(w, r, page)
	}
}

func latestSnapshot[T any](svc snapshotReader[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, projectID, ok := scope(w, r)
		if !ok {
			return
		}
		s, err := svc.Latest(r.Context(), c, projectID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, r, http.StatusOK, s)
	}
}

func getSnapshot[T any](svc snapshotReader[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, projectID, ok := scope(w, r)
		if !ok {
			return
		}
		id, err := uuidParam(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		s, err := svc.Get(r.Context(), c, projectID, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeData(w, r, http.StatusOK, s)
	}
}

// GenerateRequirements godoc
// @Summary   Generate a new requirement snapshot from the project's text inputs
// @Tags      requirements
// @Accept    json
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     async query bool false "Queue the generation instead of waiting"
// @Param     body body types.GenerateRequirementsRequest false "Options"
// @Success   201 {object} types.APIResponse
// @Success   202 {object} types.APIResponse
// @Failure   400 {object} types.APIResponse
// @Failure   502 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/requirements [post]
func (h *ArtifactsHandler) GenerateRequirements(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	var req types.GenerateRequirementsRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if wantsAsync(r) {
		h.enqueue(w, r, c, models.FamilyRequirement, tasks.GenerationPayload{
			ProjectID: projectID, Caller: c, InputIDs: req.InputIDs, Instruction: req.Instruction,
		})
		return
	}
	snap, err := h.requirements.Generate(r.Context(), c, services.GenerateRequirementsInput{
		ProjectID: projectID, InputIDs: req.InputIDs, Instruction: req.Instruction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, snap)
}

// UpdateRequirement godoc
// @Summary   Edit a requirement snapshot in place
// @Tags      requirements
// @Accept    json
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     id path string true "Snapshot ID"
// @Param     body body types.RequirementUpdateRequest true "Fields to replace"
// @Success   200 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/requirements/{id} [patch]
func (h *ArtifactsHandler) UpdateRequirement(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.RequirementUpdateRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.requirements.Update(r.Context(), c, projectID, id, services.UpdateRequirementInput{
		StructuredJSON: req.StructuredJSON,
		Assumptions:    req.Assumptions,
		Status:         req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, snap)
}

// GenerateEstimate godoc
// @Summary   Generate a new estimate from a requirement snapshot
// @Tags      estimates
// @Accept    json
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     async query bool false "Queue the generation instead of waiting"
// @Param     body body types.GenerateFromUpstreamRequest false "Upstream snapshot and instruction"
// @Success   201 {object} types.APIResponse
// @Success   202 {object} types.APIResponse
// @Failure   400 {object} types.APIResponse
// @Failure   404 {object} types.APIResponse
// @Failure   502 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/estimates [post]
func (h *ArtifactsHandler) GenerateEstimate(w http.ResponseWriter, r *http.Request) {
	c, projectID, req, ok := h.upstreamRequest(w, r)
	if !ok {
		return
	}
	if wantsAsync(r) {
		h.enqueue(w, r, c, models.FamilyEstimate, tasks.GenerationPayload{ProjectID: projectID, Caller: c, UpstreamID: req.UpstreamID, Instruction: req.Instruction})
		return
	}
	est, err := h.estimates.Generate(r.Context(), c, services.GenerateEstimateInput{
		ProjectID: projectID, RequirementSnapshotID: req.UpstreamID, Instruction: req.Instruction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, est)
}

// RegenerateEstimateSection godoc
// @Summary   Regenerate one section of an estimate in place
// @Tags      estimates
// @Accept    json
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     id path string true "Estimate ID"
// @Param     section path string true "timeline, cost, assumptions or line_items"
// @Param     body body types.RegenerateSectionRequest false "Options"
// @Success   200 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/estimates/{id}/sections/{section} [post]
func (h *ArtifactsHandler) RegenerateEstimateSection(w http.ResponseWriter, r *http.Request) {
	c, projectID, ok := scope(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.RegenerateSectionRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	est, err := h.estimates.RegenerateSection(r.Context(), c, services.RegenerateSectionInput{
		ProjectID:   projectID,
		EstimateID:  id,
		Section:     models.EstimateSection(chi.URLParam(r, "section")),
		Instruction: req.Instruction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, est)
}

// GenerateTechStack godoc
// @Summary   Recommend a tech stack from a requirement snapshot
// @Tags      tech-stacks
// @Accept    json
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     async query bool false "Queue the generation instead of waiting"
// @Param     body body types.GenerateFromUpstreamRequest false "Upstream snapshot and instruction"
// @Success   201 {object} types.APIResponse
// @Success   202 {object} types.APIResponse
// @Failure   400 {object} types.APIResponse
// @Failure   404 {object} types.APIResponse
// @Failure   502 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/tech-stacks [post]
func (h *ArtifactsHandler) GenerateTechStack(w http.ResponseWriter, r *http.Request) {
	c, projectID, req, ok := h.upstreamRequest(w, r)
	if !ok {
		return
	}
	if wantsAsync(r) {
		h.enqueue(w, r, c, models.FamilyTechStack, tasks.GenerationPayload{ProjectID: projectID, Caller: c, UpstreamID: req.UpstreamID, Instruction: req.Instruction})
		return
	}
	rec, err := h.stacks.Generate(r.Context(), c, services.GenerateFromRequirementsInput{
		ProjectID: projectID, RequirementSnapshotID: req.UpstreamID, Instruction: req.Instruction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, rec)
}

// GenerateUserFlows godoc
// @Summary   Generate user flows from a requirement snapshot
// @Tags      user-flows
// @Accept    json
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     async query bool false "Queue the generation instead of waiting"
// @Param     body body types.GenerateFromUpstreamRequest false "Upstream snapshot and instruction"
// @Success   201 {object} types.APIResponse
// @Success   202 {object} types.APIResponse
// @Failure   400 {object} types.APIResponse
// @Failure   404 {object} types.APIResponse
// @Failure   502 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/user-flows [post]
func (h *ArtifactsHandler) GenerateUserFlows(w http.ResponseWriter, r *http.Request) {
	c, projectID, req, ok := h.upstreamRequest(w, r)
	if !ok {
		return
	}
	if wantsAsync(r) {
		h.enqueue(w, r, c, models.FamilyUserFlow, tasks.GenerationPayload{ProjectID: projectID, Caller: c, UpstreamID: req.UpstreamID, Instruction: req.Instruction})
		return
	}
	snap, err := h.flows.Generate(r.Context(), c, services.GenerateFromRequirementsInput{
		ProjectID: projectID, RequirementSnapshotID: req.UpstreamID, Instruction: req.Instruction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, snap)
}

// GenerateWireframes godoc
// @Summary   Generate wireframes from a user flow snapshot
// @Tags      wireframes
// @Accept    json
// @Produce   json
// @Param     projectID path string true "Project ID"
// @Param     async query bool false "Queue the generation instead of waiting"
// @Param     body body types.GenerateFromUpstreamRequest false "Upstream snapshot and instruction"
// @Success   201 {object} types.APIResponse
// @Success   202 {object} types.APIResponse
// @Failure   400 {object} types.APIResponse
// @Failure   404 {object} types.APIResponse
// @Failure   502 {object} types.APIResponse
// @Security  BearerAuth
// @Router    /projects/{projectID}/wireframes [post]
func (h *ArtifactsHandler) GenerateWireframes(w http.ResponseWriter, r *http.Request) {
	c, projectID, req, ok := h.upstreamRequest(w, r)
	if !ok {
		return
	}
	if wantsAsync(r) {
		h.enqueue(w, r, c, models.FamilyWireframe, tasks.GenerationPayload{ProjectID: projectID, Caller: c, UpstreamID: req.UpstreamID, Instruction: req.Instruction})
		return
	}
	snap, err := h.wireframes.Generate(r.Context(), c, services.GenerateWireframesInput{
		ProjectID: projectID, UserFlowSnapshotID: req.UpstreamID, Instruction: req.Instruction,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, snap)
}

func (h *ArtifactsHandler) upstreamRequest(w http.ResponseWriter, r *http.Request) (auth.Caller, uuid.UUID, types.GenerateFromUpstreamRequest, bool) {
	var req types.GenerateFromUpstreamRequest
	c, projectID, ok := scope(w, r)
	if !ok {
		return c, projectID, req, false
	}
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return c, projectID, req, false
	}
	return c, projectID, req, true
}

// enqueue checks project access synchronously so rejected callers never reach the queue.
func (h *ArtifactsHandler) enqueue(w http.ResponseWriter, r *http.Request, c auth.Caller, family models.ArtifactFamily, p tasks.GenerationPayload) {
	if h.enqueuer == nil {
		writeError(w, r, appErr.New(appErr.CodeUnavailable, "Async generation is not enabled"))
		return
	}
	if _, err := h.projects.GetProject(r.Context(), c, p.ProjectID); err != nil {
		writeError(w, r, err)
		return
	}
	info, err := h.enqueuer.EnqueueGeneration(r.Context(), family, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusAccepted, types.AcceptedJob{TaskID: info.ID, Family: string(family), Queue: info.Queue})
}
