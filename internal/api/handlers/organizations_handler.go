package handlers

import (
	"net/http"

	"github.com/scopeforge/engine/internal/api/types"
	"github.com/scopeforge/engine/internal/services"
)

type OrganizationsHandler struct {
	svc      services.OrganizationService
	validate Validator
}

func NewOrganizationsHandler(svc services.OrganizationService, v Validator) *OrganizationsHandler {
	return &OrganizationsHandler{svc: svc, validate: v}
}

func (h *OrganizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.OrganizationCreateRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	org, err := h.svc.Create(r.Context(), c, req.Name, req.Slug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, org)
}

func (h *OrganizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orgs, err := h.svc.ListMine(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, orgs)
}

func (h *OrganizationsHandler) Invite(w http.ResponseWriter, r *http.Request) {
	c, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orgID, err := uuidParam(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req types.InviteRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.Invite(r.Context(), c, orgID, req.Email, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, m)
}

func (h *OrganizationsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

func (h *OrganizationsHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *OrganizationsHandler) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	c, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orgID, err := uuidParam(r, "orgID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.RespondToInvite(r.Context(), c, orgID, accept)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, m)
}
