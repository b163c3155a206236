package types

import (
	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email          string     `json:"email" validate:"required,email"`
	Password       string     `json:"password" validate:"required"`
	OrganizationID *uuid.UUID `json:"organizationId"`
}

type OrganizationCreateRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Slug string `json:"slug" validate:"omitempty,max=64"`
}

type InviteRequest struct {
	Email string                  `json:"email" validate:"required,email"`
	Role  models.OrganizationRole `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

type ProjectCreateRequest struct {
	OrganizationID uuid.UUID `json:"organizationId" validate:"required"`
	Name           string    `json:"name" validate:"required,max=200"`
	Description    string    `json:"description"`
	Currency       string    `json:"currency" validate:"omitempty,len=3,alpha"`
}

type AddMemberRequest struct {
	UserID *uuid.UUID         `json:"userId" validate:"required_without=Email"`
	Email  string             `json:"email" validate:"omitempty,email"`
	Role   models.ProjectRole `json:"role" validate:"required,oneof=OWNER EDITOR VIEWER"`
}

type InputCreateRequest struct {
	Type    models.InputType `json:"type" validate:"required,oneof=TEXT TRANSCRIPT URL FILE"`
	Content string           `json:"content" validate:"required"`
}

type GenerateRequirementsRequest struct {
	InputIDs    []uuid.UUID `json:"inputIds"`
	Instruction string      `json:"instruction" validate:"max=4000"`
}

// GenerateFromUpstreamRequest pins the upstream snapshot of a downstream generation.
type GenerateFromUpstreamRequest struct {
	UpstreamID  *uuid.UUID `json:"upstreamId"`
	Instruction string     `json:"instruction" validate:"max=4000"`
}

type RequirementUpdateRequest struct {
	StructuredJSON *models.StructuredRequirements `json:"structuredJson"`
	Assumptions    *[]string                      `json:"assumptions"`
	Status         *models.RequirementStatus      `json:"status" validate:"omitempty,oneof=DRAFT IN_REVIEW APPROVED"`
}

type RegenerateSectionRequest struct {
	Instruction string `json:"instruction" validate:"max=4000"`
}
