package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectStage is the coarse lifecycle marker. Stages only move forward.
type ProjectStage string

const (
	StageDraft             ProjectStage = "DRAFT"
	StageInputCollection   ProjectStage = "INPUT_COLLECTION"
	StageRequirements      ProjectStage = "REQUIREMENTS"
	StageFeatureDefinition ProjectStage = "FEATURE_DEFINITION"
	StageEstimation        ProjectStage = "ESTIMATION"
	StageTechStack         ProjectStage = "TECH_STACK"
	StageUserFlows         ProjectStage = "USER_FLOWS"
	StageWireframes        ProjectStage = "WIREFRAMES"
	StageProposal          ProjectStage = "PROPOSAL"
	StageCompleted         ProjectStage = "COMPLETED"
)

var stageOrder = []ProjectStage{
	StageDraft,
	StageInputCollection,
	StageRequirements,
	StageFeatureDefinition,
	StageEstimation,
	StageTechStack,
	StageUserFlows,
	StageWireframes,
	StageProposal,
	StageCompleted,
}

// Rank returns the position of s in the lifecycle, or -1 for unknown stages.
func (s ProjectStage) Rank() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Advance returns the later of s and target and whether that differs from s.
func (s ProjectStage) Advance(target ProjectStage) (ProjectStage, bool) {
	if target.Rank() > s.Rank() {
		return target, true
	}
	return s, false
}

// Project groups inputs and generated artifacts inside an organization.
type Project struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID    `gorm:"type:uuid;index;not null" json:"organizationId" validate:"required"`
	Name           string       `gorm:"not null" json:"name" validate:"required"`
	Description    string       `gorm:"type:text" json:"description"`
	Currency       string       `gorm:"type:varchar(3);not null;default:'USD'" json:"currency" validate:"required,len=3"`
	Stage          ProjectStage `gorm:"type:varchar(32);not null;default:'DRAFT';index" json:"stage"`
	CreatedByID    uuid.UUID    `gorm:"type:uuid;not null" json:"createdById"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Stage == "" {
		p.Stage = StageDraft
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	return nil
}

type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "OWNER"
	ProjectRoleEditor ProjectRole = "EDITOR"
	ProjectRoleViewer ProjectRole = "VIEWER"
)

// ProjectMember overrides organization-level access for a single project.
type ProjectMember struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user,priority:1" json:"projectId"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_project_members_project_user,priority:2;index" json:"userId"`
	Role      ProjectRole `gorm:"type:varchar(16);not null" json:"role" validate:"required,oneof=OWNER EDITOR VIEWER"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (m *ProjectMember) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
