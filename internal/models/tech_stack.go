package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TechStackRecommendation is one immutable stack recommendation for a project.
type TechStackRecommendation struct {
	ID                    uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID             uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_tech_stacks_project_version,priority:1" json:"projectId"`
	Version               int                         `gorm:"not null;uniqueIndex:idx_tech_stacks_project_version,priority:2" json:"version"`
	RequirementSnapshotID uuid.UUID                   `gorm:"type:uuid;index;not null" json:"requirementSnapshotId"`
	Frontend              datatypes.JSONSlice[string] `json:"frontend"`
	Backend               datatypes.JSONSlice[string] `json:"backend"`
	Database              datatypes.JSONSlice[string] `json:"database"`
	Infrastructure        datatypes.JSONSlice[string] `json:"infrastructure"`
	Integrations          datatypes.JSONSlice[string] `json:"integrations"`
	Rationale             string                      `gorm:"type:text" json:"rationale"`
	AIRunID               string                      `gorm:"type:varchar(64)" json:"aiRunId"`
	CreatedByID           uuid.UUID                   `gorm:"type:uuid;not null" json:"createdById"`
	CreatedAt             time.Time                   `json:"createdAt"`
}

func (TechStackRecommendation) TableName() string { return "tech_stack_recommendations" }

func (t *TechStackRecommendation) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
