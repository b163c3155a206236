package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RequirementStatus string

const (
	RequirementStatusDraft    RequirementStatus = "DRAFT"
	RequirementStatusInReview RequirementStatus = "IN_REVIEW"
	RequirementStatusApproved RequirementStatus = "APPROVED"
)

type Priority string

const (
	PriorityMust   Priority = "MUST"
	PriorityShould Priority = "SHOULD"
	PriorityCould  Priority = "COULD"
	PriorityWont   Priority = "WONT"
)

type Complexity string

const (
	ComplexityLow    Complexity = "LOW"
	ComplexityMedium Complexity = "MEDIUM"
	ComplexityHigh   Complexity = "HIGH"
)

// StructuredRequirements is the structured form of a project's raw inputs.
type StructuredRequirements struct {
	Summary                   string            `json:"summary" validate:"required"`
	Goals                     []string          `json:"goals"`
	TargetUsers               []string          `json:"targetUsers"`
	FunctionalRequirements    []RequirementItem `json:"functionalRequirements" validate:"dive"`
	NonFunctionalRequirements []RequirementItem `json:"nonFunctionalRequirements" validate:"dive"`
	Constraints               []string          `json:"constraints"`
	OpenQuestions             []string          `json:"openQuestions"`
}

type RequirementItem struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// RequirementSnapshot is one immutable version of a project's requirements.
type RequirementSnapshot struct {
	ID             uuid.UUID                                  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID      uuid.UUID                                  `gorm:"type:uuid;not null;uniqueIndex:idx_requirement_snapshots_project_version,priority:1" json:"projectId"`
	Version        int                                        `gorm:"not null;uniqueIndex:idx_requirement_snapshots_project_version,priority:2" json:"version" validate:"gte=1"`
	StructuredJSON datatypes.JSONType[StructuredRequirements] `json:"structuredJson"`
	Assumptions    datatypes.JSONSlice[string]                `json:"assumptions"`
	Status         RequirementStatus                          `gorm:"type:varchar(16);not null" json:"status"`
	SourceInputID  *uuid.UUID                                 `gorm:"type:uuid" json:"sourceInputId,omitempty"`
	AIRunID        string                                     `gorm:"type:varchar(64)" json:"aiRunId"`
	FeatureRunID   string                                     `gorm:"type:varchar(64)" json:"featureRunId"`
	CreatedByID    uuid.UUID                                  `gorm:"type:uuid;not null" json:"createdById"`
	CreatedAt      time.Time                                  `json:"createdAt"`
	UpdatedAt      time.Time                                  `json:"updatedAt"`

	Features []FeatureItem `gorm:"foreignKey:RequirementSnapshotID" json:"features"`
}

func (s *RequirementSnapshot) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	if s.Status == "" {
		s.Status = RequirementStatusDraft
	}
	return nil
}

// FeatureItem is created together with its snapshot and never versioned on its own.
type FeatureItem struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequirementSnapshotID uuid.UUID  `gorm:"type:uuid;index;not null" json:"requirementSnapshotId"`
	Title                 string     `gorm:"not null" json:"title"`
	Description           string     `gorm:"type:text" json:"description"`
	Priority              Priority   `gorm:"type:varchar(8);not null" json:"priority"`
	Complexity            Complexity `gorm:"type:varchar(8);not null" json:"complexity"`
	OrderIndex            int        `gorm:"not null" json:"orderIndex"`
	CreatedAt             time.Time  `json:"createdAt"`
}

func (f *FeatureItem) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
