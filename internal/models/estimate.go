package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EstimateSection names an independently regenerable part of an estimate breakdown.
type EstimateSection string

const (
	SectionTimeline    EstimateSection = "timeline"
	SectionCost        EstimateSection = "cost"
	SectionAssumptions EstimateSection = "assumptions"
	SectionLineItems   EstimateSection = "line_items"
)

func (s EstimateSection) Valid() bool {
	switch s {
	case SectionTimeline, SectionCost, SectionAssumptions, SectionLineItems:
		return true
	}
	return false
}

// EstimateBreakdown is the full estimate payload, split into named sections.
type EstimateBreakdown struct {
	Timeline    TimelineSection    `json:"timeline"`
	Cost        CostSection        `json:"cost"`
	Assumptions []string           `json:"assumptions"`
	LineItems   []LineItemEstimate `json:"lineItems"`
}

type TimelineSection struct {
	MinDays int             `json:"minDays" validate:"gte=0"`
	MaxDays int             `json:"maxDays" validate:"gtefield=MinDays"`
	Phases  []TimelinePhase `json:"phases,omitempty" validate:"dive"`
}

type TimelinePhase struct {
	Name string `json:"name"`
	Days int    `json:"days" validate:"gte=0"`
}

type CostSection struct {
	Currency string  `json:"currency"`
	Min      float64 `json:"min" validate:"gte=0"`
	Max      float64 `json:"max" validate:"gtefield=Min"`
}

type LineItemEstimate struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	HoursMin    float64 `json:"hoursMin"`
	HoursMax    float64 `json:"hoursMax"`
	CostMin     float64 `json:"costMin"`
	CostMax     float64 `json:"costMax"`
}

// EstimateSnapshot is one immutable cost/timeline estimate conditioned on a requirement snapshot.
type EstimateSnapshot struct {
	ID                    uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID             uuid.UUID                             `gorm:"type:uuid;not null;uniqueIndex:idx_estimate_snapshots_project_version,priority:1" json:"projectId"`
	Version               int                                   `gorm:"not null;uniqueIndex:idx_estimate_snapshots_project_version,priority:2" json:"version"`
	RequirementSnapshotID uuid.UUID                             `gorm:"type:uuid;index;not null" json:"requirementSnapshotId"`
	Currency              string                                `gorm:"type:varchar(3);not null" json:"currency"`
	TimelineMinDays       int                                   `gorm:"not null" json:"timelineMinDays"`
	TimelineMaxDays       int                                   `gorm:"not null" json:"timelineMaxDays"`
	CostMin               float64                               `gorm:"type:numeric(14,2);not null" json:"costMin"`
	CostMax               float64                               `gorm:"type:numeric(14,2);not null" json:"costMax"`
	ConfidenceScore       float64                               `gorm:"not null" json:"confidenceScore"`
	Assumptions           datatypes.JSONSlice[string]           `json:"assumptions"`
	Breakdown             datatypes.JSONType[EstimateBreakdown] `json:"breakdown"`
	AIProvider            string                                `gorm:"type:varchar(32)" json:"aiProvider"`
	AIRunID               string                                `gorm:"type:varchar(64)" json:"aiRunId"`
	CreatedByID           uuid.UUID                             `gorm:"type:uuid;not null" json:"createdById"`
	CreatedAt             time.Time                             `json:"createdAt"`
	UpdatedAt             time.Time                             `json:"updatedAt"`

	LineItems []EstimateLineItem `gorm:"foreignKey:EstimateSnapshotID" json:"lineItems"`
}

func (s *EstimateSnapshot) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// EstimateLineItem optionally points back at the feature it estimates.
// The link is a best-effort title match, not a constraint.
type EstimateLineItem struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EstimateSnapshotID uuid.UUID  `gorm:"type:uuid;index;not null" json:"estimateSnapshotId"`
	FeatureItemID      *uuid.UUID `gorm:"type:uuid" json:"featureItemId"`
	Name               string     `gorm:"not null" json:"name"`
	Description        string     `gorm:"type:text" json:"description"`
	HoursMin           float64    `gorm:"not null" json:"hoursMin"`
	HoursMax           float64    `gorm:"not null" json:"hoursMax"`
	CostMin            float64    `gorm:"type:numeric(14,2);not null" json:"costMin"`
	CostMax            float64    `gorm:"type:numeric(14,2);not null" json:"costMax"`
	SortOrder          int        `gorm:"not null" json:"sortOrder"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func (li *EstimateLineItem) BeforeCreate(*gorm.DB) error {
	ensureID(&li.ID)
	return nil
}
