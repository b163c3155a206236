package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

const (
	EventInputAdded                 EventType = "INPUT_ADDED"
	EventMemberAdded                EventType = "MEMBER_ADDED"
	EventRequirementGenerated       EventType = "REQUIREMENT_GENERATED"
	EventRequirementUpdated         EventType = "REQUIREMENT_UPDATED"
	EventEstimateGenerated          EventType = "ESTIMATE_GENERATED"
	EventEstimateSectionRegenerated EventType = "ESTIMATE_SECTION_REGENERATED"
	EventTechStackGenerated         EventType = "TECH_STACK_GENERATED"
	EventUserFlowsGenerated         EventType = "USER_FLOWS_GENERATED"
	EventWireframesGenerated        EventType = "WIREFRAMES_GENERATED"
)

// ProjectActivity is an append-only audit row. Rows are never updated or deleted.
type ProjectActivity struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organizationId"`
	ProjectID      uuid.UUID      `gorm:"type:uuid;index:idx_project_activities_project_created,priority:1;not null" json:"projectId"`
	ActorUserID    uuid.UUID      `gorm:"type:uuid;not null" json:"actorUserId"`
	EventType      EventType      `gorm:"type:varchar(48);index;not null" json:"eventType"`
	Summary        string         `gorm:"type:text;not null" json:"summary"`
	Payload        datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt      time.Time      `gorm:"index:idx_project_activities_project_created,priority:2" json:"createdAt"`
}

func (a *ProjectActivity) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// ActivityPayload is the tagged variant stored in ProjectActivity.Payload.
// Each event type has exactly one payload struct.
type ActivityPayload interface {
	EventType() EventType
}

type InputAddedPayload struct {
	InputID   uuid.UUID `json:"inputId"`
	InputType InputType `json:"inputType"`
	Duplicate bool      `json:"duplicate"`
}

type MemberAddedPayload struct {
	UserID uuid.UUID   `json:"userId"`
	Role   ProjectRole `json:"role"`
}

type RequirementGeneratedPayload struct {
	SnapshotID   uuid.UUID `json:"snapshotId"`
	Version      int       `json:"version"`
	AIRunIDs     []string  `json:"aiRunIds"`
	FeatureCount int       `json:"featureCount"`
	InputCount   int       `json:"inputCount"`
}

type RequirementUpdatedPayload struct {
	SnapshotID    uuid.UUID `json:"snapshotId"`
	Version       int       `json:"version"`
	ChangedFields []string  `json:"changedFields"`
}

type EstimateGeneratedPayload struct {
	SnapshotID            uuid.UUID `json:"snapshotId"`
	Version               int       `json:"version"`
	RequirementSnapshotID uuid.UUID `json:"requirementSnapshotId"`
	AIRunIDs              []string  `json:"aiRunIds"`
	LineItemCount         int       `json:"lineItemCount"`
	MatchedFeatureCount   int       `json:"matchedFeatureCount"`
}

type EstimateSectionRegeneratedPayload struct {
	SnapshotID uuid.UUID       `json:"snapshotId"`
	Version    int             `json:"version"`
	Section    EstimateSection `json:"section"`
	AIRunIDs   []string        `json:"aiRunIds"`
}

type TechStackGeneratedPayload struct {
	SnapshotID            uuid.UUID `json:"snapshotId"`
	Version               int       `json:"version"`
	RequirementSnapshotID uuid.UUID `json:"requirementSnapshotId"`
	AIRunIDs              []string  `json:"aiRunIds"`
}

type UserFlowsGeneratedPayload struct {
	SnapshotID            uuid.UUID `json:"snapshotId"`
	Version               int       `json:"version"`
	RequirementSnapshotID uuid.UUID `json:"requirementSnapshotId"`
	AIRunIDs              []string  `json:"aiRunIds"`
	FlowCount             int       `json:"flowCount"`
}

type WireframesGeneratedPayload struct {
	SnapshotID         uuid.UUID `json:"snapshotId"`
	Version            int       `json:"version"`
	UserFlowSnapshotID uuid.UUID `json:"userFlowSnapshotId"`
	AIRunIDs           []string  `json:"aiRunIds"`
	ScreenCount        int       `json:"screenCount"`
}

func (InputAddedPayload) EventType() EventType                 { return EventInputAdded }
func (MemberAddedPayload) EventType() EventType                { return EventMemberAdded }
func (RequirementGeneratedPayload) EventType() EventType       { return EventRequirementGenerated }
func (RequirementUpdatedPayload) EventType() EventType         { return EventRequirementUpdated }
func (EstimateGeneratedPayload) EventType() EventType          { return EventEstimateGenerated }
func (EstimateSectionRegeneratedPayload) EventType() EventType { return EventEstimateSectionRegenerated }
func (TechStackGeneratedPayload) EventType() EventType         { return EventTechStackGenerated }
func (UserFlowsGeneratedPayload) EventType() EventType         { return EventUserFlowsGenerated }
func (WireframesGeneratedPayload) EventType() EventType        { return EventWireframesGenerated }

var payloadFactories = map[EventType]func() ActivityPayload{
	EventInputAdded:                 func() ActivityPayload { return &InputAddedPayload{} },
	EventMemberAdded:                func() ActivityPayload { return &MemberAddedPayload{} },
	EventRequirementGenerated:       func() ActivityPayload { return &RequirementGeneratedPayload{} },
	EventRequirementUpdated:         func() ActivityPayload { return &RequirementUpdatedPayload{} },
	EventEstimateGenerated:          func() ActivityPayload { return &EstimateGeneratedPayload{} },
	EventEstimateSectionRegenerated: func() ActivityPayload { return &EstimateSectionRegeneratedPayload{} },
	EventTechStackGenerated:         func() ActivityPayload { return &TechStackGeneratedPayload{} },
	EventUserFlowsGenerated:         func() ActivityPayload { return &UserFlowsGeneratedPayload{} },
	EventWireframesGenerated:        func() ActivityPayload { return &WireframesGeneratedPayload{} },
}

// DecodePayload returns the typed payload of the activity.
func (a *ProjectActivity) DecodePayload() (ActivityPayload, error) {
	factory, ok := payloadFactories[a.EventType]
	if !ok {
		return nil, fmt.Errorf("unknown activity event type %q", a.EventType)
	}
	p := factory()
	if len(a.Payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(a.Payload, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", a.EventType, err)
	}
	return p, nil
}
