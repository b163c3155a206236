package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserFlowSnapshot is one immutable set of user flows derived from a requirement snapshot.
type UserFlowSnapshot struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_flow_snapshots_project_version,priority:1" json:"projectId"`
	Version               int       `gorm:"not null;uniqueIndex:idx_user_flow_snapshots_project_version,priority:2" json:"version"`
	RequirementSnapshotID uuid.UUID `gorm:"type:uuid;index;not null" json:"requirementSnapshotId"`
	AIRunID               string    `gorm:"type:varchar(64)" json:"aiRunId"`
	CreatedByID           uuid.UUID `gorm:"type:uuid;not null" json:"createdById"`
	CreatedAt             time.Time `json:"createdAt"`

	Flows []UserFlow `gorm:"foreignKey:UserFlowSnapshotID" json:"flows"`
}

func (s *UserFlowSnapshot) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type UserFlow struct {
	ID                 uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserFlowSnapshotID uuid.UUID                   `gorm:"type:uuid;index;not null" json:"userFlowSnapshotId"`
	Name               string                      `gorm:"not null" json:"name"`
	Actor              string                      `json:"actor"`
	Description        string                      `gorm:"type:text" json:"description"`
	Steps              datatypes.JSONSlice[string] `json:"steps"`
	OrderIndex         int                         `gorm:"not null" json:"orderIndex"`
	CreatedAt          time.Time                   `json:"createdAt"`
}

func (f *UserFlow) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
