package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WireframeSnapshot is one immutable set of screens derived from a user-flow snapshot.
type WireframeSnapshot struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wireframe_snapshots_project_version,priority:1" json:"projectId"`
	Version            int       `gorm:"not null;uniqueIndex:idx_wireframe_snapshots_project_version,priority:2" json:"version"`
	UserFlowSnapshotID uuid.UUID `gorm:"type:uuid;index;not null" json:"userFlowSnapshotId"`
	AIRunID            string    `gorm:"type:varchar(64)" json:"aiRunId"`
	CreatedByID        uuid.UUID `gorm:"type:uuid;not null" json:"createdById"`
	CreatedAt          time.Time `json:"createdAt"`

	Screens []WireframeScreen `gorm:"foreignKey:WireframeSnapshotID" json:"screens"`
}

func (s *WireframeSnapshot) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type WireframeScreen struct {
	ID                  uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	WireframeSnapshotID uuid.UUID                   `gorm:"type:uuid;index;not null" json:"wireframeSnapshotId"`
	Name                string                      `gorm:"not null" json:"name"`
	FlowName            string                      `json:"flowName"`
	Purpose             string                      `gorm:"type:text" json:"purpose"`
	Components          datatypes.JSONSlice[string] `json:"components"`
	Layout              string                      `gorm:"type:text" json:"layout"`
	OrderIndex          int                         `gorm:"not null" json:"orderIndex"`
	CreatedAt           time.Time                   `json:"createdAt"`
}

func (s *WireframeScreen) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
