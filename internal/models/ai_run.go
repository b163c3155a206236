package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AIRunStatus string

const (
	AIRunSucceeded AIRunStatus = "SUCCEEDED"
	AIRunFailed    AIRunStatus = "FAILED"
)

// AIRun records one call to the AI provider. Snapshots reference it by id only.
type AIRun struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Task             string      `gorm:"type:varchar(48);index;not null" json:"task"`
	Provider         string      `gorm:"type:varchar(32);not null" json:"provider"`
	Model            string      `gorm:"type:varchar(128)" json:"model"`
	OrganizationID   uuid.UUID   `gorm:"type:uuid;index" json:"organizationId"`
	ProjectID        uuid.UUID   `gorm:"type:uuid;index" json:"projectId"`
	UserID           uuid.UUID   `gorm:"type:uuid" json:"userId"`
	Status           AIRunStatus `gorm:"type:varchar(16);not null" json:"status"`
	PromptTokens     int         `json:"promptTokens"`
	CompletionTokens int         `json:"completionTokens"`
	DurationMs       int64       `json:"durationMs"`
	Error            string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
}

func (r *AIRun) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
