package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InputType string

const (
	InputTypeText       InputType = "TEXT"
	InputTypeTranscript InputType = "TRANSCRIPT"
	InputTypeURL        InputType = "URL"
	InputTypeFile       InputType = "FILE"
)

// IsTextual reports whether the input carries text usable for requirement structuring.
func (t InputType) IsTextual() bool {
	return t == InputTypeText || t == InputTypeTranscript
}

// ProjectInput is a raw client-supplied input that requirements are structured from.
type ProjectInput struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index;not null" json:"projectId"`
	Type        InputType `gorm:"type:varchar(16);not null" json:"type" validate:"required,oneof=TEXT TRANSCRIPT URL FILE"`
	Content     string    `gorm:"type:text;not null" json:"content" validate:"required"`
	ContentHash string    `gorm:"type:varchar(64);index;not null" json:"contentHash"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (i *ProjectInput) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
