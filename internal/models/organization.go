package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationRole string

const (
	OrganizationRoleOwner  OrganizationRole = "OWNER"
	OrganizationRoleAdmin  OrganizationRole = "ADMIN"
	OrganizationRoleMember OrganizationRole = "MEMBER"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusDeclined InviteStatus = "DECLINED"
)

// Organization is the tenant boundary; projects belong to exactly one.
type Organization struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name" validate:"required"`
	Slug        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug" validate:"required"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrganizationMember grants organization-wide access once the invite is accepted.
type OrganizationMember struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_org_members_org_user,priority:1" json:"organizationId"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_org_members_org_user,priority:2;index" json:"userId"`
	Role           OrganizationRole `gorm:"type:varchar(16);not null" json:"role" validate:"required,oneof=OWNER ADMIN MEMBER"`
	InviteStatus   InviteStatus     `gorm:"type:varchar(16);not null;index" json:"inviteStatus"`
	InvitedByID    *uuid.UUID       `gorm:"type:uuid" json:"invitedById,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func (m *OrganizationMember) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// Grants reports whether the membership confers access.
func (m *OrganizationMember) Grants() bool {
	return m != nil && m.InviteStatus == InviteStatusAccepted
}
