// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/pkg/database"
	"github.com/scopeforge/engine/pkg/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every model migrated.
// The pool is limited to one connection so transactions serialize.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), database.Config(gormlogger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Count returns the number of rows of model.
func Count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// Tenant is a user owning an organization with one project.
type Tenant struct {
	Owner   models.User
	Org     models.Organization
	Project models.Project
}

// SeedTenant creates a user, an organization it owns and a DRAFT project in it.
func SeedTenant(t *testing.T, db *gorm.DB) Tenant {
	t.Helper()
	var tn Tenant
	tn.Owner = SeedUser(t, db, "owner")
	tn.Org = models.Organization{Name: "Acme", Slug: "acme-" + uuid.NewString()[:8], CreatedByID: tn.Owner.ID}
	require.NoError(t, db.Create(&tn.Org).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: tn.Org.ID,
		UserID:         tn.Owner.ID,
		Role:           models.OrganizationRoleOwner,
		InviteStatus:   models.InviteStatusAccepted,
	}).Error)
	tn.Project = models.Project{OrganizationID: tn.Org.ID, Name: "Todo app", Currency: "USD", CreatedByID: tn.Owner.ID}
	require.NoError(t, db.Create(&tn.Project).Error)
	return tn
}

// SeedUser creates a regular user whose email starts with handle.
func SeedUser(t *testing.T, db *gorm.DB, handle string) models.User {
	t.Helper()
	u := models.User{
		Email:        handle + "-" + uuid.NewString()[:8] + "@example.com",
		Name:         handle,
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// SeedInput stores a raw input for project.
func SeedInput(t *testing.T, db *gorm.DB, project models.Project, typ models.InputType, content string, by uuid.UUID) models.ProjectInput {
	t.Helper()
	in := models.ProjectInput{ProjectID: project.ID, Type: typ, Content: content, ContentHash: utils.ContentHash(content), CreatedByID: by}
	require.NoError(t, db.Create(&in).Error)
	return in
}
