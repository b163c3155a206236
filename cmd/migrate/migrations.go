package main

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/scopeforge/engine/internal/models"
)

// registerModels returns all models that need migration, parents first.
func registerModels() []any {
	return models.All()
}

// runMigrations executes AutoMigrate and, when custom is set, the hand-written SQL.
func runMigrations(db *gorm.DB, custom bool) error {
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}
	if !custom {
		return nil
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		enableUUIDExtension,
		addActivityFeedIndex,
		addAIRunFeedIndex,
		addPendingInviteIndex,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

func missingTables(db *gorm.DB) []string {
	var missing []string
	for _, m := range registerModels() {
		if db.Migrator().HasTable(m) {
			continue
		}
		missing = append(missing, tableName(db, m))
	}
	return missing
}

func tableName(db *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}

// enableUUIDExtension ensures UUID generation is available
func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// addActivityFeedIndex serves the newest-first activity listing.
func addActivityFeedIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_project_activities_feed
		ON project_activities(project_id, created_at DESC)
	`).Error
}

func addAIRunFeedIndex(db *gorm.DB) error {
	return db.Exec(fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_ai_runs_project_created
		ON %s(project_id, created_at DESC)
	`, tableName(db, &models.AIRun{}))).Error
}

// addPendingInviteIndex speeds up the invite inbox lookup.
func addPendingInviteIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_organization_members_pending
		ON organization_members(user_id)
		WHERE invite_status = 'PENDING'
	`).Error
}
