package main

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/scopeforge/engine/internal/models"
	"github.com/scopeforge/engine/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestAutoMigrateCreatesEveryTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), database.Config(gormlogger.Silent))
	require.NoError(t, err)

	assert.NotEmpty(t, missingTables(db))
	require.NoError(t, runMigrations(db, false))
	assert.Empty(t, missingTables(db))
	assert.Equal(t, "project_activities", tableName(db, &models.ProjectActivity{}))
}
