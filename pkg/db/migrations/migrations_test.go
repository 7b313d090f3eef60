package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "migrations.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestMigrator_Migrate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db)

	require.NoError(t, m.Migrate(ctx))
	// Running again is a no-op
	require.NoError(t, m.Migrate(ctx))

	assert.True(t, db.Migrator().HasTable("host_meta"))
	assert.True(t, db.Migrator().HasTable("annotations"))
	assert.True(t, db.Migrator().HasTable("annotation_tags"))
	assert.True(t, db.Migrator().HasTable("command_group_commands"))
	assert.True(t, db.Migrator().HasIndex("host_meta", HostMetaNaturalKeyIndex))

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Applied, "migration %d should be applied", s.Version)
	}
}

func TestMigrator_Rollback(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db)

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Rollback(ctx))

	assert.False(t, db.Migrator().HasIndex("host_meta", HostMetaNaturalKeyIndex))
	assert.True(t, db.Migrator().HasTable("host_meta"))

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)

	require.NoError(t, m.Rollback(ctx))
	assert.False(t, db.Migrator().HasTable("host_meta"))
	assert.False(t, db.Migrator().HasTable("annotation_tags"))
}

func TestMigrator_RollbackWithoutMigrations(t *testing.T) {
	db := setupTestDB(t)
	m := NewMigrator(db)

	require.NoError(t, db.AutoMigrate(&migrationHistory{}))
	assert.Error(t, m.Rollback(context.Background()))
}
