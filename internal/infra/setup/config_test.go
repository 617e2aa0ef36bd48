package setup

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locusfocus-backend/internal/domain"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	dsn, err := NormalizeMySQLDSN("lf:secret@tcp(db:3306)/locusfocus")
	require.NoError(t, err)
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "tcp(db:3306)/locusfocus")

	dsn, err = NormalizeMySQLDSN("lf:secret@tcp(db:3306)/locusfocus?charset=latin1")
	require.NoError(t, err)
	assert.Contains(t, dsn, "charset=latin1")
	assert.NotContains(t, dsn, "utf8mb4")

	_, err = NormalizeMySQLDSN("not a dsn")
	assert.Error(t, err)
}

func TestInitDB_Errors(t *testing.T) {
	_, err := InitDB(DriverSQLite, "")
	assert.Error(t, err)

	_, err = InitDB("oracle", "whatever")
	assert.Error(t, err)

	_, err = InitDB(DriverMySQL, "not a dsn")
	assert.ErrorContains(t, err, "invalid mysql DSN")
}

func TestInitDB_SQLiteMigrates(t *testing.T) {
	db, err := InitDB("SQLite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, MigrateDB(db))
	// Migrating twice is a no-op.
	require.NoError(t, MigrateDB(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	for _, model := range []any{&domain.Room{}, &domain.Member{}, &domain.Lock{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}

func journalMode(t *testing.T, dsn string) string {
	t.Helper()
	db, err := InitDB(DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Row().Scan(&mode))
	return mode
}

func TestInitDB_SQLiteJournalMode(t *testing.T) {
	file := filepath.Join(t.TempDir(), "rooms.db")
	assert.Equal(t, "wal", journalMode(t, file))

	mem := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	assert.Equal(t, "memory", journalMode(t, mem))
}
