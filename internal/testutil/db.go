// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"pigent-app/database"
	"pigent-app/internal/domain/users"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var userSeq atomic.Int64

// NewDB returns a migrated SQLite database private to the test. The pool is
// limited to one connection so concurrent transactions queue instead of
// failing with SQLITE_BUSY.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user with a unique email.
func CreateUser(t *testing.T, db *gorm.DB, role string) users.User {
	t.Helper()
	n := userSeq.Add(1)
	u := users.User{
		Name:  fmt.Sprintf("Student %d", n),
		Email: fmt.Sprintf("student%d@example.com", n),
		Role:  role,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}
