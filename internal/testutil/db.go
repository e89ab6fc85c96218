// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"schoolleave/internal/database"
	"schoolleave/internal/model"
)

// NewDB returns an isolated in-memory SQLite database with the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser stores an account whose password is hashed with the minimum bcrypt cost.
func CreateUser(t *testing.T, db *gorm.DB, user model.User, password string) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user.Password = string(hashed)
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// CreateLeave stores a leave form, defaulting the status to pending.
func CreateLeave(t *testing.T, db *gorm.DB, form model.LeaveForm) *model.LeaveForm {
	t.Helper()
	if form.Status == "" {
		form.Status = model.LeavePending
	}
	if form.LeaveType == "" {
		form.LeaveType = model.LeaveSick
	}
	require.NoError(t, db.Create(&form).Error)
	return &form
}
