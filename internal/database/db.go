package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"schoolleave/internal/config"
	"schoolleave/internal/model"
)

// NewConnection opens the configured database and migrates the schema.
func NewConnection(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		// Audit rows may name actors that only exist in a remote directory.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.LeaveForm{},
		&model.Attachment{},
		&model.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

// SeedAdmin creates a bootstrap admin account when no admin exists yet.
func SeedAdmin(ctx context.Context, db *gorm.DB, studentID, password string) error {
	if studentID == "" {
		return nil
	}
	var admins int64
	if err := db.WithContext(ctx).Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins > 0 {
		return nil
	}

	var existing model.User
	err := db.WithContext(ctx).Where("student_id = ?", studentID).Take(&existing).Error
	if err == nil {
		return fmt.Errorf("cannot seed admin: student id %q already belongs to a %s", studentID, existing.Role)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check seed admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}
	admin := &model.User{
		FullName:  "Administrator",
		StudentID: studentID,
		Password:  string(hashed),
		Role:      model.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create seed admin: %w", err)
	}
	slog.Info("seeded admin account", "student_id", studentID)
	return nil
}
