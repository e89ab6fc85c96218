package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"schoolleave/internal/model"
)

// Local reads accounts from the application database.
type Local struct {
	db *gorm.DB
}

func NewLocal(db *gorm.DB) *Local {
	return &Local{db: db}
}

func (d *Local) Lookup(ctx context.Context, studentID string) (*model.User, error) {
	var user model.User
	err := d.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("id asc").
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query directory: %w", err)
	}
	return &user, nil
}
