package repository

import (
	"context"

	"schoolleave/internal/model"

	"gorm.io/gorm"
)

// LeaveRepository persists leave forms and their attachments.
type LeaveRepository interface {
	Create(ctx context.Context, form *model.LeaveForm) error
	FindByID(ctx context.Context, id uint) (*model.LeaveForm, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.LeaveForm, error)
	ListAll(ctx context.Context) ([]model.LeaveForm, error)
	Update(ctx context.Context, form *model.LeaveForm) error
	Delete(ctx context.Context, id uint) error
	FindDuplicate(ctx context.Context, fullName, leaveDate string) (*model.LeaveForm, error)
	CountByStatus(ctx context.Context, status model.LeaveStatus) (int64, error)
}

type leaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) LeaveRepository {
	return &leaveRepository{db: db}
}

func (r *leaveRepository) Create(ctx context.Context, form *model.LeaveForm) error {
	return GetDB(ctx, r.db).Create(form).Error
}

func (r *leaveRepository) FindByID(ctx context.Context, id uint) (*model.LeaveForm, error) {
	var form model.LeaveForm
	if err := GetDB(ctx, r.db).Preload("Attachments").First(&form, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *leaveRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.LeaveForm, error) {
	var forms []model.LeaveForm
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Order("id asc").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// ListAll returns every form, newest first, with attachments.
func (r *leaveRepository) ListAll(ctx context.Context) ([]model.LeaveForm, error) {
	var forms []model.LeaveForm
	if err := GetDB(ctx, r.db).Preload("Attachments").Order("created_at desc, id desc").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// Update saves the decision columns only; attachments are immutable after submission.
func (r *leaveRepository) Update(ctx context.Context, form *model.LeaveForm) error {
	return GetDB(ctx, r.db).Model(form).
		Select("Status", "RejectReason", "DecidedBy", "DecidedAt", "UpdatedAt").
		Updates(form).Error
}

func (r *leaveRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("leave_form_id = ?", id).Delete(&model.Attachment{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&model.LeaveForm{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *leaveRepository) FindDuplicate(ctx context.Context, fullName, leaveDate string) (*model.LeaveForm, error) {
	var form model.LeaveForm
	err := GetDB(ctx, r.db).
		Where("full_name = ? AND leave_date = ?", fullName, leaveDate).
		Take(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *leaveRepository) CountByStatus(ctx context.Context, status model.LeaveStatus) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.LeaveForm{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
