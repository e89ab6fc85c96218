package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"schoolleave/internal/model"
	"schoolleave/internal/repository"
)

// MaxPhotoSize bounds a profile photo upload.
const MaxPhotoSize = 2 << 20

// DTOs for Request validation

// Profile holds the editable account fields shared by create and update.
type Profile struct {
	Nickname     string `json:"nickname"`
	Birthday     string `json:"birthday"`
	Nationality  string `json:"nationality"`
	Religion     string `json:"religion"`
	BloodType    string `json:"bloodType"`
	Weight       string `json:"weight"`
	Height       string `json:"height"`
	PhoneNumber  string `json:"phoneNumber"`
	Grade        string `json:"grade"`
	Department   string `json:"department"`
	Classroom    string `json:"classroom"`
	RollNumber   string `json:"rollNumber"`
	AcademicYear string `json:"academicYear"`
}

type CreateUserRequest struct {
	FullName  string `json:"fullName" binding:"required"`
	StudentID string `json:"studentId" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"required"`
	Profile
}

type UpdateUserRequest struct {
	FullName  string `json:"fullName"`
	StudentID string `json:"studentId"`
	Profile
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// UserResponse is a User without its password digest.
type UserResponse struct {
	ID        uint   `json:"id"`
	FullName  string `json:"fullName"`
	StudentID string `json:"studentId"`
	Role      string `json:"role"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Profile
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	GetUser(ctx context.Context, id uint) (*UserResponse, error)
	CreateUser(ctx context.Context, actor model.Identity, req CreateUserRequest) (*UserResponse, error)
	UpdateUser(ctx context.Context, actor model.Identity, id uint, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor model.Identity, id uint) error
	UpdateRole(ctx context.Context, actor model.Identity, id uint, role string) (*UserResponse, error)
	ResetPassword(ctx context.Context, actor model.Identity, id uint, password string) error
	UploadPhoto(ctx context.Context, actor model.Identity, id uint, data []byte) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	uploadDir string
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, uploadDir string) UserService {
	return &userService{repo: repo, auditRepo: auditRepo, txManager: txManager, uploadDir: uploadDir}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		StudentID: user.StudentID,
		Role:      string(user.Role),
		PhotoURL:  user.PhotoURL,
		Profile: Profile{
			Nickname:     user.Nickname,
			Birthday:     user.Birthday,
			Nationality:  user.Nationality,
			Religion:     user.Religion,
			BloodType:    user.BloodType,
			Weight:       user.Weight,
			Height:       user.Height,
			PhoneNumber:  user.PhoneNumber,
			Grade:        user.Grade,
			Department:   user.Department,
			Classroom:    user.Classroom,
			RollNumber:   user.RollNumber,
			AcademicYear: user.AcademicYear,
		},
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// applyProfile copies the non-empty fields of p onto u.
func applyProfile(u *model.User, p Profile) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&u.Nickname, p.Nickname)
	set(&u.Birthday, p.Birthday)
	set(&u.Nationality, p.Nationality)
	set(&u.Religion, p.Religion)
	set(&u.BloodType, p.BloodType)
	set(&u.Weight, p.Weight)
	set(&u.Height, p.Height)
	set(&u.PhoneNumber, p.PhoneNumber)
	set(&u.Grade, p.Grade)
	set(&u.Department, p.Department)
	set(&u.Classroom, p.Classroom)
	set(&u.RollNumber, p.RollNumber)
	set(&u.AcademicYear, p.AcademicYear)
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) find(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *userService) ensureStudentIDFree(ctx context.Context, studentID string) error {
	_, err := s.repo.GetByStudentID(ctx, studentID)
	if err == nil {
		return ErrStudentIDTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check student id: %w", err)
	}
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actor model.Identity, req CreateUserRequest) (*UserResponse, error) {
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		FullName:  strings.TrimSpace(req.FullName),
		StudentID: studentID,
		Password:  string(hashedPassword),
		Role:      role,
	}
	applyProfile(user, req.Profile)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureStudentIDFree(txCtx, studentID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrStudentIDTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &actor, model.ActionCreateUser, idString(user.ID), user.StudentID, map[string]any{
			"role": user.Role,
		})
	})
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

// UpdateUser changes profile fields. The role and password have their own operations.
func (s *userService) UpdateUser(ctx context.Context, actor model.Identity, id uint, req UpdateUserRequest) (*UserResponse, error) {
	var user *model.User
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if user, err = s.find(txCtx, id); err != nil {
			return err
		}

		if sid := strings.TrimSpace(req.StudentID); sid != "" && sid != user.StudentID {
			if err := s.ensureStudentIDFree(txCtx, sid); err != nil {
				return err
			}
			user.StudentID = sid
		}
		if name := strings.TrimSpace(req.FullName); name != "" {
			user.FullName = name
		}
		applyProfile(user, req.Profile)

		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &actor, model.ActionUpdateUser, idString(user.ID), user.StudentID, nil)
	})
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor model.Identity, id uint) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.find(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.ensureNotLastAdmin(txCtx, user); err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &actor, model.ActionDeleteUser, idString(id), user.StudentID, map[string]any{
			"role": user.Role,
		})
	})
}

func (s *userService) ensureNotLastAdmin(ctx context.Context, user *model.User) error {
	if user.Role != model.RoleAdmin {
		return nil
	}
	admins, err := s.repo.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// UpdateRole moves an account to any role. Live sessions keep their old role
// until the user signs in again.
func (s *userService) UpdateRole(ctx context.Context, actor model.Identity, id uint, role string) (*UserResponse, error) {
	newRole, err := model.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if user, err = s.find(txCtx, id); err != nil {
			return err
		}
		oldRole := user.Role
		if oldRole == newRole {
			return nil
		}

		user.Role = newRole
		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &actor, model.ActionChangeRole, idString(user.ID), user.StudentID, map[string]any{
			"from": oldRole,
			"to":   newRole,
		})
	})
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) ResetPassword(ctx context.Context, actor model.Identity, id uint, password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.find(txCtx, id)
		if err != nil {
			return err
		}
		user.Password = string(hashed)
		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to reset password: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &actor, model.ActionResetPassword, idString(user.ID), user.StudentID, nil)
	})
}

// UploadPhoto stores a JPEG or PNG under the upload directory and links it to the user.
func (s *userService) UploadPhoto(ctx context.Context, actor model.Identity, id uint, data []byte) (*UserResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if len(data) > MaxPhotoSize {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", ErrInvalidInput, MaxPhotoSize)
	}
	detected := mimetype.Detect(data)
	if !detected.Is("image/jpeg") && !detected.Is("image/png") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, detected.String())
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	name := uuid.NewString() + detected.Extension()
	if err := os.WriteFile(filepath.Join(s.uploadDir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	user.PhotoURL = "/uploads/" + name
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to save photo url: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, &actor, model.ActionUpdateUser, idString(user.ID), user.StudentID, map[string]any{
			"photo_url": user.PhotoURL,
		})
	})
	if err != nil {
		_ = os.Remove(filepath.Join(s.uploadDir, name))
		return nil, err
	}
	return mapToResponse(user), nil
}
