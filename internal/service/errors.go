package service

import "errors"

var (
	// ErrInvalidInput wraps every request validation failure.
	ErrInvalidInput = errors.New("invalid input")

	ErrLeaveNotFound   = errors.New("leave form not found")
	ErrLeaveNotPending = errors.New("leave form has already been decided")
	ErrDuplicateLeave  = errors.New("a leave form with this name and date already exists")

	ErrUserNotFound    = errors.New("user not found")
	ErrStudentIDTaken  = errors.New("student id already exists")
	ErrLastAdmin       = errors.New("the last admin account cannot be deleted")
	ErrUnsupportedFile = errors.New("unsupported file type")
)
