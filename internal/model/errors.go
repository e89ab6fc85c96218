package model

import "fmt"

// APIError is the user-visible error taxonomy.
type APIError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"` // auth, data, validation, system
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Error codes
const (
	ErrCodeIdentifierNotFound   = "IDENTIFIER_NOT_FOUND"
	ErrCodeSecretMismatch       = "SECRET_MISMATCH"
	ErrCodeDirectoryUnreachable = "DIRECTORY_UNREACHABLE"
	ErrCodeRoleNotRecognized    = "ROLE_NOT_RECOGNIZED"
	ErrCodeRecordFetchFailed    = "RECORD_FETCH_FAILED"
	ErrCodeRecordMutateFailed   = "RECORD_MUTATE_FAILED"
	ErrCodeValidation           = "VALIDATION_FAILED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
)

func NewIdentifierNotFoundError() *APIError {
	return &APIError{Code: ErrCodeIdentifierNotFound, Message: "student id not found", Category: "auth"}
}

func NewSecretMismatchError() *APIError {
	return &APIError{Code: ErrCodeSecretMismatch, Message: "incorrect password", Category: "auth"}
}

func NewDirectoryUnreachableError() *APIError {
	return &APIError{Code: ErrCodeDirectoryUnreachable, Message: "cannot reach the user directory", Category: "system"}
}

func NewRoleNotRecognizedError() *APIError {
	return &APIError{Code: ErrCodeRoleNotRecognized, Message: "you are not allowed to access this application", Category: "auth"}
}

func NewRecordFetchFailedError(what string) *APIError {
	return &APIError{Code: ErrCodeRecordFetchFailed, Message: fmt.Sprintf("failed to load %s", what), Category: "data"}
}

func NewRecordMutateFailedError(what string) *APIError {
	return &APIError{Code: ErrCodeRecordMutateFailed, Message: fmt.Sprintf("failed to update %s", what), Category: "data"}
}

func NewValidationError(msg string) *APIError {
	return &APIError{Code: ErrCodeValidation, Message: msg, Category: "validation"}
}

func NewNotFoundError(what string) *APIError {
	return &APIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", what), Category: "data"}
}

func NewConflictError(msg string) *APIError {
	return &APIError{Code: ErrCodeConflict, Message: msg, Category: "data"}
}
