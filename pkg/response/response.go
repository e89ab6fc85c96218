package response

import "schoolleave/internal/model"

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`     // machine readable error code
	Redirect   string      `json:"redirect,omitempty"` // route the client should navigate to
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// APIError returns an error response carrying the taxonomy code
func APIError(statusCode int, err *model.APIError) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err.Message,
		Code:       err.Code,
	}
}

// Redirect returns an error response that tells the client where to go next
func Redirect(statusCode int, err, to string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
		Redirect:   to,
	}
}
