package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolleave/internal/model"
	"schoolleave/internal/service"
	"schoolleave/pkg/response"
)

// writeServiceError maps service sentinels onto the response taxonomy.
// fetch selects RECORD_FETCH_FAILED over RECORD_MUTATE_FAILED for unexpected errors.
func writeServiceError(c *gin.Context, err error, what string, fetch bool) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, response.APIError(http.StatusBadRequest, model.NewValidationError(err.Error())))
	case errors.Is(err, service.ErrUnsupportedFile):
		c.JSON(http.StatusUnsupportedMediaType, response.APIError(http.StatusUnsupportedMediaType, model.NewValidationError(err.Error())))
	case errors.Is(err, service.ErrLeaveNotFound), errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, response.APIError(http.StatusNotFound, model.NewNotFoundError(what)))
	case errors.Is(err, service.ErrLeaveNotPending),
		errors.Is(err, service.ErrDuplicateLeave),
		errors.Is(err, service.ErrStudentIDTaken),
		errors.Is(err, service.ErrLastAdmin):
		c.JSON(http.StatusConflict, response.APIError(http.StatusConflict, model.NewConflictError(err.Error())))
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		apiErr := model.NewRecordMutateFailedError(what)
		if fetch {
			apiErr = model.NewRecordFetchFailedError(what)
		}
		c.JSON(http.StatusInternalServerError, response.APIError(http.StatusInternalServerError, apiErr))
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.APIError(http.StatusBadRequest, model.NewValidationError("invalid id")))
		return 0, false
	}
	return uint(id), true
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.APIError(http.StatusBadRequest, model.NewValidationError("Invalid request payload: "+err.Error())))
}
