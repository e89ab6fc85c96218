package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolleave/internal/middleware"
	"schoolleave/internal/model"
	"schoolleave/internal/scope"
	"schoolleave/internal/service"
	"schoolleave/pkg/response"
)

type LeaveHandler struct {
	leaveService service.LeaveService
	authz        *middleware.Authorizer
}

func NewLeaveHandler(leaveService service.LeaveService, authz *middleware.Authorizer) *LeaveHandler {
	return &LeaveHandler{leaveService: leaveService, authz: authz}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *LeaveHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyone := h.authz.RequireRole(model.Roles...)
	deciders := h.authz.RequireRole(model.RoleTeacher, model.RoleAdmin)

	forms := router.Group("/leave_forms")
	{
		forms.GET("", anyone, h.List)
		forms.GET("/grouped", anyone, h.Grouped)
		forms.GET("/summary", anyone, h.Summary)
		forms.GET("/queue", deciders, h.Queue)
		forms.GET("/:id", anyone, h.Get)
		forms.POST("", h.authz.RequireRole(model.RoleStudent, model.RoleAdmin), h.Submit)
		forms.PUT("/:id/approve", deciders, h.Approve)
		forms.PUT("/:id/reject", deciders, h.Reject)
		forms.DELETE("/:id", deciders, h.Delete)
		forms.POST("/bulk-delete", deciders, h.BulkDelete)
	}
}

func criteriaFromQuery(c *gin.Context) scope.Criteria {
	return scope.Criteria{
		Date:      c.Query("date"),
		Month:     c.Query("month"),
		TimeStart: c.Query("timeStart"),
		TimeEnd:   c.Query("timeEnd"),
		LeaveType: model.LeaveType(c.Query("leaveType")),
		Status:    model.LeaveStatus(c.Query("status")),
		Search:    c.Query("search"),
	}
}

func actor(c *gin.Context) model.Identity {
	identity, _ := middleware.IdentityFromContext(c)
	return identity
}

// List handles GET /api/leave_forms
// @Summary      List leave forms
// @Description  Lists the leave forms the caller may see, narrowed by the optional filters
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Param        date       query     string  false  "Leave date (DD/MM/YYYY)"
// @Param        month      query     string  false  "Leave month (MM/YYYY)"
// @Param        timeStart  query     string  false  "Window start (HH:mm)"
// @Param        timeEnd    query     string  false  "Window end (HH:mm)"
// @Param        leaveType  query     string  false  "Leave type"
// @Param        status     query     string  false  "pending, approved or rejected"
// @Param        search     query     string  false  "Name contains"
// @Success      200        {object}  response.Response{data=[]model.LeaveForm}
// @Failure      400        {object}  response.Response
// @Failure      401        {object}  response.Response
// @Router       /api/leave_forms [get]
func (h *LeaveHandler) List(c *gin.Context) {
	forms, err := h.leaveService.List(c.Request.Context(), actor(c), criteriaFromQuery(c))
	if err != nil {
		writeServiceError(c, err, "leave forms", true)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, forms))
}

// Grouped handles GET /api/leave_forms/grouped
// @Summary      List leave forms by month
// @Description  Same as the list, grouped under "Month YYYY" headings in order of first appearance
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]scope.MonthGroup}
// @Failure      400  {object}  response.Response
// @Router       /api/leave_forms/grouped [get]
func (h *LeaveHandler) Grouped(c *gin.Context) {
	groups, err := h.leaveService.Grouped(c.Request.Context(), actor(c), criteriaFromQuery(c))
	if err != nil {
		writeServiceError(c, err, "leave forms", true)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// Summary handles GET /api/leave_forms/summary
// @Summary      Leave statistics
// @Description  Counts the caller's approved leave by type
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.LeaveSummary}
// @Router       /api/leave_forms/summary [get]
func (h *LeaveHandler) Summary(c *gin.Context) {
	summary, err := h.leaveService.Summary(c.Request.Context(), actor(c))
	if err != nil {
		writeServiceError(c, err, "leave statistics", true)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// Queue handles GET /api/leave_forms/queue
// @Summary      Approval queue
// @Description  Lists the forms the caller may decide, with the number still pending
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Failure      401  {object}  response.Response
// @Router       /api/leave_forms/queue [get]
func (h *LeaveHandler) Queue(c *gin.Context) {
	forms, err := h.leaveService.Queue(c.Request.Context(), actor(c), criteriaFromQuery(c))
	if err != nil {
		writeServiceError(c, err, "leave forms", true)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"forms":   forms,
		"pending": scope.PendingCount(forms),
	}))
}

// Get handles GET /api/leave_forms/:id
// @Summary      Get a leave form
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Leave form ID"
// @Success      200  {object}  response.Response{data=model.LeaveForm}
// @Failure      404  {object}  response.Response
// @Router       /api/leave_forms/{id} [get]
func (h *LeaveHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	form, err := h.leaveService.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		writeServiceError(c, err, "leave form", true)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, form))
}

// Submit handles POST /api/leave_forms
// @Summary      Submit a leave form
// @Description  Files a pending leave request. Attachments are inline base64 or data URLs.
// @Tags         leave
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitLeaveRequest  true  "Leave form"
// @Success      201      {object}  response.Response{data=model.LeaveForm}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      415      {object}  response.Response
// @Router       /api/leave_forms [post]
func (h *LeaveHandler) Submit(c *gin.Context) {
	var req service.SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	form, err := h.leaveService.Submit(c.Request.Context(), actor(c), req)
	if err != nil {
		writeServiceError(c, err, "leave form", false)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, form))
}

// Approve handles PUT /api/leave_forms/:id/approve
// @Summary      Approve a leave form
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Leave form ID"
// @Success      200  {object}  response.Response{data=model.LeaveForm}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/leave_forms/{id}/approve [put]
func (h *LeaveHandler) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	form, err := h.leaveService.Approve(c.Request.Context(), actor(c), id)
	if err != nil {
		writeServiceError(c, err, "leave form", false)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, form))
}

// Reject handles PUT /api/leave_forms/:id/reject
// @Summary      Reject a leave form
// @Tags         leave
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                         true  "Leave form ID"
// @Param        payload  body      service.RejectLeaveRequest  true  "Reject reason"
// @Success      200      {object}  response.Response{data=model.LeaveForm}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/leave_forms/{id}/reject [put]
func (h *LeaveHandler) Reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.RejectLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	form, err := h.leaveService.Reject(c.Request.Context(), actor(c), id, req.Reason)
	if err != nil {
		writeServiceError(c, err, "leave form", false)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, form))
}

// Delete handles DELETE /api/leave_forms/:id
// @Summary      Delete a leave form
// @Tags         leave
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Leave form ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/leave_forms/{id} [delete]
func (h *LeaveHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.leaveService.Delete(c.Request.Context(), actor(c), id); err != nil {
		writeServiceError(c, err, "leave form", false)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": 1}))
}

// BulkDelete handles POST /api/leave_forms/bulk-delete
// @Summary      Delete several leave forms
// @Description  Deletes every listed form or none of them
// @Tags         leave
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkDeleteRequest  true  "Leave form IDs"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/leave_forms/bulk-delete [post]
func (h *LeaveHandler) BulkDelete(c *gin.Context) {
	var req service.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	n, err := h.leaveService.DeleteMany(c.Request.Context(), actor(c), req.IDs)
	if err != nil {
		writeServiceError(c, err, "leave forms", false)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": n}))
}
