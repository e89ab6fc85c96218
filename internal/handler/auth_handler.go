package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schoolleave/internal/auth"
	"schoolleave/internal/middleware"
	"schoolleave/internal/model"
	"schoolleave/internal/service"
	"schoolleave/pkg/response"
)

// ForbiddenPath is the view shown to accounts whose role the school does not recognise.
const ForbiddenPath = "/result"

type AuthHandler struct {
	authService service.AuthService
	authz       *middleware.Authorizer
	sessionTTL  time.Duration
}

func NewAuthHandler(authService service.AuthService, authz *middleware.Authorizer, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, authz: authz, sessionTTL: sessionTTL}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/me", h.authz.RequireRole(model.Roles...), h.Me)
}

// Login handles POST /api/login
// @Summary      Login
// @Description  Verifies a student id and password against the directory and opens a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.LoginResult}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrIdentifierNotFound):
			c.JSON(http.StatusUnauthorized, response.APIError(http.StatusUnauthorized, model.NewIdentifierNotFoundError()))
		case errors.Is(err, auth.ErrSecretMismatch):
			c.JSON(http.StatusUnauthorized, response.APIError(http.StatusUnauthorized, model.NewSecretMismatchError()))
		case errors.Is(err, auth.ErrDirectoryUnreachable):
			c.JSON(http.StatusServiceUnavailable, response.APIError(http.StatusServiceUnavailable, model.NewDirectoryUnreachableError()))
		case errors.Is(err, auth.ErrRoleNotRecognized):
			res := response.APIError(http.StatusForbidden, model.NewRoleNotRecognizedError())
			res.Redirect = ForbiddenPath
			c.JSON(http.StatusForbidden, res)
		default:
			slog.Error("login failed", "error", err)
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to sign in"))
		}
		return
	}

	middleware.SetTokenCookie(c, result.Token, h.sessionTTL)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Logout handles POST /api/logout
// @Summary      Logout
// @Description  Ends the current session and clears the token cookie
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.authService.Logout(c.Request.Context(), middleware.TokenFromRequest(c))
	middleware.ClearTokenCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"redirect": "/login"}))
}

// Me handles GET /api/me
// @Summary      Get current user
// @Description  Returns the profile of the signed-in account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)
	user, err := h.authService.Me(c.Request.Context(), identity)
	if err != nil {
		writeServiceError(c, err, "profile", true)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
