package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"schoolleave/internal/guard"
	"schoolleave/internal/metrics"
	"schoolleave/internal/model"
	"schoolleave/internal/session"
	"schoolleave/pkg/response"
)

// AccessTokenCookie carries the session token for browser clients.
const AccessTokenCookie = "access_token"

const (
	sessionKey  = "session"
	identityKey = "identity"
)

// TokenFromRequest reads the access_token cookie, falling back to a Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SetTokenCookie sets access_token as an HttpOnly cookie living as long as the session
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite, secure := cookiePolicy()
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite, secure := cookiePolicy()
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
}

func cookiePolicy() (http.SameSite, bool) {
	if gin.Mode() == gin.ReleaseMode {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// Authorizer binds requests to sessions and guards routes by role.
type Authorizer struct {
	sessions *session.Manager
	metrics  metrics.Recorder
}

func NewAuthorizer(sessions *session.Manager, rec metrics.Recorder) *Authorizer {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Authorizer{sessions: sessions, metrics: rec}
}

// Session resolves the session store behind the request token.
func (a *Authorizer) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := a.sessions.Resume(c.Request.Context(), TokenFromRequest(c))
		c.Set(sessionKey, store)
		c.Next()
	}
}

// RequireRole evaluates the route guard on every request:
// pending answers 503 with Retry-After, a redirect answers 401 pointing at
// the login route, and render continues with the identity in context.
func (a *Authorizer) RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := guard.Allow(roles...)
	return func(c *gin.Context) {
		snap := SessionFromContext(c).Snapshot()
		outcome := guard.Decide(snap, allowed)
		a.metrics.RecordGuardDecision(outcome.String())

		switch outcome {
		case guard.OutcomePending:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "Session is still initializing"))
		case guard.OutcomeRedirectLogin:
			c.Header("Location", guard.LoginPath)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Redirect(http.StatusUnauthorized, "Please sign in with an account that may open this page", guard.LoginPath))
		case guard.OutcomeRender:
			identity := *snap.Identity
			c.Set(identityKey, identity)
			c.Next()
		}
	}
}

// SessionFromContext returns the store set by Session. Without one the request
// is treated as unauthenticated.
func SessionFromContext(c *gin.Context) *session.Store {
	if v, ok := c.Get(sessionKey); ok {
		if store, ok := v.(*session.Store); ok {
			return store
		}
	}
	store := session.NewStore()
	store.Resolve(nil)
	return store
}

// IdentityFromContext returns the identity RequireRole admitted.
func IdentityFromContext(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}
