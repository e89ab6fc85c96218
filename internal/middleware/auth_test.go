package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolleave/internal/metrics"
	"schoolleave/internal/model"
	"schoolleave/internal/session"
	"schoolleave/pkg/response"
)

type guardCounter struct {
	metrics.Nop
	outcomes map[string]int
}

func (g *guardCounter) RecordGuardDecision(outcome string) { g.outcomes[outcome]++ }

func newGuardedRouter(t *testing.T, sessions *session.Manager, rec metrics.Recorder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	authz := NewAuthorizer(sessions, rec)
	r := gin.New()
	r.Use(authz.Session())
	r.GET("/teacher", authz.RequireRole(model.RoleTeacher, model.RoleAdmin), func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, response.Success(http.StatusOK, identity))
	})
	return r
}

func TestRequireRole(t *testing.T) {
	sessions := session.NewManager([]byte("secret"), time.Hour, 10)
	rec := &guardCounter{outcomes: map[string]int{}}
	r := newGuardedRouter(t, sessions, rec)

	teacherToken, _, err := sessions.Open(model.Identity{ID: 3, Username: "T1", Role: model.RoleTeacher})
	require.NoError(t, err)
	studentToken, _, err := sessions.Open(model.Identity{ID: 4, Username: "S100", Role: model.RoleStudent})
	require.NoError(t, err)

	t.Run("Should render for an admitted role via Bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teacher", nil)
		req.Header.Set("Authorization", "Bearer "+teacherToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data model.Identity `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "T1", body.Data.Username)
	})

	t.Run("Should render for an admitted role via cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teacher", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: teacherToken})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should redirect a role outside the set to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teacher", nil)
		req.Header.Set("Authorization", "Bearer "+studentToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		var body response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "/login", body.Redirect)
	})

	t.Run("Should redirect anonymous requests to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/teacher", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("Should answer pending while the session cannot resolve", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodGet, "/teacher", nil).WithContext(ctx)
		req.Header.Set("Authorization", "Bearer "+teacherToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
	})

	t.Run("Should redirect after the session closes", func(t *testing.T) {
		token, _, err := sessions.Open(model.Identity{ID: 5, Username: "T2", Role: model.RoleTeacher})
		require.NoError(t, err)
		sessions.Close(token)

		req := httptest.NewRequest(http.MethodGet, "/teacher", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should count every guard outcome", func(t *testing.T) {
		assert.Equal(t, map[string]int{"render": 2, "redirect_login": 3, "pending": 1}, rec.outcomes)
	})
}

func TestTokenFromRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should prefer the cookie over the header", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
		c.Request.Header.Set("Authorization", "Bearer from-header")
		assert.Equal(t, "from-cookie", TokenFromRequest(c))
	})

	t.Run("Should ignore non-Bearer schemes", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", "Basic abc")
		assert.Empty(t, TokenFromRequest(c))
	})
}

func TestTokenCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should set an HttpOnly cookie for the session lifetime", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
		SetTokenCookie(c, "tok", time.Hour)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, AccessTokenCookie, cookies[0].Name)
		assert.Equal(t, "tok", cookies[0].Value)
		assert.Equal(t, 3600, cookies[0].MaxAge)
		assert.True(t, cookies[0].HttpOnly)
		assert.False(t, cookies[0].Secure)
	})

	t.Run("Should expire the cookie on clear", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
		ClearTokenCookie(c)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}
