package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
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
)

func newLogBuffer() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "raw: %s", buf.String())
	return entry
}

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry), "raw: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestLogging(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should log request fields at INFO", func(t *testing.T) {
		buf, logger := newLogBuffer()
		r := gin.New()
		r.Use(Logging(logger))
		r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		entry := decodeEntry(t, buf)
		assert.Equal(t, "http_request", entry["msg"])
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "GET", entry["method"])
		assert.Equal(t, "/api/health", entry["path"])
		assert.Equal(t, float64(200), entry["status"])
		assert.Contains(t, entry, "duration_ms")
		assert.NotContains(t, entry, "user_id")
	})

	t.Run("Should include the user id of guarded requests", func(t *testing.T) {
		buf, logger := newLogBuffer()
		sessions := session.NewManager([]byte("secret"), time.Hour, 10)
		token, _, err := sessions.Open(model.Identity{ID: 42, Username: "A1", Role: model.RoleAdmin})
		require.NoError(t, err)

		authz := NewAuthorizer(sessions, metrics.Nop{})
		r := gin.New()
		r.Use(Logging(logger), authz.Session())
		r.GET("/api/users", authz.RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(httptest.NewRecorder(), req)

		entry := decodeEntry(t, buf)
		assert.Equal(t, float64(42), entry["user_id"])
	})

	t.Run("Should log client errors at WARN", func(t *testing.T) {
		buf, logger := newLogBuffer()
		r := gin.New()
		r.Use(Logging(logger))
		r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, "WARN", decodeEntry(t, buf)["level"])
	})

	t.Run("Should log server errors at ERROR", func(t *testing.T) {
		buf, logger := newLogBuffer()
		r := gin.New()
		r.Use(Logging(logger))
		r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.Equal(t, "ERROR", decodeEntry(t, buf)["level"])
	})

	t.Run("Should log a panicking request as a 500", func(t *testing.T) {
		buf, logger := newLogBuffer()
		r := gin.New()
		r.Use(Logging(logger), Recovery(logger))
		r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		entries := decodeEntries(t, buf)
		require.Len(t, entries, 2)
		assert.Equal(t, "panic recovered", entries[0]["msg"])
		assert.Equal(t, "http_request", entries[1]["msg"])
		assert.Equal(t, "ERROR", entries[1]["level"])
		assert.Equal(t, float64(500), entries[1]["status"])
	})

	t.Run("Should log before an unrecovered panic escapes", func(t *testing.T) {
		buf, logger := newLogBuffer()
		r := gin.New()
		r.Use(Logging(logger))
		r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

		assert.Panics(t, func() {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
		entry := decodeEntry(t, buf)
		assert.Equal(t, "http_request", entry["msg"])
		assert.Equal(t, float64(500), entry["status"])
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Should turn a panic into a 500 and log the stack", func(t *testing.T) {
		buf, logger := newLogBuffer()
		r := gin.New()
		r.Use(Recovery(logger))
		r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Internal server error")
		entry := decodeEntry(t, buf)
		assert.Equal(t, "panic recovered", entry["msg"])
		assert.Equal(t, "kaboom", entry["panic"])
		assert.Contains(t, entry["stack"], "goroutine")
	})
}
