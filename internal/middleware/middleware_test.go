package middleware

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"speaker-negotiator/pkg/log"
	"speaker-negotiator/pkg/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionAuth(t *testing.T) {
	jwt := token.NewJWTManager("secret", 1, 1)
	sessionToken, err := jwt.GenerateSessionToken("sess-1")
	require.NoError(t, err)
	adminToken, err := jwt.GenerateAdminToken("admin")
	require.NoError(t, err)

	r := gin.New()
	echo := func(c *gin.Context) { c.String(http.StatusOK, SessionID(c)) }
	r.GET("/optional", SessionAuth(jwt, false), echo)
	r.GET("/required", SessionAuth(jwt, true), echo)

	w := serve(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = serve(r, "/optional", "Bearer "+sessionToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/optional", "Bearer nope").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/optional", "Token "+sessionToken).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/optional", "Bearer "+adminToken).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/required", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/required", "Bearer "+sessionToken).Code)
}

func TestAdminAuth(t *testing.T) {
	jwt := token.NewJWTManager("secret", 1, 1)
	sessionToken, err := jwt.GenerateSessionToken("sess-1")
	require.NoError(t, err)
	adminToken, err := jwt.GenerateAdminToken("admin")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", AuthMiddleware(jwt), AdminAuthMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/admin", "Bearer "+sessionToken).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "/admin", "Bearer "+adminToken).Code)
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	log.Replace(zap.New(core))
	t.Cleanup(func() { log.Replace(zap.NewNop()) })
	return logs
}

func newLoggedRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(LoggerConfig{
		SkipPaths:     []string{"/metrics"},
		OmitBodyPaths: []string{"/login", "/ws/:token"},
	}))
	r.POST("/echo", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, "got "+string(body))
	})
	r.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": "jwt-secret-value"})
	})
	r.GET("/ws/:token", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequestLoggerKeepsBody(t *testing.T) {
	logs := observeLogs(t)
	r := newLoggedRouter()

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("120"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "got 120", w.Body.String())
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "120", fields["requestBody"])
	assert.Equal(t, "got 120", fields["responseBody"])
	assert.Equal(t, "abc", truncate([]byte("abc")))
}

func TestRequestLoggerOmitsCredentials(t *testing.T) {
	logs := observeLogs(t)
	r := newLoggedRouter()

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"pw-1234"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jwt-secret-value")

	assert.Equal(t, http.StatusNoContent, serve(r, "/ws/jwt-in-path", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/metrics", "").Code)

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		assert.NotContains(t, fields, "requestBody")
		assert.NotContains(t, fields, "responseBody")
		for _, v := range fields {
			text := fmt.Sprint(v)
			assert.NotContains(t, text, "pw-1234")
			assert.NotContains(t, text, "jwt-secret-value")
			assert.NotContains(t, text, "jwt-in-path")
		}
	}
	assert.Equal(t, "/ws/:token", logs.All()[1].ContextMap()["path"])
}
