package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/internal/service"
	"github.com/noah-isme/attendance-dashboard-api/pkg/middleware/requestid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter(t *testing.T) (*gin.Engine, *models.Credentials) {
	t.Helper()
	captured := &models.Credentials{}
	r := gin.New()
	r.GET("/probe", Session(nil), func(c *gin.Context) {
		creds, ok := CredentialsFromContext(c)
		require.True(t, ok)
		*captured = creds
		c.Status(http.StatusNoContent)
	})
	return r, captured
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	signed, err := token.SignedString([]byte("portal-secret"))
	require.NoError(t, err)
	return signed
}

func TestSessionReadsHeaders(t *testing.T) {
	r, captured := sessionRouter(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, exp)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Student-Id", "ADM-1")
	req.Header.Set("X-User-Id", "u-1")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Session-Id", "s-1")
	req.Header.Set("X-Token", "xt-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "ADM-1", captured.StudentID)
	assert.Equal(t, token, captured.AccessToken)
	assert.True(t, exp.Equal(captured.ExpiresAt))
}

func TestSessionFallsBackToQuery(t *testing.T) {
	r, captured := sessionRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe?studentId=ADM-2&userId=u&accessToken=opaque&sessionId=s&xToken=x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "ADM-2", captured.StudentID)
	assert.Equal(t, "opaque", captured.AccessToken)
	assert.True(t, captured.ExpiresAt.IsZero())
}

func TestSessionRejectsIncompleteSession(t *testing.T) {
	r, _ := sessionRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe?studentId=ADM-2&userId=u", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Message, "Authorization")
	assert.Contains(t, body.Error.Message, "X-Token")
	assert.NotContains(t, body.Error.Message, "X-Student-Id")
}

func TestResponseMeta(t *testing.T) {
	r := gin.New()
	r.Use(requestid.Middleware(), WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/x", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestid.HeaderKey, "req-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, "req-123", meta["request_id"])
	assert.Contains(t, meta, "processing_time_ms")
	assert.NotContains(t, meta, "started_at")
}

func TestMetricsMiddlewareLabelsRoutes(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/items/1", "/items/2", "/missing", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
}
