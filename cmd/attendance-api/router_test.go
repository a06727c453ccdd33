package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-dashboard-api/internal/service"
	"github.com/noah-isme/attendance-dashboard-api/internal/upstream"
	"github.com/noah-isme/attendance-dashboard-api/pkg/config"
)

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/SubjectAttendanceReport", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"stdSubAtdDetails":{"overallLecture":20,"overallPresent":16,"overallPercentage":80,"subjects":[
			{"id":1,"name":"Math","totalLeactures":12,"presentLeactures":10},
			{"id":2,"name":"Art","totalLeactures":8,"presentLeactures":6}]}}`))
	})
	mux.HandleFunc("/api/TransportAttendanceReport", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"isInAbsent":false}]`))
	})
	mux.HandleFunc("/api/DailyAttendanceReport", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"absentDate":"2024-09-02","totalAbsent":1,"totalPresent":3}]`))
	})
	mux.HandleFunc("/api/fileblob/p-1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	portalSrv := newPortal(t)
	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Upstream: config.UpstreamConfig{
			BaseURL:        portalSrv.URL,
			Timeout:        time.Second,
			AttendancePath: "/api/SubjectAttendanceReport",
			TrendPath:      "/api/DailyAttendanceReport",
			PdpPath:        "/api/TransportAttendanceReport",
			PhotoPath:      "/api/fileblob",
		},
	}
	metrics := service.NewMetricsService()
	portal := upstream.NewClient(cfg.Upstream, zap.NewNop(), upstream.WithMetrics(metrics))
	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceParams{Portal: portal, Metrics: metrics})
	return newRouter(cfg, routerDeps{
		Attendance: attendanceSvc,
		Photos:     service.NewPhotoService(portal, nil),
		Exports:    service.NewExportService(attendanceSvc, nil, nil, nil),
		Metrics:    metrics,
		Logger:     zap.NewNop(),
	})
}

func withSession(req *http.Request) *http.Request {
	req.Header.Set("X-Student-Id", "ADM-1")
	req.Header.Set("X-User-Id", "u-1")
	req.Header.Set("Authorization", "Bearer opaque")
	req.Header.Set("X-Session-Id", "s-1")
	req.Header.Set("X-Token", "x-1")
	return req
}

func TestRouterDashboardEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/dashboard", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Overall struct {
				Percentage float64 `json:"percentage"`
			} `json:"overall"`
			Subjects []struct {
				Name string `json:"name"`
			} `json:"subjects"`
			Threshold struct {
				Slack int `json:"slack"`
			} `json:"threshold"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 80.0, envelope.Data.Overall.Percentage)
	require.Len(t, envelope.Data.Subjects, 2)
	assert.Equal(t, "Math", envelope.Data.Subjects[0].Name)
	assert.Equal(t, 1, envelope.Data.Threshold.Slack)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterRejectsMissingSession(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/subjects", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouterMethodNotAllowed(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/photos/p-1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterPhotoAndCalculate(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/photos/p-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/calculate", bytes.NewBufferString(`{"total":10,"present":5,"threshold":50}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"at_limit"`)
}

func TestRouterHistoryWithoutDatabase(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/history", nil)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterObservabilityEndpoints(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/health", "/ready", "/metrics", "/metrics/summary"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
