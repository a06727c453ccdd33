package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-dashboard-api/internal/dto"
	"github.com/noah-isme/attendance-dashboard-api/internal/middleware"
	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/internal/service"
	"github.com/noah-isme/attendance-dashboard-api/pkg/attendance"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

var handlerCreds = models.Credentials{StudentID: "ADM-7", UserID: "u", AccessToken: "t", SessionID: "s", XToken: "x"}

func newContext(method, target string, body []byte, withCreds bool) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if withCreds {
		c.Set(middleware.ContextCredentialsKey, handlerCreds)
	}
	return c, rec
}

type fakeAttendanceSrv struct {
	dashboard   *dto.DashboardResponse
	subjects    []dto.SubjectCard
	threshold   *dto.ThresholdResponse
	history     *dto.HistoryResponse
	err         error
	hit         bool
	lastLimit   int
	lastSubject string
	lastPercent *float64
	lastCalc    dto.CalculateRequest
	refreshed   bool
}

func (f *fakeAttendanceSrv) Dashboard(context.Context, models.Credentials) (*dto.DashboardResponse, bool, error) {
	return f.dashboard, f.hit, f.err
}

func (f *fakeAttendanceSrv) Subjects(_ context.Context, _ models.Credentials, limit int) ([]dto.SubjectCard, bool, error) {
	f.lastLimit = limit
	return f.subjects, f.hit, f.err
}

func (f *fakeAttendanceSrv) Pdp(context.Context, models.Credentials) (*dto.PdpCard, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return &dto.PdpCard{Total: 4, Present: 3, Absent: 1, Percentage: 75, Band: attendance.BandOK}, f.hit, nil
}

func (f *fakeAttendanceSrv) Threshold(_ context.Context, _ models.Credentials, subjectID string, threshold *float64) (*dto.ThresholdResponse, bool, error) {
	f.lastSubject = subjectID
	f.lastPercent = threshold
	return f.threshold, f.hit, f.err
}

func (f *fakeAttendanceSrv) Calculate(req dto.CalculateRequest) (*dto.ThresholdCard, error) {
	f.lastCalc = req
	if f.err != nil {
		return nil, f.err
	}
	result, err := attendance.ComputeThreshold(*req.Total, *req.Present, 75)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInvalidInput, err.Error())
	}
	return &dto.ThresholdCard{ThresholdResult: result, Status: attendance.ThresholdStatus(result), Message: attendance.StatusMessage(result)}, nil
}

func (f *fakeAttendanceSrv) Refresh(context.Context, models.Credentials) (*dto.DashboardResponse, error) {
	f.refreshed = true
	return f.dashboard, f.err
}

func (f *fakeAttendanceSrv) History(_ context.Context, _ models.Credentials, limit int) (*dto.HistoryResponse, error) {
	f.lastLimit = limit
	return f.history, f.err
}

func TestAttendanceHandlerDashboard(t *testing.T) {
	srv := &fakeAttendanceSrv{dashboard: &dto.DashboardResponse{StudentID: "ADM-7", Unavailable: []string{"trend"}}, hit: true}
	h := NewAttendanceHandler(srv)

	c, rec := newContext(http.MethodGet, "/attendance/dashboard", nil, true)
	h.Dashboard(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, true, envelope.Meta["partial"])
	assert.Contains(t, string(envelope.Data), `"studentId":"ADM-7"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAttendanceHandlerRequiresSession(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceSrv{})
	c, rec := newContext(http.MethodGet, "/attendance/dashboard", nil, false)
	h.Dashboard(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceHandlerMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{appErrors.Clone(appErrors.ErrUpstreamUnauthorized, ""), http.StatusUnauthorized},
		{appErrors.Clone(appErrors.ErrUpstream, ""), http.StatusBadGateway},
		{appErrors.Clone(appErrors.ErrUpstreamUnavailable, ""), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := NewAttendanceHandler(&fakeAttendanceSrv{err: tc.err})
		c, rec := newContext(http.MethodGet, "/attendance/pdp", nil, true)
		h.Pdp(c)
		assert.Equal(t, tc.want, rec.Code)
		assert.NotNil(t, decodeEnvelope(t, rec).Error)
	}
}

func TestAttendanceHandlerSubjectsLimit(t *testing.T) {
	srv := &fakeAttendanceSrv{subjects: []dto.SubjectCard{{ID: "math"}}}
	h := NewAttendanceHandler(srv)

	c, rec := newContext(http.MethodGet, "/attendance/subjects?limit=5", nil, true)
	h.Subjects(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, srv.lastLimit)
	assert.Equal(t, float64(1), decodeEnvelope(t, rec).Meta["count"])

	c, rec = newContext(http.MethodGet, "/attendance/subjects?limit=-1", nil, true)
	h.Subjects(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerThresholdParsesQuery(t *testing.T) {
	srv := &fakeAttendanceSrv{threshold: &dto.ThresholdResponse{Scope: "subject", SubjectID: "phy"}}
	h := NewAttendanceHandler(srv)

	c, rec := newContext(http.MethodGet, "/attendance/threshold?subjectId=phy&threshold=80", nil, true)
	h.Threshold(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "phy", srv.lastSubject)
	require.NotNil(t, srv.lastPercent)
	assert.Equal(t, 80.0, *srv.lastPercent)

	c, rec = newContext(http.MethodGet, "/attendance/threshold?threshold=high", nil, true)
	h.Threshold(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerCalculate(t *testing.T) {
	h := NewAttendanceHandler(&fakeAttendanceSrv{})

	c, rec := newContext(http.MethodPost, "/attendance/calculate", []byte(`{"total":20,"present":18}`), false)
	h.Calculate(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var card struct {
		Slack   int    `json:"slack"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &card))
	assert.Equal(t, 3, card.Slack)
	assert.Equal(t, "surplus", card.Status)
	assert.Equal(t, "You can miss 3 more classes and still maintain 75% attendance", card.Message)

	c, rec = newContext(http.MethodPost, "/attendance/calculate", []byte(`{"total":2,"present":5}`), false)
	h.Calculate(c)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeEnvelope(t, rec).Error.Code)

	c, rec = newContext(http.MethodPost, "/attendance/calculate", []byte(`{"total":`), false)
	h.Calculate(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerRefreshAndHistory(t *testing.T) {
	srv := &fakeAttendanceSrv{
		dashboard: &dto.DashboardResponse{StudentID: "ADM-7"},
		history:   &dto.HistoryResponse{StudentID: "ADM-7"},
	}
	h := NewAttendanceHandler(srv)

	c, rec := newContext(http.MethodPost, "/attendance/refresh", nil, true)
	h.Refresh(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.refreshed)
	assert.Equal(t, false, decodeEnvelope(t, rec).Meta["cache_hit"])

	c, rec = newContext(http.MethodGet, "/attendance/history?limit=10", nil, true)
	h.History(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, srv.lastLimit)

	srv.err = appErrors.ErrSnapshotsUnavailable
	c, rec = newContext(http.MethodGet, "/attendance/history", nil, true)
	h.History(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type fakeExportSrv struct {
	format service.ExportFormat
	err    error
}

func (f *fakeExportSrv) Report(_ context.Context, _ models.Credentials, format service.ExportFormat) (*service.ExportResult, error) {
	f.format = format
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportResult{Filename: "attendance-ADM-7.csv", ContentType: "text/csv", Body: []byte("Subject\n")}, nil
}

func TestExportHandler(t *testing.T) {
	srv := &fakeExportSrv{}
	h := NewExportHandler(srv)

	c, rec := newContext(http.MethodGet, "/attendance/export?format=csv", nil, true)
	h.Export(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportCSV, srv.format)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance-ADM-7.csv"`, rec.Header().Get("Content-Disposition"))

	c, rec = newContext(http.MethodGet, "/attendance/export?format=docx", nil, true)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakePhotoSrv struct {
	photo *models.Photo
	err   error
}

func (f *fakePhotoSrv) Photo(context.Context, string) (*models.Photo, error) {
	return f.photo, f.err
}

func TestPhotoHandler(t *testing.T) {
	h := NewPhotoHandler(&fakePhotoSrv{photo: &models.Photo{ContentType: "image/png", Body: []byte("png")}})
	c, rec := newContext(http.MethodGet, "/photos/p-1", nil, false)
	c.Params = gin.Params{{Key: "photoId", Value: "p-1"}}
	h.Photo(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "private, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "png", rec.Body.String())

	h = NewPhotoHandler(&fakePhotoSrv{err: appErrors.Clone(appErrors.ErrUpstreamUnavailable, "")})
	c, rec = newContext(http.MethodGet, "/photos/p-1", nil, false)
	h.Photo(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"redis":    func(context.Context) error { return nil },
		"database": func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	c, rec := newContext(http.MethodGet, "/ready", nil, false)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)

	h = NewMetricsHandler(service.NewMetricsService(), nil)
	c, rec = newContext(http.MethodGet, "/ready", nil, false)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodGet, "/metrics/summary", nil, false)
	h.Summary(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cacheHitRatio")
}
