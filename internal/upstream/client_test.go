package upstream

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/pkg/attendance"
	"github.com/noah-isme/attendance-dashboard-api/pkg/config"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
)

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (r *recordingMetrics) ObserveUpstream(endpoint, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]string{}
	}
	r.outcomes[endpoint] = outcome
}

var testCreds = models.Credentials{
	StudentID:   "ADM-42",
	UserID:      "user-7",
	AccessToken: "token-abc",
	SessionID:   "sess-1",
	XToken:      "xt-9",
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingMetrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	metrics := &recordingMetrics{}
	cfg := config.UpstreamConfig{
		BaseURL:        srv.URL,
		Referer:        "https://portal.example/",
		ContextID:      "194",
		AttendancePath: "/api/SubjectAttendanceReport",
		TrendPath:      "/api/DailyAttendanceReport",
		PdpPath:        "/api/TransportAttendanceReport",
		PdpType:        7,
		PhotoPath:      "/api/fileblob",
	}
	return NewClient(cfg, nil, WithMetrics(metrics), WithMaxPhotoBytes(16)), metrics
}

func TestFetchAttendanceSendsSessionHeaders(t *testing.T) {
	client, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/SubjectAttendanceReport", r.URL.Path)
		assert.Equal(t, "ADM-42", r.URL.Query().Get("admissionNumber"))
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		assert.Equal(t, "sess-1", r.Header.Get("Sessionid"))
		assert.Equal(t, "user-7", r.Header.Get("X-Userid"))
		assert.Equal(t, "xt-9", r.Header.Get("X_token"))
		assert.Equal(t, "194", r.Header.Get("X-Contextid"))
		assert.Equal(t, "https://portal.example/", r.Header.Get("Referer"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stdSubAtdDetails":{"overallLecture":30,"overallPresent":24,"overallPercentage":80,
			"subjects":[
				{"id":101,"name":"MATHEMATICS","totalLeactures":20,"presentLeactures":15,"percentageAttendance":75},
				{"id":"phy","name":"physics","totalLeactures":10,"presentLeactures":12,"percentageAttendance":120}
			]}}`))
	})

	report, err := client.FetchAttendance(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, report.Subjects, 2)
	assert.Equal(t, "101", report.Subjects[0].ID)
	assert.Equal(t, 75.0, report.Subjects[0].PercentageAttendance)
	assert.Equal(t, 10, report.Subjects[1].PresentLectures, "present is clamped to total")
	assert.Equal(t, 100.0, report.Subjects[1].PercentageAttendance)
	assert.True(t, report.HasOverall)
	assert.Equal(t, attendance.OverallTotals{OverallLecture: 30, OverallPresent: 24, OverallPercentage: 80}, report.Overall)
	assert.Equal(t, "ok", metrics.outcomes[EndpointAttendance])
}

func TestFetchAttendanceDerivesOverallWhenMissing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"stdSubAtdDetails":{"subjects":[{"id":"a","name":"A","totalLeactures":8,"presentLeactures":6}]}}`))
	})

	report, err := client.FetchAttendance(context.Background(), testCreds)
	require.NoError(t, err)
	assert.False(t, report.HasOverall)
	assert.Equal(t, 8, report.Overall.OverallLecture)
	assert.Equal(t, 75.0, report.Overall.OverallPercentage)
}

func TestFetchAttendanceEmptyPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	report, err := client.FetchAttendance(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Empty(t, report.Subjects)
	assert.Equal(t, attendance.OverallTotals{}, report.Overall)
}

func TestFetchPdp(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/TransportAttendanceReport", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`[{"isInAbsent":true},{"isInAbsent":false},{"isInAbsent":false}]`))
	})

	records, err := client.FetchPdp(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Equal(t, attendance.PdpSummary{Total: 3, Present: 2, Absent: 1}, attendance.AggregatePdp(records))
}

func TestFetchDailyTrendSkipsBadDates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"absentDate":"2024-08-01T00:00:00","totalAbsent":1,"totalPresent":5},
			{"absentDate":"garbage","totalAbsent":0,"totalPresent":6},
			{"absentDate":"2024-08-02","totalAbsent":0,"totalPresent":6}
		]`))
	})

	records, err := client.FetchDailyTrend(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, 6, records[1].TotalPresent)
}

func TestFetchMapsPortalStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   *appErrors.Error
	}{
		{http.StatusUnauthorized, appErrors.ErrUpstreamUnauthorized},
		{http.StatusForbidden, appErrors.ErrUpstreamUnauthorized},
		{http.StatusInternalServerError, appErrors.ErrUpstream},
		{http.StatusBadRequest, appErrors.ErrUpstream},
	}
	for _, tc := range cases {
		client, metrics := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := client.FetchAttendance(context.Background(), testCreds)
		require.Error(t, err)
		assert.True(t, errors.Is(err, tc.want), "status %d", tc.status)
		assert.NotEqual(t, "ok", metrics.outcomes[EndpointAttendance])
	}
}

func TestFetchRejectsMalformedJSON(t *testing.T) {
	client, metrics := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"isInAbsent":`))
	})
	_, err := client.FetchPdp(context.Background(), testCreds)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
	assert.Equal(t, "decode_error", metrics.outcomes[EndpointPdp])
}

func TestFetchPhoto(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/fileblob/p-1":
			assert.Empty(t, r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n"))
		case "/api/fileblob/huge":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	})

	photo, err := client.FetchPhoto(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.ContentType)
	assert.Len(t, photo.Body, 8)

	_, err = client.FetchPhoto(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = client.FetchPhoto(context.Background(), "huge")
	assert.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	_, err = client.FetchPhoto(context.Background(), "  ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFetchPhotoUnreachablePortal(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	client := NewClient(config.UpstreamConfig{BaseURL: "http://" + addr, PhotoPath: "/api/fileblob", Timeout: time.Second}, nil)
	_, err = client.FetchPhoto(context.Background(), "p-1")
	assert.ErrorIs(t, err, appErrors.ErrUpstreamUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}
