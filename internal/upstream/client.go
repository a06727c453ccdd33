package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/pkg/attendance"
	"github.com/noah-isme/attendance-dashboard-api/pkg/config"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
)

const (
	EndpointAttendance = "attendance"
	EndpointTrend      = "trend"
	EndpointPdp        = "pdp"
	EndpointPhoto      = "photo"

	maxJSONBytes = 4 << 20
)

type metricsObserver interface {
	ObserveUpstream(endpoint, outcome string, duration time.Duration)
}

// Client talks to the campus portal. It never retries.
type Client struct {
	cfg     config.UpstreamConfig
	http    *http.Client
	metrics metricsObserver
	logger  *zap.Logger
	// MaxPhotoBytes bounds photo downloads; zero disables the limit.
	MaxPhotoBytes int64
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default timeout-bound client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records per-endpoint latency and outcome.
func WithMetrics(m metricsObserver) Option {
	return func(c *Client) { c.metrics = m }
}

// WithMaxPhotoBytes bounds photo downloads.
func WithMaxPhotoBytes(n int64) Option {
	return func(c *Client) { c.MaxPhotoBytes = n }
}

// NewClient constructs a portal client.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAttendance loads per-subject lecture counts and the overall totals.
func (c *Client) FetchAttendance(ctx context.Context, creds models.Credentials) (*models.AttendanceReport, error) {
	query := url.Values{"admissionNumber": {creds.StudentID}}
	var payload attendancePayload
	if err := c.getJSON(ctx, EndpointAttendance, c.cfg.AttendancePath, query, &creds, &payload); err != nil {
		return nil, err
	}
	return payload.toReport(), nil
}

// FetchPdp loads PDP attendance events.
func (c *Client) FetchPdp(ctx context.Context, creds models.Credentials) ([]attendance.PdpRecord, error) {
	pdpType := c.cfg.PdpType
	if pdpType == 0 {
		pdpType = 7
	}
	query := url.Values{
		"admissionNumber": {creds.StudentID},
		"type":            {strconv.Itoa(pdpType)},
	}
	var payload []pdpPayload
	if err := c.getJSON(ctx, EndpointPdp, c.cfg.PdpPath, query, &creds, &payload); err != nil {
		return nil, err
	}
	records := make([]attendance.PdpRecord, len(payload))
	for i, item := range payload {
		records[i] = attendance.PdpRecord{IsInAbsent: item.IsInAbsent}
	}
	return records, nil
}

// FetchDailyTrend loads day-by-day present/absent counts, oldest first.
func (c *Client) FetchDailyTrend(ctx context.Context, creds models.Credentials) ([]attendance.DailyRecord, error) {
	query := url.Values{"admissionNumber": {creds.StudentID}}
	var payload []dailyPayload
	if err := c.getJSON(ctx, EndpointTrend, c.cfg.TrendPath, query, &creds, &payload); err != nil {
		return nil, err
	}
	return toDailyRecords(payload), nil
}

// FetchPhoto downloads a photo blob. Unknown ids map to ErrNotFound.
func (c *Client) FetchPhoto(ctx context.Context, photoID string) (*models.Photo, error) {
	photoID = strings.TrimSpace(photoID)
	if photoID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "photoId is required")
	}
	path := strings.TrimRight(c.cfg.PhotoPath, "/") + "/" + url.PathEscape(photoID)

	resp, finish, err := c.do(ctx, EndpointPhoto, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		finish("not_found")
		return nil, appErrors.Clone(appErrors.ErrNotFound, "photo not found")
	}
	if err := statusError(resp); err != nil {
		finish("status_" + strconv.Itoa(resp.StatusCode))
		return nil, err
	}

	body, err := readLimited(resp.Body, c.MaxPhotoBytes)
	if err != nil {
		finish("read_error")
		return nil, err
	}
	finish("ok")

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}
	return &models.Photo{ContentType: contentType, Body: body}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, creds *models.Credentials, dest interface{}) error {
	resp, finish, err := c.do(ctx, endpoint, path, query, creds)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := statusError(resp); err != nil {
		finish("status_" + strconv.Itoa(resp.StatusCode))
		return err
	}
	if err := decodeJSON(resp.Body, dest); err != nil {
		finish("decode_error")
		return appErrors.WrapAs(err, appErrors.ErrUpstream, "campus portal returned an unreadable payload")
	}
	finish("ok")
	return nil
}

// do issues a GET and returns a finish callback that records the outcome.
func (c *Client) do(ctx context.Context, endpoint, path string, query url.Values, creds *models.Credentials) (*http.Response, func(outcome string), error) {
	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, appErrors.WrapAs(err, appErrors.ErrInternal, "build portal request")
	}
	if creds != nil {
		c.applySession(req, *creds)
	}

	start := time.Now()
	finish := func(outcome string) {
		duration := time.Since(start)
		if c.metrics != nil {
			c.metrics.ObserveUpstream(endpoint, outcome, duration)
		}
		if outcome != "ok" {
			c.logger.Warn("portal request failed",
				zap.String("endpoint", endpoint),
				zap.String("outcome", outcome),
				zap.Duration("latency", duration),
			)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		outcome, mapped := classifyTransportError(err)
		finish(outcome)
		return nil, nil, mapped
	}
	return resp, finish, nil
}

func (c *Client) applySession(req *http.Request, creds models.Credentials) {
	h := req.Header
	h.Set("Accept", "application/json")
	h.Set("Authorization", "Bearer "+creds.AccessToken)
	h.Set("Sessionid", creds.SessionID)
	h.Set("X-Userid", creds.UserID)
	h["X_token"] = []string{creds.XToken}
	h.Set("X-Wb", "1")
	h.Set("X-Rx", "1")
	if c.cfg.ContextID != "" {
		h.Set("X-Contextid", c.cfg.ContextID)
	}
	if c.cfg.Referer != "" {
		h.Set("Referer", c.cfg.Referer)
	}
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrUpstreamUnauthorized, "")
	default:
		return appErrors.WrapAs(fmt.Errorf("portal responded with status %d", resp.StatusCode), appErrors.ErrUpstream, "")
	}
}

// classifyTransportError separates "the portal cannot be reached at all"
// (DNS failure, refused connection) from other transport failures.
func classifyTransportError(err error) (string, error) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return "unreachable", appErrors.WrapAs(err, appErrors.ErrUpstreamUnavailable, "")
	}
	if errors.Is(err, context.Canceled) {
		return "canceled", appErrors.WrapAs(err, appErrors.ErrUpstream, "portal request canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return "timeout", appErrors.WrapAs(err, appErrors.ErrUpstream, "campus portal timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout", appErrors.WrapAs(err, appErrors.ErrUpstream, "campus portal timed out")
	}
	return "transport_error", appErrors.WrapAs(err, appErrors.ErrUpstream, "")
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrUpstream, "read portal response")
		}
		return body, nil
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrUpstream, "read portal response")
	}
	if int64(len(body)) > limit {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "")
	}
	return body, nil
}
