package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-dashboard-api/internal/dto"
	"github.com/noah-isme/attendance-dashboard-api/internal/middleware"
	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
	"github.com/noah-isme/attendance-dashboard-api/pkg/response"
)

type attendanceService interface {
	Dashboard(ctx context.Context, creds models.Credentials) (*dto.DashboardResponse, bool, error)
	Subjects(ctx context.Context, creds models.Credentials, limit int) ([]dto.SubjectCard, bool, error)
	Pdp(ctx context.Context, creds models.Credentials) (*dto.PdpCard, bool, error)
	Threshold(ctx context.Context, creds models.Credentials, subjectID string, threshold *float64) (*dto.ThresholdResponse, bool, error)
	Calculate(req dto.CalculateRequest) (*dto.ThresholdCard, error)
	Refresh(ctx context.Context, creds models.Credentials) (*dto.DashboardResponse, error)
	History(ctx context.Context, creds models.Credentials, limit int) (*dto.HistoryResponse, error)
}

// AttendanceHandler exposes the student attendance dashboard.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Dashboard godoc
// @Summary Student attendance dashboard
// @Description Overall and PDP cards, ranked subjects, threshold advice and the daily trend.
// @Tags Attendance
// @Produce json
// @Param X-Student-Id header string true "Admission number"
// @Param X-User-Id header string true "Portal user id"
// @Param Authorization header string true "Bearer portal access token"
// @Param X-Session-Id header string true "Portal session id"
// @Param X-Token header string true "Portal x_token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /attendance/dashboard [get]
func (h *AttendanceHandler) Dashboard(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		return
	}
	dashboard, hit, err := h.service.Dashboard(c.Request.Context(), creds)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(dashboard.Unavailable) > 0 {
		middleware.SetMeta(c, "partial", true)
	}
	respondWithMeta(c, dashboard, hit)
}

// Subjects godoc
// @Summary Ranked subject attendance
// @Tags Attendance
// @Produce json
// @Param limit query int false "Return only the top N subjects"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/subjects [get]
func (h *AttendanceHandler) Subjects(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		return
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, hit, err := h.service.Subjects(c.Request.Context(), creds, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(subjects))
	respondWithMeta(c, subjects, hit)
}

// Pdp godoc
// @Summary PDP attendance summary
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /attendance/pdp [get]
func (h *AttendanceHandler) Pdp(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		return
	}
	card, hit, err := h.service.Pdp(c.Request.Context(), creds)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, card, hit)
}

// Threshold godoc
// @Summary Classes to attend or allowed to miss
// @Tags Attendance
// @Produce json
// @Param subjectId query string false "Subject id; overall totals when omitted"
// @Param threshold query number false "Threshold percent, defaults to the configured value"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attendance/threshold [get]
func (h *AttendanceHandler) Threshold(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		return
	}
	threshold, err := optionalFloat(c, "threshold")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, hit, err := h.service.Threshold(c.Request.Context(), creds, c.Query("subjectId"), threshold)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, result, hit)
}

// Calculate godoc
// @Summary What-if threshold calculator
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.CalculateRequest true "Lecture counts"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /attendance/calculate [post]
func (h *AttendanceHandler) Calculate(c *gin.Context) {
	var req dto.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	result, err := h.service.Calculate(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// Refresh godoc
// @Summary Rebuild the dashboard bypassing cache
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/refresh [post]
func (h *AttendanceHandler) Refresh(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		return
	}
	dashboard, err := h.service.Refresh(c.Request.Context(), creds)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, dashboard, false)
}

// History godoc
// @Summary Persisted attendance snapshots
// @Tags Attendance
// @Produce json
// @Param limit query int false "Maximum snapshots, newest first (default 30, max 365)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	creds, ok := credentialsFromContext(c)
	if !ok {
		return
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.service.History(c.Request.Context(), creds, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, middleware.ExtractMeta(c))
}
