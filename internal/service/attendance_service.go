package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/attendance-dashboard-api/internal/dto"
	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/pkg/attendance"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
)

const (
	sectionPdp   = "pdp"
	sectionTrend = "trend"

	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

type attendancePortal interface {
	FetchAttendance(ctx context.Context, creds models.Credentials) (*models.AttendanceReport, error)
	FetchPdp(ctx context.Context, creds models.Credentials) ([]attendance.PdpRecord, error)
	FetchDailyTrend(ctx context.Context, creds models.Credentials) ([]attendance.DailyRecord, error)
}

type snapshotEnqueuer interface {
	Record(snapshot models.AttendanceSnapshot)
}

type snapshotLister interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.AttendanceSnapshot, error)
}

// AttendanceServiceConfig tunes dashboard composition.
type AttendanceServiceConfig struct {
	ThresholdPercent float64
	TopSubjects      int
	TrendWindow      int
}

// AttendanceServiceParams groups constructor dependencies.
type AttendanceServiceParams struct {
	Portal    attendancePortal
	Cache     *CacheService
	Metrics   *MetricsService
	Snapshots snapshotEnqueuer
	History   snapshotLister
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    AttendanceServiceConfig
}

// AttendanceService builds student dashboards from portal data.
type AttendanceService struct {
	portal    attendancePortal
	cache     *CacheService
	metrics   *MetricsService
	snapshots snapshotEnqueuer
	history   snapshotLister
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       AttendanceServiceConfig
	flights   singleflight.Group
}

// NewAttendanceService constructs an AttendanceService with sane defaults.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	cfg := params.Config
	if cfg.ThresholdPercent <= 0 || cfg.ThresholdPercent > 100 {
		cfg.ThresholdPercent = attendance.DefaultThresholdPercent
	}
	if cfg.TopSubjects <= 0 {
		cfg.TopSubjects = 5
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = 10
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		portal:    params.Portal,
		cache:     params.Cache,
		metrics:   params.Metrics,
		snapshots: params.Snapshots,
		history:   params.History,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Dashboard returns the student dashboard and whether it came from cache.
func (s *AttendanceService) Dashboard(ctx context.Context, creds models.Credentials) (*dto.DashboardResponse, bool, error) {
	if strings.TrimSpace(creds.StudentID) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	key := SessionKey(creds, "dashboard")
	var cached dto.DashboardResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}
	dashboard, err := s.shared(ctx, creds)
	if err != nil {
		return nil, false, err
	}
	return dashboard, false, nil
}

// Refresh drops cached payloads for the student and rebuilds the dashboard.
func (s *AttendanceService) Refresh(ctx context.Context, creds models.Credentials) (*dto.DashboardResponse, error) {
	if strings.TrimSpace(creds.StudentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if err := s.cache.InvalidateStudent(ctx, creds.StudentID); err != nil {
		s.logger.Warn("refresh continues without invalidation", zap.String("student_id", creds.StudentID), zap.Error(err))
	}
	s.flights.Forget(flightKey(creds))
	return s.shared(ctx, creds)
}

// Subjects returns ranked subjects, trimmed to limit when positive.
func (s *AttendanceService) Subjects(ctx context.Context, creds models.Credentials, limit int) ([]dto.SubjectCard, bool, error) {
	dashboard, hit, err := s.Dashboard(ctx, creds)
	if err != nil {
		return nil, false, err
	}
	subjects := dashboard.Subjects
	if limit > 0 && limit < len(subjects) {
		subjects = subjects[:limit]
	}
	return subjects, hit, nil
}

// Pdp returns the PDP summary card.
func (s *AttendanceService) Pdp(ctx context.Context, creds models.Credentials) (*dto.PdpCard, bool, error) {
	dashboard, hit, err := s.Dashboard(ctx, creds)
	if err != nil {
		return nil, false, err
	}
	for _, section := range dashboard.Unavailable {
		if section == sectionPdp {
			return nil, false, appErrors.Clone(appErrors.ErrUpstream, "PDP attendance is unavailable")
		}
	}
	card := dashboard.Pdp
	return &card, hit, nil
}

// Threshold evaluates the overall totals, or one subject when subjectID is set,
// against threshold (the configured default when nil).
func (s *AttendanceService) Threshold(ctx context.Context, creds models.Credentials, subjectID string, threshold *float64) (*dto.ThresholdResponse, bool, error) {
	dashboard, hit, err := s.Dashboard(ctx, creds)
	if err != nil {
		return nil, false, err
	}
	percent := s.cfg.ThresholdPercent
	if threshold != nil {
		percent = *threshold
	}

	resp := &dto.ThresholdResponse{Scope: "overall"}
	total, present := dashboard.Overall.TotalLectures, dashboard.Overall.PresentLectures
	if subjectID = strings.TrimSpace(subjectID); subjectID != "" {
		subject, ok := findSubject(dashboard.Subjects, subjectID)
		if !ok {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		resp.Scope = "subject"
		resp.SubjectID = subject.ID
		resp.SubjectName = subject.Name
		total, present = subject.TotalLectures, subject.PresentLectures
	}

	card, err := thresholdCard(total, present, percent)
	if err != nil {
		return nil, false, err
	}
	resp.ThresholdCard = card
	return resp, hit, nil
}

// Calculate runs the threshold calculator on caller supplied counts.
func (s *AttendanceService) Calculate(req dto.CalculateRequest) (*dto.ThresholdCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "total and present are required")
	}
	percent := s.cfg.ThresholdPercent
	if req.Threshold != nil {
		percent = *req.Threshold
	}
	card, err := thresholdCard(*req.Total, *req.Present, percent)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// History lists persisted snapshots for the student, newest first. The
// session must be accepted by the portal (or match a cached dashboard of the
// same session) before any snapshot is read.
func (s *AttendanceService) History(ctx context.Context, creds models.Credentials, limit int) (*dto.HistoryResponse, error) {
	if s.history == nil {
		return nil, appErrors.ErrSnapshotsUnavailable
	}
	studentID := creds.StudentID
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if _, _, err := s.Dashboard(ctx, creds); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	snapshots, err := s.history.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to load attendance history")
	}
	rows := make([]dto.HistorySnapshotRow, 0, len(snapshots))
	for _, snap := range snapshots {
		rows = append(rows, dto.HistorySnapshotRow{
			OverallLecture:    snap.OverallLecture,
			OverallPresent:    snap.OverallPresent,
			OverallPercentage: snap.OverallPercentage,
			PdpTotal:          snap.PdpTotal,
			PdpPresent:        snap.PdpPresent,
			SubjectCount:      snap.SubjectCount,
			CapturedAt:        snap.CapturedAt,
		})
	}
	return &dto.HistoryResponse{StudentID: studentID, Snapshots: rows}, nil
}

// shared runs one build per student session no matter how many callers
// arrive while it is in flight. The build itself is detached from the
// caller's cancellation; each caller still stops waiting when its own
// context ends.
func (s *AttendanceService) shared(ctx context.Context, creds models.Credentials) (*dto.DashboardResponse, error) {
	ch := s.flights.DoChan(flightKey(creds), func() (interface{}, error) {
		return s.build(context.WithoutCancel(ctx), creds)
	})
	select {
	case <-ctx.Done():
		return nil, appErrors.WrapAs(ctx.Err(), appErrors.ErrUpstream, "request canceled before the portal answered")
	case res := <-ch:
		if res.Shared {
			s.metrics.RecordSharedFetch()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dto.DashboardResponse), nil
	}
}

func flightKey(creds models.Credentials) string {
	return creds.StudentID + "|" + SessionDigest(creds)
}

// build fetches the three portal sections concurrently. Subject attendance
// is mandatory; PDP and trend failures degrade the dashboard instead.
func (s *AttendanceService) build(ctx context.Context, creds models.Credentials) (*dto.DashboardResponse, error) {
	var (
		report   *models.AttendanceReport
		pdp      []attendance.PdpRecord
		daily    []attendance.DailyRecord
		pdpErr   error
		trendErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = s.portal.FetchAttendance(gctx, creds)
		return err
	})
	g.Go(func() error {
		pdp, pdpErr = s.portal.FetchPdp(gctx, creds)
		return nil
	})
	g.Go(func() error {
		daily, trendErr = s.portal.FetchDailyTrend(gctx, creds)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dashboard, err := s.compose(creds.StudentID, report, pdp, daily)
	if err != nil {
		return nil, err
	}
	if pdpErr != nil {
		s.logger.Warn("pdp section unavailable", zap.String("student_id", creds.StudentID), zap.Error(pdpErr))
		dashboard.Unavailable = append(dashboard.Unavailable, sectionPdp)
	}
	if trendErr != nil {
		s.logger.Warn("trend section unavailable", zap.String("student_id", creds.StudentID), zap.Error(trendErr))
		dashboard.Unavailable = append(dashboard.Unavailable, sectionTrend)
	}

	// Partial dashboards are served but not cached, so the next request retries.
	if len(dashboard.Unavailable) == 0 {
		s.persist(ctx, creds, dashboard)
	}
	if s.snapshots != nil && pdpErr == nil {
		s.snapshots.Record(snapshotOf(dashboard))
	}
	return dashboard, nil
}

func (s *AttendanceService) persist(ctx context.Context, creds models.Credentials, dashboard *dto.DashboardResponse) {
	if !s.cache.Enabled() {
		return
	}
	ttl := s.cache.TTLFor(creds.ExpiresAt, s.now())
	if ttl <= 0 {
		return
	}
	_ = s.cache.Set(ctx, SessionKey(creds, "dashboard"), dashboard, ttl)
}

func (s *AttendanceService) compose(studentID string, report *models.AttendanceReport, pdp []attendance.PdpRecord, daily []attendance.DailyRecord) (*dto.DashboardResponse, error) {
	if report == nil {
		report = &models.AttendanceReport{}
	}
	overall := report.Overall

	ranked := attendance.RankSubjects(report.Subjects)
	subjects := make([]dto.SubjectCard, 0, len(ranked))
	for _, subject := range ranked {
		card, err := thresholdCard(subject.TotalLectures, subject.PresentLectures, s.cfg.ThresholdPercent)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, dto.SubjectCard{
			ID:              subject.ID,
			Name:            subject.Name,
			TotalLectures:   subject.TotalLectures,
			PresentLectures: subject.PresentLectures,
			AbsentLectures:  subject.TotalLectures - subject.PresentLectures,
			Percentage:      subject.PercentageAttendance,
			Band:            attendance.Classify(subject.PercentageAttendance),
			Threshold:       card,
		})
	}
	top := subjects
	if len(top) > s.cfg.TopSubjects {
		top = top[:s.cfg.TopSubjects]
	}

	overallCard, err := thresholdCard(overall.OverallLecture, overall.OverallPresent, s.cfg.ThresholdPercent)
	if err != nil {
		return nil, err
	}

	pdpSummary := attendance.AggregatePdp(pdp)
	pdpPercent := attendance.PdpPercentage(pdpSummary)

	return &dto.DashboardResponse{
		StudentID: studentID,
		Overall: dto.OverallCard{
			TotalLectures:   overall.OverallLecture,
			PresentLectures: overall.OverallPresent,
			AbsentLectures:  overall.OverallLecture - overall.OverallPresent,
			Percentage:      overall.OverallPercentage,
			Band:            attendance.Classify(overall.OverallPercentage),
		},
		Pdp: dto.PdpCard{
			Total:      pdpSummary.Total,
			Present:    pdpSummary.Present,
			Absent:     pdpSummary.Absent,
			Percentage: pdpPercent,
			Band:       attendance.Classify(pdpPercent),
		},
		Subjects:    subjects,
		TopSubjects: top,
		Threshold:   overallCard,
		Trend:       attendance.DailyTrend(daily, s.cfg.TrendWindow),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func thresholdCard(total, present int, percent float64) (dto.ThresholdCard, error) {
	result, err := attendance.ComputeThreshold(total, present, percent)
	if err != nil {
		return dto.ThresholdCard{}, mapEngineError(err)
	}
	return dto.ThresholdCard{
		ThresholdResult: result,
		Status:          attendance.ThresholdStatus(result),
		Message:         attendance.StatusMessage(result),
	}, nil
}

func mapEngineError(err error) error {
	if errors.Is(err, attendance.ErrInvalidInput) {
		return appErrors.WrapAs(err, appErrors.ErrInvalidInput, err.Error())
	}
	return appErrors.FromError(err)
}

func findSubject(subjects []dto.SubjectCard, id string) (dto.SubjectCard, bool) {
	for _, subject := range subjects {
		if subject.ID == id {
			return subject, true
		}
	}
	return dto.SubjectCard{}, false
}

func snapshotOf(d *dto.DashboardResponse) models.AttendanceSnapshot {
	return models.AttendanceSnapshot{
		StudentID:         d.StudentID,
		OverallLecture:    d.Overall.TotalLectures,
		OverallPresent:    d.Overall.PresentLectures,
		OverallPercentage: d.Overall.Percentage,
		PdpTotal:          d.Pdp.Total,
		PdpPresent:        d.Pdp.Present,
		SubjectCount:      len(d.Subjects),
		CapturedAt:        d.GeneratedAt,
	}
}
