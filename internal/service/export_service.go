package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-dashboard-api/internal/dto"
	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/pkg/attendance"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
	"github.com/noah-isme/attendance-dashboard-api/pkg/export"
)

type dashboardProvider interface {
	Dashboard(ctx context.Context, creds models.Credentials) (*dto.DashboardResponse, bool, error)
}

type renderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ExportFormat names a downloadable report format.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult is a rendered report ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the ranked subject table as a file.
type ExportService struct {
	dashboards dashboardProvider
	renderers  map[ExportFormat]renderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(dashboards dashboardProvider, logger *zap.Logger, csv, pdf renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		dashboards: dashboards,
		renderers:  map[ExportFormat]renderer{ExportCSV: csv, ExportPDF: pdf},
		logger:     logger,
	}
}

// ParseExportFormat normalises a format query value; empty means CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportPDF:
		return ExportPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// Report renders the student's attendance in the requested format.
func (s *ExportService) Report(ctx context.Context, creds models.Credentials, format ExportFormat) (*ExportResult, error) {
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	dashboard, _, err := s.dashboards.Dashboard(ctx, creds)
	if err != nil {
		return nil, err
	}
	body, err := r.Render(s.dataset(dashboard))
	if err != nil {
		s.logger.Error("render attendance report", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render report")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("attendance-%s-%s.%s", sanitizeFilename(dashboard.StudentID), dashboard.GeneratedAt.Format("20060102"), r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func (s *ExportService) dataset(d *dto.DashboardResponse) export.Dataset {
	rows := make([][]string, 0, len(d.Subjects))
	for _, subject := range d.Subjects {
		rows = append(rows, []string{
			subject.Name,
			strconv.Itoa(subject.PresentLectures),
			strconv.Itoa(subject.TotalLectures),
			strconv.Itoa(subject.AbsentLectures),
			formatPercent(subject.Percentage),
			string(subject.Band),
		})
	}
	summary := []string{
		fmt.Sprintf("Student: %s", d.StudentID),
		fmt.Sprintf("Overall: %d/%d lectures (%s%%)", d.Overall.PresentLectures, d.Overall.TotalLectures, formatPercent(d.Overall.Percentage)),
		d.Threshold.Message,
	}
	if d.Pdp.Total > 0 {
		summary = append(summary, fmt.Sprintf("PDP: %d/%d sessions (%s%%)", d.Pdp.Present, d.Pdp.Total, formatPercent(d.Pdp.Percentage)))
	}
	return export.Dataset{
		Title:     "Attendance Report",
		Summary:   summary,
		Headers:   []string{"Subject", "Present", "Total", "Absent", "Percentage", "Status"},
		Rows:      rows,
		Highlight: bandHighlight,
	}
}

func bandHighlight(row []string) (int, int, int, bool) {
	switch attendance.Band(row[len(row)-1]) {
	case attendance.BandDanger:
		return 248, 215, 218, true
	case attendance.BandWarn:
		return 255, 243, 205, true
	default:
		return 0, 0, 0, false
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "student"
	}
	return b.String()
}
