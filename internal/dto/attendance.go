package dto

import (
	"time"

	"github.com/noah-isme/attendance-dashboard-api/pkg/attendance"
)

// DashboardResponse is the full student attendance dashboard.
type DashboardResponse struct {
	StudentID   string                  `json:"studentId"`
	Overall     OverallCard             `json:"overall"`
	Pdp         PdpCard                 `json:"pdp"`
	Subjects    []SubjectCard           `json:"subjects"`
	TopSubjects []SubjectCard           `json:"topSubjects"`
	Threshold   ThresholdCard           `json:"threshold"`
	Trend       []attendance.TrendPoint `json:"trend"`
	// Unavailable lists optional sections (pdp, trend) the portal failed to return.
	Unavailable []string  `json:"unavailable,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// OverallCard summarises lectures across every subject.
type OverallCard struct {
	TotalLectures   int             `json:"totalLectures"`
	PresentLectures int             `json:"presentLectures"`
	AbsentLectures  int             `json:"absentLectures"`
	Percentage      float64         `json:"percentage"`
	Band            attendance.Band `json:"band"`
}

// PdpCard summarises PDP attendance.
type PdpCard struct {
	Total      int             `json:"total"`
	Present    int             `json:"present"`
	Absent     int             `json:"absent"`
	Percentage float64         `json:"percentage"`
	Band       attendance.Band `json:"band"`
}

// SubjectCard is one ranked subject row.
type SubjectCard struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	TotalLectures   int             `json:"totalLectures"`
	PresentLectures int             `json:"presentLectures"`
	AbsentLectures  int             `json:"absentLectures"`
	Percentage      float64         `json:"percentage"`
	Band            attendance.Band `json:"band"`
	Threshold       ThresholdCard   `json:"threshold"`
}

// ThresholdCard pairs a threshold result with its status and advice.
type ThresholdCard struct {
	attendance.ThresholdResult
	Status  attendance.Status `json:"status"`
	Message string            `json:"message"`
}

// ThresholdResponse answers a threshold query for the overall totals or one subject.
type ThresholdResponse struct {
	Scope       string `json:"scope"`
	SubjectID   string `json:"subjectId,omitempty"`
	SubjectName string `json:"subjectName,omitempty"`
	ThresholdCard
}

// CalculateRequest is the body of the what-if calculator.
type CalculateRequest struct {
	Total     *int     `json:"total" validate:"required"`
	Present   *int     `json:"present" validate:"required"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// HistoryResponse lists persisted snapshots, newest first.
type HistoryResponse struct {
	StudentID string               `json:"studentId"`
	Snapshots []HistorySnapshotRow `json:"snapshots"`
}

// HistorySnapshotRow is one persisted snapshot.
type HistorySnapshotRow struct {
	OverallLecture    int       `json:"overallLecture"`
	OverallPresent    int       `json:"overallPresent"`
	OverallPercentage float64   `json:"overallPercentage"`
	PdpTotal          int       `json:"pdpTotal"`
	PdpPresent        int       `json:"pdpPresent"`
	SubjectCount      int       `json:"subjectCount"`
	CapturedAt        time.Time `json:"capturedAt"`
}
