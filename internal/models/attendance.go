package models

import (
	"time"

	"github.com/noah-isme/attendance-dashboard-api/pkg/attendance"
)

// Credentials carry the campus portal session for one student.
type Credentials struct {
	StudentID   string `validate:"required"`
	UserID      string `validate:"required"`
	AccessToken string `validate:"required"`
	SessionID   string `validate:"required"`
	XToken      string `validate:"required"`
	// ExpiresAt is the access token expiry when it could be read, zero otherwise.
	ExpiresAt time.Time `validate:"-"`
}

// AttendanceReport is the subject attendance returned by the portal.
type AttendanceReport struct {
	Subjects []attendance.SubjectRecord
	Overall  attendance.OverallTotals
	// HasOverall is false when the portal omitted aggregate totals.
	HasOverall bool
}

// Photo is a binary image proxied from the portal.
type Photo struct {
	ContentType string
	Body        []byte
}

// AttendanceSnapshot is a persisted point-in-time summary for one student.
type AttendanceSnapshot struct {
	ID                string    `db:"id" json:"id"`
	StudentID         string    `db:"student_id" json:"studentId"`
	OverallLecture    int       `db:"overall_lecture" json:"overallLecture"`
	OverallPresent    int       `db:"overall_present" json:"overallPresent"`
	OverallPercentage float64   `db:"overall_percentage" json:"overallPercentage"`
	PdpTotal          int       `db:"pdp_total" json:"pdpTotal"`
	PdpPresent        int       `db:"pdp_present" json:"pdpPresent"`
	SubjectCount      int       `db:"subject_count" json:"subjectCount"`
	CapturedAt        time.Time `db:"captured_at" json:"capturedAt"`
}
