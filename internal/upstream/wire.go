package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	"github.com/noah-isme/attendance-dashboard-api/pkg/attendance"
)

// Field names below mirror the portal payload, including its spelling.

type attendancePayload struct {
	Details *struct {
		OverallLecture    *int             `json:"overallLecture"`
		OverallPresent    *int             `json:"overallPresent"`
		OverallPercentage *float64         `json:"overallPercentage"`
		Subjects          []subjectPayload `json:"subjects"`
	} `json:"stdSubAtdDetails"`
}

type subjectPayload struct {
	ID                   flexibleID `json:"id"`
	Name                 string     `json:"name"`
	TotalLectures        int        `json:"totalLeactures"`
	PresentLectures      int        `json:"presentLeactures"`
	PercentageAttendance *float64   `json:"percentageAttendance"`
}

type pdpPayload struct {
	IsInAbsent bool `json:"isInAbsent"`
}

type dailyPayload struct {
	AbsentDate   string `json:"absentDate"`
	TotalAbsent  int    `json:"totalAbsent"`
	TotalPresent int    `json:"totalPresent"`
}

// flexibleID accepts ids sent either as JSON strings or numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("subject id: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

// toReport converts the payload, recomputing every percentage from the
// clamped counts rather than trusting the portal's figures.
func (p attendancePayload) toReport() *models.AttendanceReport {
	report := &models.AttendanceReport{Subjects: []attendance.SubjectRecord{}}
	if p.Details == nil {
		return report
	}
	for _, s := range p.Details.Subjects {
		report.Subjects = append(report.Subjects, attendance.NormalizeSubject(attendance.SubjectRecord{
			ID:              string(s.ID),
			Name:            s.Name,
			TotalLectures:   s.TotalLectures,
			PresentLectures: s.PresentLectures,
		}))
	}
	if p.Details.OverallLecture != nil && p.Details.OverallPresent != nil {
		total, present := *p.Details.OverallLecture, *p.Details.OverallPresent
		if total < 0 {
			total = 0
		}
		if present < 0 {
			present = 0
		}
		if present > total {
			present = total
		}
		report.Overall = attendance.OverallTotals{
			OverallLecture:    total,
			OverallPresent:    present,
			OverallPercentage: attendance.ComputePercentage(present, total),
		}
		report.HasOverall = true
	} else {
		report.Overall = attendance.SumSubjects(report.Subjects)
	}
	return report
}

var dailyLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02",
	"02-01-2006",
}

func parseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dailyLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// toDailyRecords drops rows with unparseable dates.
func toDailyRecords(rows []dailyPayload) []attendance.DailyRecord {
	records := make([]attendance.DailyRecord, 0, len(rows))
	for _, row := range rows {
		day, ok := parseDay(row.AbsentDate)
		if !ok {
			continue
		}
		records = append(records, attendance.DailyRecord{
			Date:         day,
			TotalPresent: max0(row.TotalPresent),
			TotalAbsent:  max0(row.TotalAbsent),
		})
	}
	return records
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func decodeJSON(r io.Reader, dest interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r, maxJSONBytes))
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("decode portal payload: %w", err)
	}
	return nil
}
