// Package attendance computes attendance percentages, subject rankings and
// required/missable class counts from raw attendance records.
//
// Every function is pure: inputs are never mutated and no state is kept
// between calls, so the package is safe for concurrent use.
package attendance

import (
	"math"
	"sort"
)

// DefaultThresholdPercent is the minimum attendance percentage used when none is supplied.
const DefaultThresholdPercent = 75.0

// SubjectRecord holds lecture counts for a single subject.
type SubjectRecord struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	TotalLectures        int     `json:"totalLectures"`
	PresentLectures      int     `json:"presentLectures"`
	PercentageAttendance float64 `json:"percentageAttendance"`
}

// OverallTotals aggregates lecture counts across all subjects.
type OverallTotals struct {
	OverallLecture    int     `json:"overallLecture"`
	OverallPresent    int     `json:"overallPresent"`
	OverallPercentage float64 `json:"overallPercentage"`
}

// PdpRecord is a single PDP attendance event.
type PdpRecord struct {
	IsInAbsent bool `json:"isInAbsent"`
}

// PdpSummary counts PDP events.
type PdpSummary struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// ComputePercentage returns 100*present/total, or 0 when total is 0.
func ComputePercentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(present) / float64(total)
}

// NormalizeSubject clamps counts into 0 <= present <= total and recomputes the percentage.
func NormalizeSubject(record SubjectRecord) SubjectRecord {
	if record.TotalLectures < 0 {
		record.TotalLectures = 0
	}
	if record.PresentLectures < 0 {
		record.PresentLectures = 0
	}
	if record.PresentLectures > record.TotalLectures {
		record.PresentLectures = record.TotalLectures
	}
	record.PercentageAttendance = ComputePercentage(record.PresentLectures, record.TotalLectures)
	return record
}

// SumSubjects totals lectures across the provided subjects.
func SumSubjects(records []SubjectRecord) OverallTotals {
	var totals OverallTotals
	for _, record := range records {
		totals.OverallLecture += record.TotalLectures
		totals.OverallPresent += record.PresentLectures
	}
	totals.OverallPercentage = ComputePercentage(totals.OverallPresent, totals.OverallLecture)
	return totals
}

// RankSubjects returns a copy of records ordered by percentage, highest first.
// Subjects with equal percentages keep their input order.
func RankSubjects(records []SubjectRecord) []SubjectRecord {
	ranked := make([]SubjectRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PercentageAttendance > ranked[j].PercentageAttendance
	})
	return ranked
}

// TopN returns at most n subjects from the ranked order.
func TopN(records []SubjectRecord, n int) []SubjectRecord {
	ranked := RankSubjects(records)
	if n <= 0 {
		return ranked[:0]
	}
	if len(ranked) < n {
		return ranked
	}
	return ranked[:n]
}

// AggregatePdp counts total, present and absent PDP events.
func AggregatePdp(records []PdpRecord) PdpSummary {
	summary := PdpSummary{Total: len(records)}
	for _, record := range records {
		if record.IsInAbsent {
			summary.Absent++
		}
	}
	summary.Present = summary.Total - summary.Absent
	return summary
}

// PdpPercentage returns the present share of PDP events.
func PdpPercentage(summary PdpSummary) float64 {
	return ComputePercentage(summary.Present, summary.Total)
}

func ceilRequired(thresholdPercent float64, total int) int {
	// Round away float noise such as 0.75*20 = 15.000000000000002 before taking the ceiling.
	raw := thresholdPercent / 100 * float64(total)
	rounded := math.Round(raw*1e9) / 1e9
	return int(math.Ceil(rounded))
}
