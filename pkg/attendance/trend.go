package attendance

import "time"

// DailyRecord holds the present and absent counts for one day.
type DailyRecord struct {
	Date         time.Time `json:"date"`
	TotalPresent int       `json:"totalPresent"`
	TotalAbsent  int       `json:"totalAbsent"`
}

// TrendPoint is a day's attendance percentage.
type TrendPoint struct {
	Date       time.Time `json:"date"`
	Present    int       `json:"present"`
	Absent     int       `json:"absent"`
	Percentage float64   `json:"percentage"`
}

// DailyTrend converts the last window records into percentage points. A
// window of zero or less keeps every record.
func DailyTrend(records []DailyRecord, window int) []TrendPoint {
	if window > 0 && len(records) > window {
		records = records[len(records)-window:]
	}
	points := make([]TrendPoint, 0, len(records))
	for _, record := range records {
		points = append(points, TrendPoint{
			Date:       record.Date,
			Present:    record.TotalPresent,
			Absent:     record.TotalAbsent,
			Percentage: ComputePercentage(record.TotalPresent, record.TotalPresent+record.TotalAbsent),
		})
	}
	return points
}
