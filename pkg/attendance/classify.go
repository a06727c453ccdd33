package attendance

import (
	"fmt"
	"strconv"
)

// Band buckets a percentage for display.
type Band string

const (
	BandDanger Band = "danger"
	BandWarn   Band = "warn"
	BandOK     Band = "ok"
)

// Classify maps a percentage onto a band: <=50 danger, below 75 warn, otherwise ok.
func Classify(percent float64) Band {
	switch {
	case percent <= 50:
		return BandDanger
	case percent < 75:
		return BandWarn
	default:
		return BandOK
	}
}

// Status summarises a ThresholdResult.
type Status string

const (
	StatusDeficit Status = "deficit"
	StatusAtLimit Status = "at_limit"
	StatusSurplus Status = "surplus"
)

// ThresholdStatus reports whether the result is short of, exactly at, or above the threshold.
func ThresholdStatus(result ThresholdResult) Status {
	switch {
	case result.IsDeficit:
		return StatusDeficit
	case result.Slack == 0:
		return StatusAtLimit
	default:
		return StatusSurplus
	}
}

// StatusMessage renders the human readable advice for a result.
func StatusMessage(result ThresholdResult) string {
	threshold := strconv.FormatFloat(result.ThresholdPercent, 'f', -1, 64)
	switch ThresholdStatus(result) {
	case StatusDeficit:
		return fmt.Sprintf("Attend %d more %s to reach %s%% attendance", result.ClassesRequired, classes(result.ClassesRequired), threshold)
	case StatusAtLimit:
		return fmt.Sprintf("You cannot miss any more classes to maintain %s%% attendance", threshold)
	default:
		return fmt.Sprintf("You can miss %d more %s and still maintain %s%% attendance", result.Slack, classes(result.Slack), threshold)
	}
}

func classes(n int) string {
	if n == 1 {
		return "class"
	}
	return "classes"
}
