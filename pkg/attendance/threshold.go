package attendance

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *InvalidInputError.
var ErrInvalidInput = errors.New("invalid attendance input")

// InvalidInputError reports counts that cannot come from a consistent feed.
type InvalidInputError struct {
	Total     int
	Present   int
	Threshold float64
	Reason    string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid attendance input (total=%d, present=%d): %s", e.Total, e.Present, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ThresholdResult describes how far attendance sits above or below a threshold.
//
// Slack is measured against the lectures held so far. It does not account
// for the denominator growing as future lectures are added, so a positive
// slack is not a guarantee about the final term percentage.
type ThresholdResult struct {
	Total            int     `json:"total"`
	Present          int     `json:"present"`
	ThresholdPercent float64 `json:"thresholdPercent"`
	RequiredPresent  int     `json:"requiredPresent"`
	Slack            int     `json:"slack"`
	IsDeficit        bool    `json:"isDeficit"`
	ClassesRequired  int     `json:"classesRequired"`
}

// ComputeDefaultThreshold is ComputeThreshold at DefaultThresholdPercent.
func ComputeDefaultThreshold(total, present int) (ThresholdResult, error) {
	return ComputeThreshold(total, present, DefaultThresholdPercent)
}

// ComputeThreshold derives required, missable or missing classes for the
// given counts. Inconsistent counts are rejected, never clamped.
func ComputeThreshold(total, present int, thresholdPercent float64) (ThresholdResult, error) {
	switch {
	case total < 0:
		return ThresholdResult{}, &InvalidInputError{Total: total, Present: present, Threshold: thresholdPercent, Reason: "total is negative"}
	case present < 0:
		return ThresholdResult{}, &InvalidInputError{Total: total, Present: present, Threshold: thresholdPercent, Reason: "present is negative"}
	case present > total:
		return ThresholdResult{}, &InvalidInputError{Total: total, Present: present, Threshold: thresholdPercent, Reason: "present exceeds total"}
	case thresholdPercent < 0 || thresholdPercent > 100:
		return ThresholdResult{}, &InvalidInputError{Total: total, Present: present, Threshold: thresholdPercent, Reason: "threshold must be within 0-100"}
	}

	result := ThresholdResult{Total: total, Present: present, ThresholdPercent: thresholdPercent}
	if total == 0 {
		return result, nil
	}

	result.RequiredPresent = ceilRequired(thresholdPercent, total)
	result.Slack = present - result.RequiredPresent
	result.IsDeficit = result.Slack < 0
	result.ClassesRequired = result.Slack
	if result.IsDeficit {
		result.ClassesRequired = -result.Slack
	}
	return result, nil
}
