package pathology

import (
	"regexp"
	"strconv"
)

// Status values attached to parsed rows. An empty status means the range
// could not be interpreted against the value.
const (
	StatusNormal = "Normal"
	StatusHigh   = "High"
	StatusLow    = "Low"
)

var (
	upperBound = regexp.MustCompile(`<([\d.]+)`)
	lowerBound = regexp.MustCompile(`>([\d.]+)`)
	bandBound  = regexp.MustCompile(`([\d.]+)\s*-\s*([\d.]+)`)
)

// DetermineStatus classifies a measured value against its reference
// range. Upper-bound ranges ("<10") report High at or above the
// threshold, lower-bound ranges (">5") report Low at or below it, and
// banded ranges ("13.0 - 17.0") are inclusive on both ends.
func DetermineStatus(value, referenceRange string) string {
	if value == "" || referenceRange == "" {
		return ""
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return ""
	}

	if m := upperBound.FindStringSubmatch(referenceRange); m != nil {
		if threshold, err := strconv.ParseFloat(m[1], 64); err == nil {
			if v < threshold {
				return StatusNormal
			}
			return StatusHigh
		}
	}

	if m := lowerBound.FindStringSubmatch(referenceRange); m != nil {
		if threshold, err := strconv.ParseFloat(m[1], 64); err == nil {
			if v > threshold {
				return StatusNormal
			}
			return StatusLow
		}
	}

	if m := bandBound.FindStringSubmatch(referenceRange); m != nil {
		min, errMin := strconv.ParseFloat(m[1], 64)
		max, errMax := strconv.ParseFloat(m[2], 64)
		if errMin == nil && errMax == nil {
			switch {
			case v < min:
				return StatusLow
			case v > max:
				return StatusHigh
			default:
				return StatusNormal
			}
		}
	}

	return ""
}
