package sampleid

import "regexp"

// Pattern is one declarative extraction rule. Patterns are evaluated in
// ascending Priority order (lower = tried first) and each must expose the
// identifier in its first capturing group.
type Pattern struct {
	Name        string
	Priority    int
	Description string
	re          *regexp.Regexp
}

// patterns is the ranked catalog. The ordering of categories matters:
// explicitly-labelled NHS identifiers first, lab/specimen labels next,
// generic and numeric labels after that, and unlabelled standalone
// identifier-shaped substrings last — those have the highest
// false-positive risk and only act as a last resort.
var patterns = []Pattern{
	// NHS specific patterns (highest priority)
	{
		Name:        "NHS_SAMPLE_ID",
		Priority:    1,
		Description: "NHS Sample ID with explicit label",
		re:          regexp.MustCompile(`(?i)Sample\s*ID\s*:?\s*(NHS[-\s]*\d{6,10})`),
	},
	{
		Name:        "NHS_SAMPLE",
		Priority:    2,
		Description: "NHS Sample with short label",
		re:          regexp.MustCompile(`(?i)Sample\s*:?\s*(NHS[-\s]*\d{6,10})`),
	},
	{
		Name:        "NHS_ID",
		Priority:    3,
		Description: "NHS ID with generic label",
		re:          regexp.MustCompile(`(?i)ID\s*:?\s*(NHS[-\s]*\d{6,10})`),
	},

	// Lab-specific patterns
	{
		Name:        "LAB_ID",
		Priority:    4,
		Description: "Laboratory ID",
		re:          regexp.MustCompile(`(?i)Lab\s*ID\s*:?\s*([A-Z0-9]{6,15})`),
	},
	{
		Name:        "SPECIMEN_ID",
		Priority:    5,
		Description: "Specimen ID",
		re:          regexp.MustCompile(`(?i)Specimen\s*ID\s*:?\s*([A-Z0-9]{6,15})`),
	},
	{
		Name:        "TEST_ID",
		Priority:    6,
		Description: "Test ID",
		re:          regexp.MustCompile(`(?i)Test\s*ID\s*:?\s*([A-Z0-9]{6,15})`),
	},

	// Generic alphanumeric patterns (medium priority)
	{
		Name:        "GENERIC_SAMPLE_ID",
		Priority:    7,
		Description: "Generic alphanumeric Sample ID",
		re:          regexp.MustCompile(`(?i)Sample\s*ID\s*:?\s*([A-Z0-9]{6,15})`),
	},
	{
		Name:        "REFERENCE_ID",
		Priority:    8,
		Description: "Reference ID",
		re:          regexp.MustCompile(`(?i)Reference\s*:?\s*([A-Z0-9]{6,15})`),
	},
	{
		Name:        "BARCODE",
		Priority:    9,
		Description: "Barcode ID",
		re:          regexp.MustCompile(`(?i)Barcode\s*:?\s*([A-Z0-9]{8,15})`),
	},

	// Numeric-only patterns (lower priority)
	{
		Name:        "NUMERIC_SAMPLE_ID",
		Priority:    10,
		Description: "Numeric-only Sample ID",
		re:          regexp.MustCompile(`(?i)Sample\s*ID\s*:?\s*(\d{8,15})`),
	},

	// Fallback patterns (lowest priority)
	{
		Name:        "STANDALONE_NHS",
		Priority:    20,
		Description: "Standalone NHS number",
		re:          regexp.MustCompile(`(?i)\b(NHS[-\s]*\d{6,10})\b`),
	},
	{
		Name:        "STANDALONE_ALPHANUMERIC",
		Priority:    21,
		Description: "Standalone alphanumeric ID",
		re:          regexp.MustCompile(`(?i)\b([A-Z]{2,4}[-\s]*\d{6,10})\b`),
	},
}

// maxPriority is the highest priority value in the catalog, used to derive
// candidate confidence.
var maxPriority = func() int {
	max := 0
	for _, p := range patterns {
		if p.Priority > max {
			max = p.Priority
		}
	}
	return max
}()

// Patterns returns the catalog in priority-ascending order.
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}
