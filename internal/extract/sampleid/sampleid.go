// Package sampleid extracts the specimen identifier from report text using
// a ranked catalog of label patterns. The primary path is strictly
// first-match-wins in priority order; the all-candidates path exists for
// diagnostic and ambiguous cases.
package sampleid

import (
	"regexp"
	"sort"
	"strings"
)

var internalSpace = regexp.MustCompile(`\s+`)

func init() {
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Priority < patterns[j].Priority
	})
}

// Candidate is one possible sample id found by the all-candidates mode.
type Candidate struct {
	ID         string `json:"id"`
	Pattern    string `json:"pattern"`
	Confidence int    `json:"confidence"`
}

// Extract returns the first identifier captured by the highest-priority
// matching pattern, or "" when no pattern matches. Captured values are
// trimmed and internal whitespace is removed.
func Extract(text string) string {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(text); len(m) >= 2 && m[1] != "" {
			return normalize(m[1])
		}
	}
	return ""
}

// ExtractAll evaluates every pattern, deduplicates identical captured
// values (the first occurrence wins), and returns candidates sorted by
// descending confidence. Confidence is derived from priority:
// max(1, maxPriority+1-priority).
func ExtractAll(text string) []Candidate {
	var results []Candidate
	seen := make(map[string]bool)

	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if len(m) < 2 || m[1] == "" {
			continue
		}
		id := normalize(m[1])
		if seen[id] {
			continue
		}
		seen[id] = true

		confidence := maxPriority + 1 - p.Priority
		if confidence < 1 {
			confidence = 1
		}
		results = append(results, Candidate{
			ID:         id,
			Pattern:    p.Name,
			Confidence: confidence,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

func normalize(s string) string {
	return internalSpace.ReplaceAllString(strings.TrimSpace(s), "")
}
