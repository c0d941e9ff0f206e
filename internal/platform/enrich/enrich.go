// Package enrich is the seam to the external analysis model. The core
// pipeline only sees the Enricher interface and the Bundle shape; the
// vendor wire format stays inside this package.
package enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/pathlab/pathlab/internal/extract/pathology"
)

var (
	// ErrEmptyResponse means the model returned no content at all.
	ErrEmptyResponse = errors.New("enrich: empty model response")
	// ErrMalformedResponse means content came back but no usable JSON
	// bundle could be recovered from it.
	ErrMalformedResponse = errors.New("enrich: malformed model response")
)

// Input is what the model gets: the parsed demographics, the raw report
// text, and the locally parsed result rows.
type Input struct {
	PatientDetails pathology.PatientDetails
	PlainText      string
	TestResults    []pathology.TestResult
}

// Bundle is the enriched analysis: demographics as confirmed by the
// model, result rows with status and meaning filled, and the generated
// letter HTML.
type Bundle struct {
	PatientDetails pathology.PatientDetails `json:"patientDetails"`
	TestResults    []pathology.TestResult   `json:"testResults"`
	DoctorsLetter  string                   `json:"doctorsLetter"`
}

// Enricher produces a Bundle for a report. Implementations must respect
// ctx cancellation and deadlines.
type Enricher interface {
	Enrich(ctx context.Context, in Input) (*Bundle, error)
}

// ValidateBundle checks the minimum shape every usable bundle has: some
// natural identifier for the patient, at least one test result, and a
// non-empty letter.
func ValidateBundle(b *Bundle) error {
	if b.PatientDetails.NHSNumber == "" && b.PatientDetails.Name == "" {
		return fmt.Errorf("bundle carries no patient identifier")
	}
	if len(b.TestResults) == 0 {
		return fmt.Errorf("bundle carries no test results")
	}
	if b.DoctorsLetter == "" {
		return fmt.Errorf("bundle carries no letter")
	}
	return nil
}
