package testresult

import (
	"time"

	"github.com/google/uuid"
)

// Stored status values. Parsed and enriched statuses are uppercased into
// this set before they reach the repository.
const (
	StatusNormal   = "NORMAL"
	StatusHigh     = "HIGH"
	StatusLow      = "LOW"
	StatusCritical = "CRITICAL"
)

// TestResult maps to the test_result table. AnalyzedAt groups the rows of
// one analysis run; (patient_id, test_name, analyzed_at) is unique.
type TestResult struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	SampleID       *string   `db:"sample_id" json:"sample_id,omitempty"`
	TestName       string    `db:"test_name" json:"test_name"`
	Value          string    `db:"value" json:"value"`
	Unit           *string   `db:"unit" json:"unit,omitempty"`
	ReferenceRange string    `db:"reference_range" json:"reference_range"`
	Status         string    `db:"status" json:"status"`
	Meaning        *string   `db:"meaning" json:"meaning,omitempty"`
	AnalyzedAt     time.Time `db:"analyzed_at" json:"analyzed_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SampleHit is a sample-id lookup result together with the patient the
// sample already belongs to.
type SampleHit struct {
	Result           *TestResult `json:"result"`
	PatientNHSNumber string      `json:"patient_nhs_number"`
	PatientName      string      `json:"patient_name"`
}
