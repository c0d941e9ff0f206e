package testresult

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// CreateBatch inserts the rows, silently skipping any that collide on
	// (patient_id, test_name, analyzed_at). Returns how many were
	// actually inserted.
	CreateBatch(ctx context.Context, results []*TestResult) (int, error)
	// ListBySession returns the rows of one analysis run.
	ListBySession(ctx context.Context, patientID uuid.UUID, analyzedAt time.Time) ([]*TestResult, error)
	// ListRecent returns the patient's rows analyzed at or after since.
	ListRecent(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*TestResult, error)
	// FindBySampleID looks the sample id up across all patients. Returns
	// pgx.ErrNoRows when the sample is unknown.
	FindBySampleID(ctx context.Context, sampleID string) (*SampleHit, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestResult, int, error)
}
