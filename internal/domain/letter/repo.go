package letter

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert stores the letter for l.PatientID, replacing any existing
	// content. On return l holds the stored row; the bool reports whether
	// a new row was created rather than replaced.
	Upsert(ctx context.Context, l *Letter) (bool, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*Letter, error)
}
