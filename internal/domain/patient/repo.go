package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// FindOrCreate resolves the patient carrying p.NHSNumber, creating the
	// row when absent. On return p holds the stored row either way; the
	// bool reports whether a new row was created.
	FindOrCreate(ctx context.Context, p *Patient) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByNHSNumber(ctx context.Context, nhsNumber string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
