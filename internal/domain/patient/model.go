package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. The NHS number is the natural key;
// the pipeline only ever creates patients, it never edits or removes
// them.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	NHSNumber   string     `db:"nhs_number" json:"nhs_number"`
	Name        string     `db:"name" json:"name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	GPName      *string    `db:"gp_name" json:"gp_name,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
