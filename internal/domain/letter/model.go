package letter

import (
	"time"

	"github.com/google/uuid"
)

// Letter maps to the letter table. Each patient carries at most one
// letter; a new analysis replaces the content in place.
type Letter struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
