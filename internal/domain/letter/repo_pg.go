package letter

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pathlab/pathlab/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, patient_id, content, created_at, updated_at`

func scan(row pgx.Row) (*Letter, error) {
	var l Letter
	err := row.Scan(&l.ID, &l.PatientID, &l.Content, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *repoPG) Upsert(ctx context.Context, l *Letter) (bool, error) {
	existing, err := r.GetByPatient(ctx, l.PatientID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	created := existing == nil

	if created {
		l.ID = uuid.New()
	} else {
		l.ID = existing.ID
	}
	stored, err := scan(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO letter (id, patient_id, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id) DO UPDATE
		SET content = EXCLUDED.content, updated_at = NOW()
		RETURNING `+cols,
		l.ID, l.PatientID, l.Content))
	if err != nil {
		return false, err
	}
	*l = *stored
	return created, nil
}

func (r *repoPG) GetByPatient(ctx context.Context, patientID uuid.UUID) (*Letter, error) {
	l, err := scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM letter WHERE patient_id = $1`, patientID))
	if err != nil {
		return nil, err
	}
	return l, nil
}
