package testresult

import (
	"context"
	"time"

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

const cols = `id, patient_id, sample_id, test_name, value, unit, reference_range, status, meaning, analyzed_at, created_at`

func scan(row pgx.Row) (*TestResult, error) {
	var t TestResult
	err := row.Scan(&t.ID, &t.PatientID, &t.SampleID, &t.TestName, &t.Value, &t.Unit,
		&t.ReferenceRange, &t.Status, &t.Meaning, &t.AnalyzedAt, &t.CreatedAt)
	return &t, err
}

func (r *repoPG) CreateBatch(ctx context.Context, results []*TestResult) (int, error) {
	inserted := 0
	for _, t := range results {
		t.ID = uuid.New()
		tag, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO test_result (id, patient_id, sample_id, test_name, value, unit, reference_range, status, meaning, analyzed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (patient_id, test_name, analyzed_at) DO NOTHING`,
			t.ID, t.PatientID, t.SampleID, t.TestName, t.Value, t.Unit,
			t.ReferenceRange, t.Status, t.Meaning, t.AnalyzedAt)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *repoPG) ListBySession(ctx context.Context, patientID uuid.UUID, analyzedAt time.Time) ([]*TestResult, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM test_result WHERE patient_id = $1 AND analyzed_at = $2 ORDER BY test_name`,
		patientID, analyzedAt)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) ListRecent(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*TestResult, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM test_result WHERE patient_id = $1 AND analyzed_at >= $2 ORDER BY analyzed_at DESC, test_name`,
		patientID, since)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) FindBySampleID(ctx context.Context, sampleID string) (*SampleHit, error) {
	var (
		t         TestResult
		nhsNumber string
		name      string
	)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT t.id, t.patient_id, t.sample_id, t.test_name, t.value, t.unit,
		       t.reference_range, t.status, t.meaning, t.analyzed_at, t.created_at,
		       p.nhs_number, p.name
		FROM test_result t
		JOIN patient p ON p.id = t.patient_id
		WHERE t.sample_id = $1
		ORDER BY t.created_at DESC
		LIMIT 1`, sampleID).
		Scan(&t.ID, &t.PatientID, &t.SampleID, &t.TestName, &t.Value, &t.Unit,
			&t.ReferenceRange, &t.Status, &t.Meaning, &t.AnalyzedAt, &t.CreatedAt,
			&nhsNumber, &name)
	if err != nil {
		return nil, err
	}
	return &SampleHit{Result: &t, PatientNHSNumber: nhsNumber, PatientName: name}, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestResult, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM test_result WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM test_result WHERE patient_id = $1 ORDER BY analyzed_at DESC, test_name LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collect(rows pgx.Rows) ([]*TestResult, error) {
	defer rows.Close()
	var items []*TestResult
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
