package patient

import (
	"context"

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

const cols = `id, nhs_number, name, date_of_birth, gp_name, created_at, updated_at`

func scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.NHSNumber, &p.Name, &p.DateOfBirth, &p.GPName, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

// FindOrCreate inserts with ON CONFLICT DO NOTHING and refetches by NHS
// number. The conflict path keeps concurrent submissions for the same
// patient from failing each other, and DO NOTHING keeps the surrounding
// transaction usable (a raised 23505 would abort it).
func (r *repoPG) FindOrCreate(ctx context.Context, p *Patient) (bool, error) {
	p.ID = uuid.New()
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, nhs_number, name, date_of_birth, gp_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (nhs_number) DO NOTHING`,
		p.ID, p.NHSNumber, p.Name, p.DateOfBirth, p.GPName)
	if err != nil {
		return false, err
	}
	created := tag.RowsAffected() == 1

	stored, err := scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM patient WHERE nhs_number = $1`, p.NHSNumber))
	if err != nil {
		return false, err
	}
	*p = *stored
	return created, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) GetByNHSNumber(ctx context.Context, nhsNumber string) (*Patient, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM patient WHERE nhs_number = $1`, nhsNumber))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM patient ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
