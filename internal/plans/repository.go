package plans

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists plans.
type Repository interface {
	Create(ctx context.Context, p Plan) error
	Get(ctx context.Context, id string) (Plan, error)
	Update(ctx context.Context, p Plan) error
	Delete(ctx context.Context, id string) error
	// ListActive returns active plans, cheapest first. An empty operator
	// matches every operator.
	ListActive(ctx context.Context, operator string) ([]Plan, error)
	// ListAll returns every plan ordered by operator then price.
	ListAll(ctx context.Context) ([]Plan, error)
	CountActive(ctx context.Context) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed plan repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectPlan = `SELECT id::text, operator, name, price, validity, data, talktime, description, active, created_at FROM plans`

func (r *PostgresRepository) Create(ctx context.Context, p Plan) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO plans (id, operator, name, price, validity, data, talktime, description, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, p.Operator, p.Name, p.Price, p.Validity, p.Data, p.Talktime, p.Description, p.Active, p.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Plan, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Plan{}, ErrNotFound
	}
	return scanPlan(r.db.QueryRow(ctx, selectPlan+` WHERE id = $1`, uid))
}

func (r *PostgresRepository) Update(ctx context.Context, p Plan) error {
	uid, err := uuid.Parse(p.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE plans SET operator = $2, name = $3, price = $4, validity = $5, data = $6,
        talktime = $7, description = $8, active = $9 WHERE id = $1`,
		uid, p.Operator, p.Name, p.Price, p.Validity, p.Data, p.Talktime, p.Description, p.Active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM plans WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, operator string) ([]Plan, error) {
	return r.list(ctx, selectPlan+` WHERE active AND ($1 = '' OR operator = $1) ORDER BY price, name`, operator)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Plan, error) {
	return r.list(ctx, selectPlan+` ORDER BY operator, price, name`)
}

func (r *PostgresRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM plans WHERE active`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Plan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Operator, &p.Name, &p.Price, &p.Validity, &p.Data,
		&p.Talktime, &p.Description, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
