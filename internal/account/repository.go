package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists accounts. Balances live with the ledger and are not
// stored here.
type Repository interface {
	Create(ctx context.Context, acc Account) error
	Get(ctx context.Context, id string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	List(ctx context.Context, q ListQuery) ([]Account, error)
	Count(ctx context.Context, search string) (int, error)
	SetRole(ctx context.Context, id string, role Role) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectAccount = `SELECT id, name, email, phone, role, password_hash, created_at FROM accounts`

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, acc Account) error {
	id, err := uuid.Parse(acc.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, name, email, phone, role, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, acc.Name, acc.Email, acc.Phone, string(acc.Role), acc.PasswordHash, acc.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

// Get fetches an account by id. Malformed ids are reported as not found.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	return scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE id = $1`, uid))
}

// FindByEmail fetches an account by its lower-cased email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE email = $1`, email))
}

// List returns one page of accounts, newest first.
func (r *PostgresRepository) List(ctx context.Context, q ListQuery) ([]Account, error) {
	rows, err := r.db.Query(ctx, selectAccount+searchClause+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		q.Search, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

// Count returns the number of accounts matching search.
func (r *PostgresRepository) Count(ctx context.Context, search string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`+searchClause, search).Scan(&n)
	return n, err
}

// SetRole updates the role of an existing account.
func (r *PostgresRepository) SetRole(ctx context.Context, id string, role Role) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET role = $1 WHERE id = $2`, string(role), uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const searchClause = ` WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%')`

func scanAccount(row pgx.Row) (Account, error) {
	var (
		id        uuid.UUID
		role      string
		createdAt time.Time
		acc       Account
	)
	if err := row.Scan(&id, &acc.Name, &acc.Email, &acc.Phone, &role, &acc.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acc.ID = id.String()
	acc.Role = Role(role)
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}
