package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultListLimit caps inbox listings.
const DefaultListLimit = 50

// ListQuery selects an account's notifications, newest first.
type ListQuery struct {
	UnreadOnly bool
	Limit      int
}

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n Notification) error
	List(ctx context.Context, accountID string, q ListQuery) ([]Notification, error)
	MarkRead(ctx context.Context, accountID, id string) (Notification, error)
	MarkAllRead(ctx context.Context, accountID string) (int, error)
	UnreadCount(ctx context.Context, accountID string) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed notification repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const notificationColumns = `id, account_id, title, message, kind, read, created_at`

func (r *PostgresRepository) Create(ctx context.Context, n Notification) error {
	_, err := r.db.Exec(ctx, `INSERT INTO notifications (`+notificationColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.AccountID, n.Title, n.Message, string(n.Kind), n.Read, n.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) List(ctx context.Context, accountID string, q ListQuery) ([]Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT `+notificationColumns+` FROM notifications
        WHERE account_id = $1 AND (NOT $2 OR read = FALSE)
        ORDER BY created_at DESC LIMIT $3`, accountID, q.UnreadOnly, listLimit(q.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) MarkRead(ctx context.Context, accountID, id string) (Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Notification{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `UPDATE notifications SET read = TRUE
        WHERE id = $1 AND account_id = $2 RETURNING `+notificationColumns, id, accountID)
	n, err := scanNotification(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Notification{}, ErrNotFound
	}
	return n, err
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, accountID string) (int, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE account_id = $1 AND read = FALSE`, accountID)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

func (r *PostgresRepository) UnreadCount(ctx context.Context, accountID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE account_id = $1 AND read = FALSE`, accountID).Scan(&n)
	return n, err
}

func scanNotification(row pgx.Row) (Notification, error) {
	var (
		id, accountID uuid.UUID
		kind          string
		createdAt     time.Time
		n             Notification
	)
	if err := row.Scan(&id, &accountID, &n.Title, &n.Message, &kind, &n.Read, &createdAt); err != nil {
		return Notification{}, err
	}
	n.ID = id.String()
	n.AccountID = accountID.String()
	n.Kind = Kind(kind)
	n.CreatedAt = createdAt.UTC()
	return n, nil
}

func listLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
