package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresLedger persists entries and wallet balances in PostgreSQL. Every
// balance change takes a row lock on the wallet so writers to the same
// account are serialized by the database.
type PostgresLedger struct {
	db    *pgxpool.Pool
	now   func() time.Time
	newID func(Kind) string
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db, now: time.Now, newID: NewTransactionID}
}

const entryColumns = `id::text, transaction_id, account_id::text, kind, mobile_number, operator,
        amount, plan_id, bill_type, status, payment_method, created_at`

// OpenWallet creates a zero balance wallet unless one already exists.
func (l *PostgresLedger) OpenWallet(ctx context.Context, accountID string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO wallets (account_id, balance) VALUES ($1, 0)
        ON CONFLICT (account_id) DO NOTHING`, accountID)
	return err
}

func (l *PostgresLedger) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE account_id = $1`, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrWalletNotFound
	}
	return balance, err
}

func (l *PostgresLedger) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, accountID, amount, EffectDebit)
}

func (l *PostgresLedger) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutate(ctx, accountID, amount, EffectCredit)
}

func (l *PostgresLedger) mutate(ctx context.Context, accountID string, amount decimal.Decimal, effect Effect) (decimal.Decimal, error) {
	if err := validAmount(amount); err != nil {
		return decimal.Zero, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, err := lockWallet(ctx, tx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	next, err := apply(balance, amount, effect)
	if err != nil {
		return decimal.Zero, err
	}
	if err := storeBalance(ctx, tx, accountID, next); err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// Append records an entry without touching any balance.
func (l *PostgresLedger) Append(ctx context.Context, entry Entry) (Entry, error) {
	if err := validateEntry(entry); err != nil {
		return Entry{}, err
	}
	res, err := withTransactionID(entry, l.newID, func(e Entry) (Receipt, error) {
		stored := prepare(e, l.now())
		if err := insertEntry(ctx, l.db, stored); err != nil {
			return Receipt{}, err
		}
		return Receipt{Entry: stored}, nil
	})
	return res.Entry, err
}

// Post locks the wallet, checks funds, inserts the entry and stores the new
// balance in one database transaction.
func (l *PostgresLedger) Post(ctx context.Context, p Posting) (Receipt, error) {
	if err := validateEntry(p.Entry); err != nil {
		return Receipt{}, err
	}
	return withTransactionID(p.Entry, l.newID, func(e Entry) (Receipt, error) {
		return l.post(ctx, e, p.Effect)
	})
}

func (l *PostgresLedger) post(ctx context.Context, e Entry, effect Effect) (Receipt, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Receipt{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, err := lockWallet(ctx, tx, e.AccountID)
	if err != nil {
		return Receipt{}, err
	}
	stored := prepare(e, l.now())
	next, err := apply(balance, stored.Amount, effect)
	if err != nil {
		return Receipt{}, err
	}

	if err := insertEntry(ctx, tx, stored); err != nil {
		return Receipt{}, err
	}
	if effect != EffectNone {
		if err := storeBalance(ctx, tx, e.AccountID, next); err != nil {
			return Receipt{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Receipt{}, err
	}
	return Receipt{Entry: stored, Balance: next}, nil
}

func (l *PostgresLedger) FindByAccount(ctx context.Context, accountID string, q Query) (Page, error) {
	w := &where{}
	w.add("account_id = $%d", accountID)
	if q.Kind != "" {
		w.add("kind = $%d", string(q.Kind))
	}
	return l.page(ctx, w, q.Offset, q.Limit)
}

func (l *PostgresLedger) Get(ctx context.Context, accountID, transactionID string) (Entry, error) {
	w := &where{}
	w.add("transaction_id = $%d", transactionID)
	if accountID != "" {
		w.add("account_id = $%d", accountID)
	}
	row := l.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries`+w.clause(), w.args...)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return e, err
}

func (l *PostgresLedger) Search(ctx context.Context, f Filter) (Page, error) {
	w := &where{}
	if f.Kind != "" {
		w.add("kind = $%d", string(f.Kind))
	}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	if !f.From.IsZero() {
		w.add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		w.add("created_at <= $%d", f.To)
	}
	return l.page(ctx, w, f.Offset, f.Limit)
}

func (l *PostgresLedger) page(ctx context.Context, w *where, offset, limit int) (Page, error) {
	offset, limit = normalizePage(offset, limit)

	var total int
	if err := l.db.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries`+w.clause(), w.args...).Scan(&total); err != nil {
		return Page{}, err
	}

	args := append(append([]any{}, w.args...), limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM ledger_entries%s ORDER BY created_at DESC, transaction_id DESC LIMIT $%d OFFSET $%d`,
		entryColumns, w.clause(), len(w.args)+1, len(w.args)+2)
	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	out := Page{Entries: []Entry{}, Total: total}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Page{}, err
		}
		out.Entries = append(out.Entries, e)
	}
	return out, rows.Err()
}

func (l *PostgresLedger) Aggregate(ctx context.Context, by GroupBy, status Status) ([]Bucket, error) {
	var column string
	switch by {
	case GroupByKind:
		column = "kind"
	case GroupByStatus:
		column = "status"
	default:
		return nil, ErrInvalidGroupBy
	}

	w := &where{}
	if status != "" {
		w.add("status = $%d", string(status))
	}
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*), COALESCE(SUM(amount), 0) FROM ledger_entries%[2]s GROUP BY %[1]s ORDER BY %[1]s`,
		column, w.clause())
	rows, err := l.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Bucket{}
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Key, &b.Count, &b.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (l *PostgresLedger) Summary(ctx context.Context) (Summary, error) {
	const query = `
        SELECT COUNT(*), COALESCE(SUM(amount), 0),
               COUNT(*) FILTER (WHERE status = 'success'),
               COALESCE(SUM(amount) FILTER (WHERE status = 'success'), 0)
        FROM ledger_entries`
	var s Summary
	err := l.db.QueryRow(ctx, query).Scan(&s.TotalCount, &s.TotalAmount, &s.SuccessCount, &s.SuccessAmount)
	return s, err
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertEntry(ctx context.Context, db execer, e Entry) error {
	_, err := db.Exec(ctx, `INSERT INTO ledger_entries
        (id, transaction_id, account_id, kind, mobile_number, operator, amount, plan_id, bill_type, status, payment_method, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.TransactionID, e.AccountID, string(e.Kind), e.MobileNumber, e.Operator, e.Amount,
		e.PlanID, e.BillType, string(e.Status), string(e.PaymentMethod), e.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateTransaction
	}
	return err
}

func lockWallet(ctx context.Context, tx pgx.Tx, accountID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE account_id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrWalletNotFound
	}
	return balance, err
}

func storeBalance(ctx context.Context, tx pgx.Tx, accountID string, balance decimal.Decimal) error {
	_, err := tx.Exec(ctx, `UPDATE wallets SET balance = $2, updated_at = NOW() WHERE account_id = $1`, accountID, balance)
	return err
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var kind, status, method string
	err := row.Scan(&e.ID, &e.TransactionID, &e.AccountID, &kind, &e.MobileNumber, &e.Operator,
		&e.Amount, &e.PlanID, &e.BillType, &status, &method, &e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Kind = Kind(kind)
	e.Status = Status(status)
	e.PaymentMethod = PaymentMethod(method)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// where accumulates AND-joined predicates with positional parameters.
type where struct {
	parts []string
	args  []any
}

func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.parts = append(w.parts, fmt.Sprintf(format, len(w.args)))
}

func (w *where) clause() string {
	if len(w.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.parts, " AND ")
}
