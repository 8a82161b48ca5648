package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a notification is absent or owned by another
// account.
var ErrNotFound = errors.New("notification not found")

// Kind is the display severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Notification is a stored, user-visible record of an event.
type Notification struct {
	ID        string    `json:"id"`
	AccountID string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message describes a notification payload.
type Message struct {
	AccountID string
	Title     string
	Body      string
	Kind      Kind
	// TransactionID is set when the message follows a ledger entry.
	TransactionID string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Notify(ctx context.Context, message Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message Message) error

func (f NotifierFunc) Notify(ctx context.Context, message Message) error {
	return f(ctx, message)
}

// StoreNotifier persists messages so they show up in the user's inbox.
type StoreNotifier struct {
	repo Repository
	now  func() time.Time
}

// NewStoreNotifier constructs a notifier backed by repo.
func NewStoreNotifier(repo Repository) *StoreNotifier {
	return &StoreNotifier{repo: repo, now: time.Now}
}

// Notify stores the message as an unread notification.
func (n *StoreNotifier) Notify(ctx context.Context, message Message) error {
	kind := message.Kind
	if kind == "" {
		kind = KindInfo
	}
	return n.repo.Create(ctx, Notification{
		ID:        uuid.NewString(),
		AccountID: message.AccountID,
		Title:     message.Title,
		Message:   message.Body,
		Kind:      kind,
		CreatedAt: n.now().UTC(),
	})
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Notify writes the message to the structured logger.
func (n *LoggerNotifier) Notify(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("account_id", message.AccountID),
		slog.String("kind", string(message.Kind)),
		slog.String("title", message.Title),
		slog.String("transaction_id", message.TransactionID),
	)
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, message Message) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
