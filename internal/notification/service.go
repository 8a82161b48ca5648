package notification

import "context"

// Service exposes the user inbox.
type Service struct {
	repo Repository
}

// NewService creates a notification service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns up to limit notifications, newest first.
func (s *Service) List(ctx context.Context, accountID string, unreadOnly bool) ([]Notification, error) {
	return s.repo.List(ctx, accountID, ListQuery{UnreadOnly: unreadOnly, Limit: DefaultListLimit})
}

// MarkRead marks one of the account's notifications as read.
func (s *Service) MarkRead(ctx context.Context, accountID, id string) (Notification, error) {
	return s.repo.MarkRead(ctx, accountID, id)
}

// MarkAllRead marks every unread notification of the account as read.
func (s *Service) MarkAllRead(ctx context.Context, accountID string) (int, error) {
	return s.repo.MarkAllRead(ctx, accountID)
}

// UnreadCount returns how many notifications the account has not read.
func (s *Service) UnreadCount(ctx context.Context, accountID string) (int, error) {
	return s.repo.UnreadCount(ctx, accountID)
}
