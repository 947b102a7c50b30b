package service

import (
	"Go_Blog/internal/repo"
	"Go_Blog/model"
	"context"
	"time"
)

const (
	notificationLimit = 100
	// replies by others to comments of one user, newer than a watermark
	unreadReplies = "parent_id IN (SELECT id FROM comments WHERE user_id = ?) AND user_id <> ? AND created_at > ?"
)

// NotificationService reports replies to a user's comments.
type NotificationService struct {
	comments *repo.Table[model.Comment]
	users    *UserService
	now      func() time.Time
}

func NewNotificationService(comments *repo.Table[model.Comment], users *UserService) *NotificationService {
	return &NotificationService{comments: comments, users: users, now: utcNow}
}

// List returns unread replies, newest first.
func (s *NotificationService) List(ctx context.Context, user *model.User) ([]model.Comment, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	return s.comments.Find(ctx, repo.Query{
		Where: unreadReplies,
		Args:  []any{user.ID, user.ID, user.LastRead},
		Order: "created_at DESC, id DESC",
		Limit: notificationLimit,
	})
}

// Count returns the number of unread replies.
func (s *NotificationService) Count(ctx context.Context, user *model.User) (int64, error) {
	if user == nil {
		return 0, ErrUnauthorized
	}
	return s.comments.Count(ctx, unreadReplies, user.ID, user.ID, user.LastRead)
}

// MarkRead moves the watermark to now.
func (s *NotificationService) MarkRead(ctx context.Context, user *model.User) error {
	if user == nil {
		return ErrUnauthorized
	}
	return s.users.MarkRead(ctx, user.ID, s.now())
}
