package service

import (
	"Go_Blog/internal/dto"
	"Go_Blog/internal/repo"
	"Go_Blog/model"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FriendService manages the friend link directory.
type FriendService struct {
	friends *repo.Table[model.FriendLink]
	now     func() time.Time
}

func NewFriendService(friends *repo.Table[model.FriendLink]) *FriendService {
	return &FriendService{friends: friends, now: utcNow}
}

// List returns all links in insertion order.
func (s *FriendService) List(ctx context.Context) ([]model.FriendLink, error) {
	return s.friends.All(ctx)
}

// Get returns one link.
func (s *FriendService) Get(ctx context.Context, id uint64) (*model.FriendLink, error) {
	link, err := s.friends.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return link, err
}

// Create adds a link. New links count as available until first checked.
func (s *FriendService) Create(ctx context.Context, user *model.User, in dto.FriendCreateRequest) (*model.FriendLink, error) {
	if !user.CanWrite() {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	u, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: url must be http or https", ErrInvalidInput)
	}
	link := &model.FriendLink{
		Name:          name,
		Description:   in.Description,
		URL:           u.String(),
		Avatar:        in.Avatar,
		Available:     true,
		LastAvailable: s.now(),
	}
	if _, err = s.friends.Insert(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Delete removes a link.
func (s *FriendService) Delete(ctx context.Context, user *model.User, id uint64) error {
	if !user.CanWrite() {
		return ErrForbidden
	}
	link, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.friends.Delete(ctx, link)
}

// RecordCheck stores the result of an availability probe.
func (s *FriendService) RecordCheck(ctx context.Context, id uint64, available bool, at time.Time) error {
	values := map[string]any{
		"available":    available,
		"last_checked": at,
	}
	if available {
		values["last_available"] = at
	}
	err := s.friends.UpdateColumns(ctx, id, values)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
