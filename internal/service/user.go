package service

import (
	"Go_Blog/internal/metrics"
	"Go_Blog/internal/repo"
	"Go_Blog/model"
	"Go_Blog/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	localUserCacheSize = 1024
	localUserCacheTTL  = 30 * time.Second
)

// UserService loads and stores users. Lookups go through a small
// per-process LRU, then Redis, then the database.
type UserService struct {
	users *repo.Table[model.User]
	cache utils.Cache
	ttl   time.Duration
	local *expirable.LRU[uint64, model.User]
}

// NewUserService builds a UserService. cache may be nil.
func NewUserService(users *repo.Table[model.User], cache utils.Cache, ttl time.Duration) *UserService {
	localTTL := localUserCacheTTL
	if ttl > 0 && ttl < localTTL {
		localTTL = ttl
	}
	return &UserService{
		users: users,
		cache: cache,
		ttl:   ttl,
		local: expirable.NewLRU[uint64, model.User](localUserCacheSize, nil, localTTL),
	}
}

// Get returns the user with id or ErrNotFound.
func (s *UserService) Get(ctx context.Context, id uint64) (*model.User, error) {
	if u, ok := s.local.Get(id); ok {
		metrics.CacheHit("user_local", true)
		return &u, nil
	}
	metrics.CacheHit("user_local", false)

	key := utils.BuildCacheKey(utils.CacheKeyUserInfo, id)
	if s.cache != nil {
		var cached model.User
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			metrics.CacheHit("user_redis", true)
			s.local.Add(id, cached)
			return &cached, nil
		}
		metrics.CacheHit("user_redis", false)
		if !errors.Is(err, utils.ErrCacheMiss) {
			log.Printf("user cache get %d: %v", id, err)
		}
	}

	u, err := s.users.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.remember(ctx, u)
	return u, nil
}

func (s *UserService) remember(ctx context.Context, u *model.User) {
	s.local.Add(u.ID, *u)
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, utils.BuildCacheKey(utils.CacheKeyUserInfo, u.ID), u, s.ttl); err != nil {
		log.Printf("user cache set %d: %v", u.ID, err)
	}
}

func (s *UserService) invalidate(ctx context.Context, id uint64) {
	s.local.Remove(id)
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, utils.BuildCacheKey(utils.CacheKeyUserInfo, id)); err != nil {
		log.Printf("user cache delete %d: %v", id, err)
	}
}

// Upsert stores the profile fields of u. An existing user keeps its
// permission and read watermark.
func (s *UserService) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	existing, err := s.users.Get(ctx, u.ID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		if u.LastRead.IsZero() {
			u.LastRead = utcNow()
		}
		if _, err = s.users.Insert(ctx, u); err != nil {
			return nil, fmt.Errorf("insert user: %w", err)
		}
		s.invalidate(ctx, u.ID)
		return u, nil
	case err != nil:
		return nil, err
	}

	existing.UserName = u.UserName
	existing.Photo = u.Photo
	if err = s.users.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.invalidate(ctx, existing.ID)
	return existing, nil
}

// MarkRead moves the notification watermark of user id to at.
func (s *UserService) MarkRead(ctx context.Context, id uint64, at time.Time) error {
	err := s.users.UpdateColumns(ctx, id, map[string]any{"last_read": at})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// SetPermission changes the permission level of user id.
func (s *UserService) SetPermission(ctx context.Context, id uint64, permission int) error {
	if permission < model.PermissionReader || permission > model.PermissionAdmin {
		return fmt.Errorf("%w: permission %d", ErrInvalidInput, permission)
	}
	err := s.users.UpdateColumns(ctx, id, map[string]any{"permission": permission})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}
