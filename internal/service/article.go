package service

import (
	"Go_Blog/internal/dto"
	"Go_Blog/internal/repo"
	"Go_Blog/model"
	"Go_Blog/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ArticleService manages articles. Writes invalidate the cached article
// lists and feeds.
type ArticleService struct {
	articles *repo.Table[model.Article]
	cache    utils.Cache
	ttl      time.Duration
	pageSize int
	now      func() time.Time
}

// NewArticleService builds an ArticleService. cache may be nil.
func NewArticleService(articles *repo.Table[model.Article], cache utils.Cache, ttl time.Duration, pageSize int) *ArticleService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &ArticleService{articles: articles, cache: cache, ttl: ttl, pageSize: pageSize, now: utcNow}
}

// List returns one page of article summaries. Drafts are only listed for
// writers.
func (s *ArticleService) List(ctx context.Context, viewer *model.User, q dto.ArticleListQuery) (*dto.ArticlePage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = s.pageSize
	}

	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if !viewer.CanWrite() {
		conds = append(conds, "published = ?")
		args = append(args, true)
	}
	if q.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, *q.Category)
	}
	if term := strings.TrimSpace(q.Query); term != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, "%"+term+"%")
	}
	where := strings.Join(conds, " AND ")
	order := articleOrder(q.OrderBy, q.OrderDesc)

	key := utils.BuildCacheKey(utils.CacheKeyArticleList, viewer.CanWrite(), page, size, order, where, fmt.Sprint(args...))
	if s.cache != nil {
		var cached dto.ArticlePage
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	total, err := s.articles.Count(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	rows, err := s.articles.Find(ctx, repo.Query{
		Where:  where,
		Args:   args,
		Order:  order,
		Offset: (page - 1) * size,
		Limit:  size,
	})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Content = ""
	}
	out := &dto.ArticlePage{Page: page, PageSize: size, Total: total, Articles: rows}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
			log.Printf("article cache set: %v", err)
		}
	}
	return out, nil
}

// Published returns every published article with content, newest first.
func (s *ArticleService) Published(ctx context.Context) ([]model.Article, error) {
	return s.articles.Find(ctx, repo.Query{
		Where: "published = ?",
		Args:  []any{true},
		Order: "published_at DESC, id DESC",
	})
}

// Get returns an article the viewer may read.
func (s *ArticleService) Get(ctx context.Context, viewer *model.User, id uint64) (*model.Article, error) {
	a, err := s.articles.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !a.VisibleTo(viewer) {
		return nil, ErrNotFound
	}
	return a, nil
}

// Create stores a new article authored by author.
func (s *ArticleService) Create(ctx context.Context, author *model.User, in dto.ArticleCreateRequest) (*model.Article, error) {
	if !author.CanWrite() {
		return nil, ErrForbidden
	}
	now := s.now()
	a := &model.Article{
		AuthorID:    author.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Content:     in.Content,
		Background:  in.Background,
		Category:    in.Category,
		Published:   in.Published,
		LastUpdated: now,
		Hash:        model.SHA256Hex(in.Content),
	}
	if a.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if a.Published {
		a.PublishedAt = now
	}
	if _, err := s.articles.Insert(ctx, a); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return a, nil
}

// Update applies the present fields of in when OldHash is the hash of the
// current content.
func (s *ArticleService) Update(ctx context.Context, user *model.User, id uint64, in dto.ArticleUpdateRequest) (*model.Article, error) {
	if !user.CanWrite() {
		return nil, ErrForbidden
	}
	a, err := s.articles.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.AuthorID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}
	if model.SHA256Hex(a.Content) != in.OldHash {
		return nil, ErrConflict
	}

	now := s.now()
	if in.Title != nil {
		a.Title = strings.TrimSpace(*in.Title)
		if a.Title == "" {
			return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
		}
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.Background != nil {
		a.Background = *in.Background
	}
	if in.Category != nil {
		a.Category = *in.Category
	}
	if in.Published != nil {
		if *in.Published && !a.Published {
			a.PublishedAt = now
		}
		a.Published = *in.Published
	}
	a.LastUpdated = now
	a.Hash = model.SHA256Hex(a.Content)

	if err = s.articles.Update(ctx, a); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return a, nil
}

// Delete removes an article and its comments. Only the author or an admin
// may delete.
func (s *ArticleService) Delete(ctx context.Context, user *model.User, id uint64) error {
	a, err := s.articles.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if a.AuthorID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}
	err = s.articles.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.articles.WithDB(tx).Delete(ctx, a); err != nil {
			return err
		}
		return tx.Table(model.CommentSchema.Table).Where("article_id = ?", a.ID).Delete(&model.Comment{}).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ArticleService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, utils.CacheKeyArticleList+":*"); err != nil {
		log.Printf("article cache invalidate: %v", err)
	}
	if err := s.cache.Delete(ctx, utils.CacheKeyFeedRSS, utils.CacheKeyFeedSitemap); err != nil {
		log.Printf("feed cache invalidate: %v", err)
	}
}
