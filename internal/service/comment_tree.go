package service

import (
	"Go_Blog/internal/repo"
	"Go_Blog/model"
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxDepth bounds both reply retrieval and reply creation.
const DefaultMaxDepth = 4

// utcNow keeps stored timestamps comparable across database drivers.
func utcNow() time.Time {
	return time.Now().UTC()
}

// CommentStore is the read side the tree needs. Get returns
// repo.ErrNotFound for unknown ids; Children lists the direct children of
// parentID (top-level comments when nil) within one article, oldest first.
type CommentStore interface {
	Get(ctx context.Context, id uint64) (*model.Comment, error)
	Children(ctx context.Context, articleID uint64, parentID *uint64) ([]model.Comment, error)
}

// CommentTree holds the depth-bounded comment forest rules. It never writes.
type CommentTree struct {
	store    CommentStore
	maxDepth int
	now      func() time.Time
}

// NewCommentTree returns a tree bounded by maxDepth levels.
func NewCommentTree(store CommentStore, maxDepth int) *CommentTree {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &CommentTree{store: store, maxDepth: maxDepth, now: utcNow}
}

// MaxDepth returns the configured bound.
func (t *CommentTree) MaxDepth() int {
	return t.maxDepth
}

// FetchReplies returns the comments under parentID (top-level comments when
// nil) with their replies nested up to maxDepth levels. Nodes on the last
// level carry an empty reply list even when deeper replies exist.
func (t *CommentTree) FetchReplies(ctx context.Context, articleID uint64, parentID *uint64, maxDepth int) ([]*model.Comment, error) {
	if maxDepth <= 0 {
		return []*model.Comment{}, nil
	}
	rows, err := t.store.Children(ctx, articleID, parentID)
	if err != nil {
		return nil, err
	}
	return t.expand(ctx, articleID, wrapComments(rows), maxDepth)
}

// expand fills in replies below roots, which sit on level one.
func (t *CommentTree) expand(ctx context.Context, articleID uint64, roots []*model.Comment, maxDepth int) ([]*model.Comment, error) {
	type item struct {
		node  *model.Comment
		depth int
	}
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{node: roots[i], depth: 1})
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.depth >= maxDepth {
			cur.node.Replies = []*model.Comment{}
			continue
		}
		id := cur.node.ID
		rows, err := t.store.Children(ctx, articleID, &id)
		if err != nil {
			return nil, fmt.Errorf("replies of comment %d: %w", id, err)
		}
		cur.node.Replies = wrapComments(rows)
		for i := len(cur.node.Replies) - 1; i >= 0; i-- {
			stack = append(stack, item{node: cur.node.Replies[i], depth: cur.depth + 1})
		}
	}
	return roots, nil
}

func wrapComments(rows []model.Comment) []*model.Comment {
	out := make([]*model.Comment, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

// ValidateChainDepth reports whether candidate, once stored, would still sit
// within maxDepth levels. The walk follows parent links and stops at a root
// or at a parent id that no longer resolves; a dangling chain is accepted.
func (t *CommentTree) ValidateChainDepth(ctx context.Context, candidate *model.Comment) (bool, error) {
	parentID := candidate.ParentID
	for hops := 0; parentID != nil; hops++ {
		if hops >= t.maxDepth-1 {
			return false, nil
		}
		parent, err := t.store.Get(ctx, *parentID)
		if errors.Is(err, repo.ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		parentID = parent.ParentID
	}
	return true, nil
}

// CreateReply builds a new comment after checking its parent. The result is
// not persisted.
func (t *CommentTree) CreateReply(ctx context.Context, userID uint64, content string, parentID *uint64, articleID uint64) (*model.Comment, error) {
	c := &model.Comment{
		UserID:    userID,
		ArticleID: articleID,
		Content:   content,
		CreatedAt: t.now(),
		Hash:      model.SHA1Hex(content),
	}
	if parentID == nil {
		return c, nil
	}

	parent, err := t.store.Get(ctx, *parentID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrParentNotFound
	}
	if err != nil {
		return nil, err
	}
	if parent.ArticleID != articleID {
		return nil, ErrScopeViolation
	}
	pid := parent.ID
	c.ParentID = &pid

	ok, err := t.ValidateChainDepth(ctx, c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDepthExceeded
	}
	return c, nil
}

// EditComment replaces the content of existing when suppliedHash is the sha1
// of its current content. The stored hash column is not consulted. The
// returned copy carries the hash of the new content.
func (t *CommentTree) EditComment(existing *model.Comment, newContent, suppliedHash string) (*model.Comment, error) {
	if model.SHA1Hex(existing.Content) != suppliedHash {
		return nil, ErrConflict
	}
	updated := *existing
	updated.Replies = nil
	updated.Content = newContent
	updated.Hash = model.SHA1Hex(newContent)
	return &updated, nil
}
