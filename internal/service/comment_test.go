package service

import (
	"Go_Blog/internal/dto"
	"Go_Blog/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct{ posted []*model.Comment }

func (n *recordingNotifier) CommentPosted(_ *model.Article, _ *model.User, c *model.Comment) {
	n.posted = append(n.posted, c)
}

func newCommentFixture(t *testing.T, pageSize int) (*CommentService, *recordingNotifier, *model.Article) {
	t.Helper()
	tables := openTables(t)
	article := &model.Article{AuthorID: 1, Title: "t", Content: "c", Published: true, Hash: model.SHA256Hex("c")}
	_, err := tables.Articles.Insert(context.Background(), article)
	require.NoError(t, err)
	tree := NewCommentTree(NewTableCommentStore(tables.Comments), DefaultMaxDepth)
	notifier := &recordingNotifier{}
	return NewCommentService(tree, tables.Comments, tables.Articles, notifier, pageSize), notifier, article
}

func TestCommentServiceDepthLimit(t *testing.T) {
	ctx := context.Background()
	svc, notifier, article := newCommentFixture(t, 10)
	user := &model.User{ID: 5}

	var parent *uint64
	for level := 1; level <= DefaultMaxDepth; level++ {
		c, err := svc.Post(ctx, user, article.ID, dto.CommentCreateRequest{Content: "level", Parent: parent})
		require.NoError(t, err, "level %d", level)
		id := c.ID
		parent = &id
	}
	_, err := svc.Post(ctx, user, article.ID, dto.CommentCreateRequest{Content: "too deep", Parent: parent})
	assert.ErrorIs(t, err, ErrDepthExceeded)
	assert.Len(t, notifier.posted, DefaultMaxDepth)

	_, err = svc.Post(ctx, user, article.ID, dto.CommentCreateRequest{Content: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Post(ctx, nil, article.ID, dto.CommentCreateRequest{Content: "anon"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	page, err := svc.Forest(ctx, nil, article.ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	depth, node := 1, page.Comments[0]
	for len(node.Replies) > 0 {
		node = node.Replies[0]
		depth++
	}
	assert.Equal(t, DefaultMaxDepth, depth)
	assert.NotNil(t, node.Replies)
}

func TestCommentServiceForestPaging(t *testing.T) {
	ctx := context.Background()
	svc, _, article := newCommentFixture(t, 2)
	user := &model.User{ID: 5}
	for i := 0; i < 5; i++ {
		_, err := svc.Post(ctx, user, article.ID, dto.CommentCreateRequest{Content: "top"})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	page, err := svc.Forest(ctx, nil, article.ID, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, [2]int{4, 5}, page.Range)
	require.Len(t, page.Comments, 1)

	first, err := svc.Forest(ctx, nil, article.ID, 1)
	require.NoError(t, err)
	assert.True(t, first.Comments[0].CreatedAt.After(first.Comments[1].CreatedAt) ||
		first.Comments[0].ID > first.Comments[1].ID)

	_, err = svc.Forest(ctx, nil, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentServiceDeleteSubtree(t *testing.T) {
	ctx := context.Background()
	svc, _, article := newCommentFixture(t, 10)
	owner := &model.User{ID: 5}
	other := &model.User{ID: 6}
	admin := &model.User{ID: 7, Permission: model.PermissionAdmin}

	root, err := svc.Post(ctx, owner, article.ID, dto.CommentCreateRequest{Content: "root"})
	require.NoError(t, err)
	child, err := svc.Post(ctx, other, article.ID, dto.CommentCreateRequest{Content: "child", Parent: &root.ID})
	require.NoError(t, err)
	_, err = svc.Post(ctx, owner, article.ID, dto.CommentCreateRequest{Content: "grandchild", Parent: &child.ID})
	require.NoError(t, err)
	keep, err := svc.Post(ctx, other, article.ID, dto.CommentCreateRequest{Content: "keep"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, other, article.ID, root.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, admin, article.ID+1, root.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, admin, article.ID, root.ID))

	total, err := svc.comments.Count(ctx, "article_id = ?", article.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	_, err = svc.comments.Get(ctx, keep.ID)
	assert.NoError(t, err)
}
