package repo

import (
	"Go_Blog/model"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var memDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", memDBSeq.Add(1))
	db, err := OpenSQLite(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func commentTable(db *gorm.DB) *Table[model.Comment] {
	return NewTable(db, model.CommentSchema, func(c *model.Comment) uint64 { return c.ID })
}

func TestTableInsertGet(t *testing.T) {
	ctx := context.Background()
	comments := commentTable(openTestDB(t))

	row := &model.Comment{UserID: 7, ArticleID: 1, Content: "hello", Hash: model.SHA1Hex("hello"), CreatedAt: time.Now()}
	id, err := comments.Insert(ctx, row)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := comments.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
	assert.Nil(t, got.ParentID)
	assert.Nil(t, got.Replies)

	_, err = comments.Get(ctx, id+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableQueryCountFind(t *testing.T) {
	ctx := context.Background()
	comments := commentTable(openTestDB(t))

	root := &model.Comment{UserID: 1, ArticleID: 1, Content: "root", Hash: "x"}
	rootID, err := comments.Insert(ctx, root)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = comments.Insert(ctx, &model.Comment{UserID: 2, ArticleID: 1, ParentID: &rootID, Content: fmt.Sprintf("r%d", i), Hash: "x"})
		require.NoError(t, err)
	}
	_, err = comments.Insert(ctx, &model.Comment{UserID: 2, ArticleID: 2, Content: "other", Hash: "x"})
	require.NoError(t, err)

	children, err := comments.Query(ctx, "article_id = ? AND parent_id = ?", uint64(1), rootID)
	require.NoError(t, err)
	assert.Len(t, children, 3)

	n, err := comments.Count(ctx, "article_id = ? AND parent_id IS NULL", uint64(1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	total, err := comments.Count(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	page, err := comments.Find(ctx, Query{Where: "parent_id = ?", Args: []any{rootID}, Order: "id DESC", Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "r1", page[0].Content)
}

func TestTableUpdateDelete(t *testing.T) {
	ctx := context.Background()
	comments := commentTable(openTestDB(t))

	row := &model.Comment{UserID: 1, ArticleID: 1, Content: "before", Hash: "a"}
	id, err := comments.Insert(ctx, row)
	require.NoError(t, err)

	row.Content = "after"
	row.Hash = "b"
	require.NoError(t, comments.Update(ctx, row))
	got, err := comments.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)
	assert.Equal(t, "b", got.Hash)

	missing := &model.Comment{ID: id + 50, Content: "nope"}
	assert.ErrorIs(t, comments.Update(ctx, missing), ErrNotFound)
	assert.ErrorIs(t, comments.UpdateColumns(ctx, id+50, map[string]any{"content": "x"}), ErrNotFound)

	require.NoError(t, comments.Delete(ctx, got))
	_, err = comments.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableUserKeepsExplicitID(t *testing.T) {
	ctx := context.Background()
	users := NewTable(openTestDB(t), model.UserSchema, func(u *model.User) uint64 { return u.ID })

	id, err := users.Insert(ctx, &model.User{ID: 424242, UserName: "octocat"})
	require.NoError(t, err)
	assert.EqualValues(t, 424242, id)

	all, err := users.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "octocat", all[0].UserName)
}
