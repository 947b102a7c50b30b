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

func TestArticleUpdateLocksOnContentHash(t *testing.T) {
	ctx := context.Background()
	tables := openTables(t)
	articles := NewArticleService(tables.Articles, nil, time.Minute, 10)
	writer := &model.User{ID: 1, Permission: model.PermissionWriter}

	// imported row whose hash column was never filled in
	id, err := tables.Articles.Insert(ctx, &model.Article{
		AuthorID: writer.ID, Title: "Imported", Content: "body", Published: true,
	})
	require.NoError(t, err)

	title := "Renamed"
	_, err = articles.Update(ctx, writer, id, dto.ArticleUpdateRequest{Title: &title, OldHash: ""})
	assert.ErrorIs(t, err, ErrConflict)

	updated, err := articles.Update(ctx, writer, id, dto.ArticleUpdateRequest{Title: &title, OldHash: model.SHA256Hex("body")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.SHA256Hex("body"), updated.Hash)

	stored, err := tables.Articles.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.SHA256Hex("body"), stored.Hash)
}
