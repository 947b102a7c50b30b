package service

import "strings"

var allowedArticleOrder = map[string]string{
	"publishedat": "published_at",
	"lastupdated": "last_updated",
	"title":       "title",
	"id":          "id",
}

// articleOrder maps a client sort key onto a column, defaulting to newest
// first.
func articleOrder(orderBy string, desc *bool) string {
	column := allowedArticleOrder[strings.ToLower(strings.TrimSpace(orderBy))]
	if column == "" {
		return "published_at DESC, id DESC"
	}
	if desc != nil && !*desc {
		return column + " ASC"
	}
	return column + " DESC"
}
