package model

import "time"

type Article struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	AuthorID uint64 `gorm:"column:author;not null;index" json:"author"`

	Title       string `gorm:"column:title;type:varchar(24);not null" json:"title"`
	Description string `gorm:"column:description;type:varchar(128);not null;default:''" json:"description"`
	Content     string `gorm:"column:content;type:text;not null" json:"content,omitempty"`
	Background  string `gorm:"column:background;type:varchar(512);not null;default:''" json:"background"`
	Category    uint8  `gorm:"column:category;not null;default:0" json:"category"`

	Published   bool      `gorm:"column:published;not null;default:false;index" json:"published"`
	PublishedAt time.Time `gorm:"column:published_at" json:"publishedAt"`
	LastUpdated time.Time `gorm:"column:last_updated" json:"lastUpdated"`

	Hash string `gorm:"column:hash;size:64;not null" json:"hash"`
}

// TableName returns the database table name.
func (Article) TableName() string {
	return "articles"
}

var ArticleSchema = Schema{
	Table:      "articles",
	PrimaryKey: "id",
	Columns: []string{
		"id", "author", "title", "description", "content", "background",
		"category", "published", "published_at", "last_updated", "hash",
	},
}

// VisibleTo reports whether the article can be read by the given user.
func (a *Article) VisibleTo(u *User) bool {
	return a.Published || u.CanWrite()
}
