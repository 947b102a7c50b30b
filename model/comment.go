package model

import "time"

// Comment is a node in an article's comment forest. A nil ParentID marks a
// top-level comment.
type Comment struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	UserID    uint64  `gorm:"column:user_id;not null;index" json:"user"`
	ArticleID uint64  `gorm:"column:article_id;not null;index:idx_comment_article_parent" json:"article"`
	ParentID  *uint64 `gorm:"column:parent_id;index:idx_comment_article_parent" json:"parent"`

	Content   string    `gorm:"column:content;type:varchar(512);not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	Hash      string    `gorm:"column:hash;size:40;not null" json:"hash"`

	Replies []*Comment `gorm:"-" json:"replies"`
}

// TableName returns the database table name.
func (Comment) TableName() string {
	return "comments"
}

var CommentSchema = Schema{
	Table:      "comments",
	PrimaryKey: "id",
	Columns:    []string{"id", "user_id", "article_id", "parent_id", "content", "created_at", "hash"},
	Ignored:    []string{"Replies"},
}

// IsTopLevel reports whether the comment has no parent.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}
