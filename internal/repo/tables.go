package repo

import (
	"Go_Blog/model"

	"gorm.io/gorm"
)

// Tables groups the typed tables of every entity.
type Tables struct {
	Users    *Table[model.User]
	Articles *Table[model.Article]
	Comments *Table[model.Comment]
	Friends  *Table[model.FriendLink]
	Assets   *Table[model.Asset]
}

// NewTables binds every entity schema to db.
func NewTables(db *gorm.DB) *Tables {
	return &Tables{
		Users:    NewTable(db, model.UserSchema, func(r *model.User) uint64 { return r.ID }),
		Articles: NewTable(db, model.ArticleSchema, func(r *model.Article) uint64 { return r.ID }),
		Comments: NewTable(db, model.CommentSchema, func(r *model.Comment) uint64 { return r.ID }),
		Friends:  NewTable(db, model.FriendLinkSchema, func(r *model.FriendLink) uint64 { return r.ID }),
		Assets:   NewTable(db, model.AssetSchema, func(r *model.Asset) uint64 { return r.ID }),
	}
}
