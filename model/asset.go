package model

import "time"

// Asset records a file published by a completed upload.
type Asset struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	UserID uint64 `gorm:"column:user_id;not null;index" json:"user"`

	FileName  string `gorm:"column:file_name;size:255;not null" json:"fileName"`
	FinalName string `gorm:"column:final_name;size:255;not null;uniqueIndex" json:"finalName"`
	Size      int64  `gorm:"column:size;not null" json:"size"`
	Hash      string `gorm:"column:hash;size:64;not null" json:"hash"`
	Backend   string `gorm:"column:backend;size:16;not null" json:"backend"`

	URL string `gorm:"-" json:"url,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName returns the database table name.
func (Asset) TableName() string {
	return "assets"
}

var AssetSchema = Schema{
	Table:      "assets",
	PrimaryKey: "id",
	Columns:    []string{"id", "user_id", "file_name", "final_name", "size", "hash", "backend", "created_at"},
	Ignored:    []string{"URL"},
}
