package model

import "time"

type FriendLink struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Name        string `gorm:"column:name;type:varchar(24);not null" json:"name"`
	Description string `gorm:"column:description;type:varchar(128);not null;default:''" json:"description"`
	URL         string `gorm:"column:url;type:varchar(512);not null" json:"url"`
	Avatar      string `gorm:"column:avatar;type:varchar(512);not null;default:''" json:"avatar"`

	Available     bool      `gorm:"column:available;not null;default:true" json:"available"`
	LastAvailable time.Time `gorm:"column:last_available" json:"lastAvailable"`
	LastChecked   time.Time `gorm:"column:last_checked" json:"lastChecked"`
}

// TableName returns the database table name.
func (FriendLink) TableName() string {
	return "friend_links"
}

var FriendLinkSchema = Schema{
	Table:      "friend_links",
	PrimaryKey: "id",
	Columns:    []string{"id", "name", "description", "url", "avatar", "available", "last_available", "last_checked"},
}
