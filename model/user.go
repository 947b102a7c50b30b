package model

import "time"

// Permission levels.
const (
	PermissionReader = 0
	PermissionWriter = 1
	PermissionAdmin  = 2
)

// User is a GitHub account known to the blog. ID is the GitHub user id.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement:false" json:"id"`

	UserName string `gorm:"column:user_name;type:varchar(64);not null" json:"username"`
	Photo    string `gorm:"column:photo;type:varchar(512);not null;default:''" json:"photo"`

	Permission int `gorm:"column:permission;not null;default:0" json:"permission"`

	LastRead  time.Time `gorm:"column:last_read" json:"lastRead"`
	CreatedAt time.Time `gorm:"column:created_at" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

var UserSchema = Schema{
	Table:      "users",
	PrimaryKey: "id",
	Columns:    []string{"id", "user_name", "photo", "permission", "last_read", "created_at", "updated_at"},
}

// CanWrite reports whether the user may author content.
func (u *User) CanWrite() bool {
	return u != nil && u.Permission >= PermissionWriter
}

// IsAdmin reports whether the user may moderate other users' content.
func (u *User) IsAdmin() bool {
	return u != nil && u.Permission >= PermissionAdmin
}
