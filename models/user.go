package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string         `json:"username" gorm:"unique;not null"`
	Password    string         `json:"-" gorm:"not null"`
	Name        string         `json:"name"`
	Bio         string         `json:"bio"`
	AvatarIndex *int           `json:"avatar_index" gorm:"default:NULL"`
	Online      bool           `json:"online" gorm:"default:false"`
	LastSeen    *time.Time     `json:"last_seen" gorm:"default:NULL"` // 允许 NULL
	LastLogin   *time.Time     `json:"last_login" gorm:"default:NULL"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// 好友关系是对称的：A 的列表里有 B，则 B 的列表里必有 A
	Friends []*User `json:"friends,omitempty" gorm:"many2many:user_friends;joinForeignKey:UserID;joinReferences:FriendID"`
}
