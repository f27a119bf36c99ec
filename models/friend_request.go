package models

import "time"

// FriendRequest 好友请求（有方向：From -> To）
type FriendRequest struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FromID    uint      `json:"from_id" gorm:"index;not null;uniqueIndex:idx_from_to"`
	ToID      uint      `json:"to_id" gorm:"index;not null;uniqueIndex:idx_from_to"`
	CreatedAt time.Time `json:"created_at"`

	FromUser User `gorm:"foreignKey:FromID;references:ID" json:"from_user"`
}
