package models

import "time"

// 消息类型
const (
	KindText  = "text"
	KindVoice = "voice" // content 为 base64 data URL
	KindImage = "image"
)

type Message struct {
	MessageID  string    `json:"message_id" gorm:"primaryKey;type:varchar(36)"`
	SenderID   uint      `json:"sender_id" gorm:"index:idx_pair"`
	ReceiverID uint      `json:"receiver_id,omitempty" gorm:"index:idx_pair"` // 私聊用，群聊为 0
	GroupID    uint      `json:"group_id,omitempty" gorm:"index"`             // 群聊用，私聊为 0
	Content    string    `json:"content" gorm:"type:mediumtext"`
	Kind       string    `json:"kind" gorm:"type:varchar(10);default:'text'"`
	IsRead     bool      `json:"is_read" gorm:"default:false"` // 是否已读（仅私聊有意义）
	Unsent     bool      `json:"unsent" gorm:"default:false"`  // 撤回后只增不减
	CreatedAt  time.Time `json:"created_at" gorm:"index"`

	Reactions []Reaction `json:"reactions" gorm:"foreignKey:MessageID;references:MessageID"`
}

// Reaction 消息表情回应，只插入不修改，允许重复
type Reaction struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID string    `json:"message_id" gorm:"index;type:varchar(36)"`
	UserID    uint      `json:"user_id"`
	Emoji     string    `json:"emoji" gorm:"type:varchar(16)"`
	CreatedAt time.Time `json:"created_at"`
}
