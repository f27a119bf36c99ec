package models

import (
	"gorm.io/gorm"
)

// Group 群组模型
type Group struct {
	gorm.Model
	GroupName string `json:"group_name"`
	OwnerID   uint   `json:"owner_id"`
}

// GroupMember 群组成员模型
type GroupMember struct {
	gorm.Model
	GroupID uint `json:"group_id" gorm:"index;uniqueIndex:idx_group_user"`
	UserID  uint `json:"user_id" gorm:"index;uniqueIndex:idx_group_user"`
}
