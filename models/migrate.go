package models

import (
	"log"

	"messenger/config"
)

// Migrate 自动迁移所有表
func Migrate() {
	err := config.DB.AutoMigrate(
		&User{},
		&FriendRequest{},
		&Message{},
		&Reaction{},
		&Group{},
		&GroupMember{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
