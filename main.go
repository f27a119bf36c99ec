package main

import (
	"log"

	"messenger/config"
	"messenger/controllers"
	"messenger/models"
	"messenger/repository"
	"messenger/routes"
	"messenger/services"
)

func main() {
	// 初始化数据库
	config.InitDB()
	// 自动迁移
	models.Migrate()

	userRepo := repository.NewMySQLUserRepository(config.DB)
	messageRepo := repository.NewMySQLMessageRepository(config.DB)
	groupRepo := repository.NewMySQLGroupRepository(config.DB)

	hub := services.NewHub()
	presence := services.NewPresenceTracker(hub, userRepo)
	router := services.NewMessageRouter(hub, userRepo, messageRepo, groupRepo)
	receipts := services.NewReadReceiptCoordinator(hub, messageRepo)
	reactions := services.NewReactionService(hub, messageRepo)

	controllers.Setup(userRepo, messageRepo, groupRepo, hub, presence, router, receipts, reactions)

	r := routes.RegisterRoutes()

	addr := ":" + config.Env("PORT", "8082")
	if err := r.Run(addr); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
