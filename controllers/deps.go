package controllers

import (
	"messenger/repository"
	"messenger/services"
)

// 包级依赖，main 启动时注入一次
var (
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	groupRepo   repository.GroupRepository

	hub       *services.Hub
	presence  *services.PresenceTracker
	router    *services.MessageRouter
	receipts  *services.ReadReceiptCoordinator
	reactions *services.ReactionService
)

func Setup(
	users repository.UserRepository,
	messages repository.MessageRepository,
	groups repository.GroupRepository,
	h *services.Hub,
	p *services.PresenceTracker,
	r *services.MessageRouter,
	rc *services.ReadReceiptCoordinator,
	rs *services.ReactionService,
) {
	userRepo = users
	messageRepo = messages
	groupRepo = groups
	hub = h
	presence = p
	router = r
	receipts = rc
	reactions = rs
}
