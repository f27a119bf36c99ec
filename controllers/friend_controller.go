package controllers

import (
	"net/http"
	"strconv"

	"messenger/middlewares"
	"messenger/models"
	"messenger/protocol"
	"messenger/services"
	"messenger/utils"

	"github.com/gin-gonic/gin"
)

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// 发送好友请求
func SendFriendRequest(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	targetID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if targetID == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add self"})
		return
	}
	if _, err := userRepo.GetByID(targetID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if already, _ := userRepo.AreFriends(user.ID, targetID); already {
		utils.RespondSuccess(c, gin.H{"ok": true, "message": "Already friends"}, nil)
		return
	}
	if sent, _ := userRepo.HasFriendRequest(user.ID, targetID); sent {
		utils.RespondSuccess(c, gin.H{"ok": true, "message": "Request already sent"}, nil)
		return
	}

	if err := userRepo.CreateFriendRequest(user.ID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
		return
	}

	// 实时通知对方
	hub.BroadcastEvent(services.UserRoom(targetID), protocol.TypeFriendRequest, protocol.FriendRequestPayload{
		FromID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
	})
	utils.RespondSuccess(c, gin.H{"ok": true}, nil)
}

// 接受好友请求：删除请求并写入对称的好友边
func AcceptFriendRequest(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	fromID, ok := paramID(c, "id")
	if !ok {
		return
	}

	// 先消掉请求，防止两次并发 accept 重复生效
	deleted, err := userRepo.DeleteFriendRequest(fromID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept request"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No such request"})
		return
	}

	if err := userRepo.AddFriendEdge(user.ID, fromID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add friend"})
		return
	}

	hub.BroadcastEvent(services.UserRoom(fromID), protocol.TypeFriendAccepted, protocol.FriendAcceptedPayload{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
	})
	utils.RespondSuccess(c, gin.H{"ok": true}, nil)
}

// 拒绝好友请求
func DeclineFriendRequest(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	fromID, ok := paramID(c, "id")
	if !ok {
		return
	}

	deleted, err := userRepo.DeleteFriendRequest(fromID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decline request"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No such request"})
		return
	}
	utils.RespondSuccess(c, gin.H{"ok": true}, nil)
}

// 删除好友，双向边一起删
func RemoveFriend(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	friendID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := userRepo.RemoveFriendEdge(user.ID, friendID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove friend"})
		return
	}
	utils.RespondSuccess(c, gin.H{"ok": true}, nil)
}

// 好友列表：带最后一条消息预览和未读标记。撤回的消息不会出现在预览里。
func GetFriends(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	friends, err := userRepo.Friends(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friends"})
		return
	}

	list := make([]gin.H, 0, len(friends))
	for i := range friends {
		friend := &friends[i]
		var lastMessage *models.Message
		lastMessage, err = messageRepo.LastBetween(user.ID, friend.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
			return
		}
		hasUnread, err := messageRepo.HasUnreadFrom(friend.ID, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
			return
		}
		list = append(list, gin.H{
			"user":         userInfo(friend),
			"last_message": lastMessage,
			"has_unread":   hasUnread,
		})
	}
	utils.RespondSuccess(c, gin.H{"friends": list}, nil)
}
