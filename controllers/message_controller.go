package controllers

import (
	"log"
	"net/http"

	"messenger/middlewares"
	"messenger/utils"

	"github.com/gin-gonic/gin"
)

// 拉取和某个好友的聊天记录。副作用：对方发来的未读消息全部置为
// 已读，并向对方推一条 messages-read（整个批次只有一条）。
// 撤回的消息不会出现在结果里。
func GetMessagesWith(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	friendID, ok := paramID(c, "friend_id")
	if !ok {
		return
	}

	// 不是好友不让看
	isFriend, err := userRepo.AreFriends(user.ID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check friendship"})
		return
	}
	if !isFriend {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not friends"})
		return
	}

	if _, err := receipts.MarkRead(user.ID, friendID); err != nil {
		// 已读回执失败不阻断拉取
		log.Println("Failed to mark messages read:", err)
	}

	messages, err := messageRepo.ConversationBetween(user.ID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	utils.RespondSuccess(c, gin.H{"messages": messages}, nil)
}

// 拉取群聊记录，仅群成员可见
func GetGroupMessages(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	groupID, ok := paramID(c, "group_id")
	if !ok {
		return
	}

	isMember, err := groupRepo.IsMember(groupID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not part of this group"})
		return
	}

	messages, err := messageRepo.GroupHistory(groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	utils.RespondSuccess(c, gin.H{"messages": messages}, nil)
}
