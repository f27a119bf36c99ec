package controllers

import (
	"net/http"

	"messenger/middlewares"
	"messenger/models"
	"messenger/utils"

	"github.com/gin-gonic/gin"
)

// 建群。创建者总是成员。成员集建群时定死，之后没有增删接口，
// 只有 join-group/leave-group 的易失房间订阅。
func CreateGroup(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input struct {
		GroupName string `json:"group_name" binding:"required"`
		MemberIDs []uint `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group := models.Group{
		GroupName: input.GroupName,
		OwnerID:   user.ID,
	}
	if err := groupRepo.Create(&group, input.MemberIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}
	utils.RespondSuccess(c, gin.H{"group_id": group.ID, "group_name": group.GroupName}, nil)
}

// 我所在的群
func MyGroups(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	groups, err := groupRepo.GroupsOf(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}
	utils.RespondSuccess(c, gin.H{"groups": groups}, nil)
}
