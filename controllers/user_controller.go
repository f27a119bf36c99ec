package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"messenger/middlewares"
	"messenger/models"
	"messenger/services"
	"messenger/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type UserInfoResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Bio         string     `json:"bio"`
	AvatarIndex *int       `json:"avatar_index"`
	Online      bool       `json:"online"`
	LastSeen    *time.Time `json:"last_seen"`
}

func userInfo(user *models.User) UserInfoResponse {
	return UserInfoResponse{
		ID:          user.ID,
		Username:    user.Username,
		Name:        user.Name,
		Bio:         user.Bio,
		AvatarIndex: user.AvatarIndex,
		Online:      user.Online,
		LastSeen:    user.LastSeen,
	}
}

// 用户注册
func Register(c *gin.Context) {
	var userInput struct {
		Username string `json:"username" binding:"required"`
		Name     string `json:"name"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&userInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 检查用户名是否已存在
	if _, err := userRepo.GetByUsername(userInput.Username); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(userInput.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	newUser := models.User{
		Username: strings.TrimSpace(userInput.Username),
		Name:     userInput.Name,
		Password: string(hashedPassword),
	}
	if err := userRepo.Create(&newUser); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := services.GenerateToken(newUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	utils.RespondSuccess(c, gin.H{"token": token, "user": userInfo(&newUser)}, nil)
}

// 用户登录
func Login(c *gin.Context) {
	var loginInput struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := userRepo.GetByUsername(loginInput.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginInput.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	// 更新最后登录时间，失败不影响登录
	if err := userRepo.UpdateLastLogin(user.ID, time.Now()); err != nil {
		log.Println("Failed to update last login:", err)
	}

	token, err := services.GenerateToken(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	utils.RespondSuccess(c, gin.H{"token": token, "user": userInfo(user)}, nil)
}

func GetUserInfo(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	requests, err := userRepo.PendingRequests(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friend requests"})
		return
	}
	pending := make([]gin.H, 0, len(requests))
	for _, r := range requests {
		pending = append(pending, gin.H{
			"from_id":  r.FromID,
			"username": r.FromUser.Username,
			"name":     r.FromUser.Name,
		})
	}

	utils.RespondSuccess(c, gin.H{"user": userInfo(user), "friend_requests": pending}, nil)
}

// 更新资料（昵称/签名/头像）
func UpdateProfile(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var input struct {
		Name        string `json:"name"`
		Bio         string `json:"bio"`
		AvatarIndex *int   `json:"avatar_index"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := userRepo.UpdateProfile(user.ID, input.Name, input.Bio, input.AvatarIndex); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	utils.RespondSuccess(c, gin.H{"ok": true}, nil)
}

// 按用户名/昵称模糊搜索，排除自己，最多 12 条
func SearchUsers(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		utils.RespondSuccess(c, []UserInfoResponse{}, nil)
		return
	}

	users, err := userRepo.Search(query, user.ID, 12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}
	results := make([]UserInfoResponse, 0, len(users))
	for i := range users {
		results = append(results, userInfo(&users[i]))
	}
	utils.RespondSuccess(c, results, nil)
}
