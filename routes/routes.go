package routes

import (
	"messenger/controllers"
	"messenger/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes() *gin.Engine {
	r := gin.Default()

	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	r.Use(cors.New(corsConfig))

	r.GET("/ws", controllers.WSController)

	api := r.Group("/api")
	api.POST("/register", controllers.Register)
	api.POST("/login", controllers.Login)

	{
		api.Use(middlewares.TokenAuthMiddleware())
		api.GET("/userinfo", controllers.GetUserInfo)
		api.PUT("/profile", controllers.UpdateProfile)
		api.GET("/search", controllers.SearchUsers)

		api.GET("/friends", controllers.GetFriends)
		api.POST("/friend/request/:id", controllers.SendFriendRequest)
		api.POST("/friend/accept/:id", controllers.AcceptFriendRequest)
		api.POST("/friend/decline/:id", controllers.DeclineFriendRequest)
		api.POST("/friend/remove/:id", controllers.RemoveFriend)

		api.GET("/messages/:friend_id", controllers.GetMessagesWith)

		api.POST("/groups", controllers.CreateGroup)
		api.GET("/groups", controllers.MyGroups)
		api.GET("/groups/:group_id/messages", controllers.GetGroupMessages)
	}

	return r
}
