package handler

import (
	"github.com/gin-gonic/gin"

	"messenger/internal/config"
	"messenger/internal/middleware"
	"messenger/pkg/logger"
)

// NewRouter registers every route on a fresh engine.
func NewRouter(
	handlers *Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", handlers.Health.Check)
	router.GET("/server-info", handlers.Health.ServerInfo)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(rateLimitMiddleware.Limit())
		{
			auth.POST("/signup", handlers.Auth.SignUp)
			auth.POST("/login", handlers.Auth.Login)
			auth.POST("/signup-2fa", handlers.Auth.SignUpWith2fa)
			auth.POST("/confirm-2fa", authMiddleware.RequireToken(), handlers.Auth.Confirm2fa)
			auth.POST("/resend-2fa", authMiddleware.RequireToken(), handlers.Auth.Resend2fa)
		}

		protected := v1.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			users := protected.Group("/users")
			{
				users.GET("", handlers.User.List)
				users.GET("/me", handlers.User.Me)
				users.PUT("/me", handlers.User.Update)
				users.GET("/me/friends", handlers.User.MyFriends)
				users.GET("/me/chats", handlers.User.MyChats)
				users.POST("/me/profile", handlers.User.CreateProfile)
				users.POST("/me/password", handlers.User.CreatePassword)
				users.POST("/me/activate", handlers.User.Activate)
				users.POST("/me/go-out", handlers.User.GoOut)
				users.POST("/friends/:id", handlers.User.AddFriend)
				users.DELETE("/friends/:id", handlers.User.RemoveFriend)
				users.GET("/:id", handlers.User.Get)
				users.GET("/:id/is-friend", handlers.User.IsFriend)
			}

			chats := protected.Group("/chats")
			{
				chats.GET("", handlers.Chat.MyChats)
				chats.POST("", handlers.Chat.Create)
				chats.POST("/personal", handlers.Chat.CreatePersonal)
				chats.GET("/:id", handlers.Chat.Get)
				chats.POST("/:id/users/:userId", handlers.Chat.AddUser)
				chats.DELETE("/:id/users/:userId", handlers.Chat.RemoveUser)
				chats.GET("/:id/messages", handlers.Message.List)
				chats.POST("/:id/messages", handlers.Message.Create)
			}

			messages := protected.Group("/messages")
			{
				messages.POST("/read", handlers.Message.Read)
				messages.PUT("/:id", handlers.Message.Update)
				messages.GET("/:id/users-seen", handlers.Message.UsersSeen)
			}
		}
	}

	router.GET("/ws/subscriptions", authMiddleware.RequireAuth(), handlers.Subscription.Subscribe)

	return router
}
