package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authDelivery "lifehub-backend/internal/auth/delivery"
	chatDelivery "lifehub-backend/internal/chat/delivery"
	notiDelivery "lifehub-backend/internal/notification/delivery"
	"lifehub-backend/internal/realtime"
	"lifehub-backend/pkg/identity"
)

func SetupRoutes(r *gin.Engine, chatHandler *chatDelivery.ChatHandler, notiHandler *notiDelivery.NotificationHandler, gateway *realtime.Gateway, verifier identity.Verifier) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Websocket endpoint; clients authenticate in-band with the
		// identify event.
		api.GET("/ws", gateway.HandleWS)

		// Chat routes (protected)
		chats := api.Group("/chats")
		chats.Use(authDelivery.AuthMiddleware(verifier))
		{
			chats.GET("", chatHandler.ListChats)
			chats.GET("/:chatId/messages", chatHandler.ListMessages)
			chats.POST("/message", chatHandler.SendMessage)
			chats.POST("/reply", authDelivery.RestrictTo("admin"), chatHandler.Reply)
		}

		// Push notification routes (protected)
		noti := api.Group("/noti")
		noti.Use(authDelivery.AuthMiddleware(verifier))
		{
			noti.POST("/register", notiHandler.Register)
			noti.POST("/unregister", notiHandler.Unregister)
			noti.POST("/send-test", authDelivery.RestrictTo("admin"), notiHandler.SendTest)
		}
	}
}
