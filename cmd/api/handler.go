package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	chatDelivery "lifehub-backend/internal/chat/delivery"
	notiDelivery "lifehub-backend/internal/notification/delivery"
	"lifehub-backend/internal/realtime"
	"lifehub-backend/pkg/config"
	"lifehub-backend/pkg/identity"
)

type Handler struct {
	chatHandler *chatDelivery.ChatHandler
	notiHandler *notiDelivery.NotificationHandler
	gateway     *realtime.Gateway
	verifier    identity.Verifier
	config      *config.Config
	log         *zap.SugaredLogger
}

func NewHandler(
	chatHandler *chatDelivery.ChatHandler,
	notiHandler *notiDelivery.NotificationHandler,
	gateway *realtime.Gateway,
	verifier identity.Verifier,
	cfg *config.Config,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		chatHandler: chatHandler,
		notiHandler: notiHandler,
		gateway:     gateway,
		verifier:    verifier,
		config:      cfg,
		log:         log,
	}
}

// Engine builds the gin engine with CORS and all routes mounted. The
// caller owns the http.Server wrapping it so shutdown stays in main.
func (h *Handler) Engine() *gin.Engine {
	if h.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.chatHandler, h.notiHandler, h.gateway, h.verifier)
	return r
}
