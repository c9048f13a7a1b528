package delivery

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authdelivery "lifehub-backend/internal/auth/delivery"
	"lifehub-backend/internal/notification/dispatcher"
	"lifehub-backend/internal/notification/repository"
	"lifehub-backend/pkg/fcm"
)

// NotificationHandler exposes the push token registry and the admin test
// send endpoint.
type NotificationHandler struct {
	tokens     repository.TokenRepository
	dispatcher *dispatcher.Dispatcher
	log        *zap.SugaredLogger
}

func NewNotificationHandler(tokens repository.TokenRepository, d *dispatcher.Dispatcher, log *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{tokens: tokens, dispatcher: d, log: log}
}

type registerRequest struct {
	Token    string `json:"token"`
	DeviceID string `json:"deviceId"`
	Platform string `json:"platform"`
}

// Register binds a device token to the authenticated user.
func (h *NotificationHandler) Register(c *gin.Context) {
	principal := authdelivery.PrincipalFromContext(c)

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	if req.Platform == "" {
		req.Platform = "android"
	}

	stored, err := h.tokens.Save(principal.ID, req.Token, req.DeviceID, req.Platform)
	if err != nil {
		h.log.Errorf("[Noti] register failed for user %s: %v", principal.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stored})
}

type unregisterRequest struct {
	Token    string `json:"token"`
	DeviceID string `json:"deviceId"`
}

// Unregister deletes the caller's matching tokens. At least one of token
// or deviceId is required.
func (h *NotificationHandler) Unregister(c *gin.Context) {
	principal := authdelivery.PrincipalFromContext(c)

	var req unregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Token == "" && req.DeviceID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token or deviceId required"})
		return
	}

	err := h.tokens.DeleteMatching(principal.ID, req.Token, req.DeviceID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorf("[Noti] unregister failed for user %s: %v", principal.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unregister failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type sendTestRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// SendTest lets an admin push a test notification to a user, bypassing
// the queue.
func (h *NotificationHandler) SendTest(c *gin.Context) {
	var req sendTestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}
	if req.Title == "" {
		req.Title = "Test"
	}
	if req.Body == "" {
		req.Body = "Test message"
	}

	payload := fcm.Payload{
		Title: req.Title,
		Body:  req.Body,
		Data:  map[string]string{"messageId": "test-" + time.Now().Format("20060102150405")},
	}
	result, err := h.dispatcher.SendToUser(c.Request.Context(), req.UserID, payload, fcm.Options{})
	if err != nil {
		h.log.Errorf("[Noti] send-test failed for user %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "send failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
