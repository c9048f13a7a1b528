package delivery

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authdelivery "lifehub-backend/internal/auth/delivery"
	"lifehub-backend/internal/chat/domain"
	"lifehub-backend/internal/chat/usecase"
)

// maxUploadSize bounds multipart media attachments (25 MB).
const maxUploadSize = 25 << 20

// ChatHandler exposes the support-chat HTTP surface.
type ChatHandler struct {
	chats *usecase.ChatUsecase
	log   *zap.SugaredLogger
}

func NewChatHandler(chats *usecase.ChatUsecase, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{chats: chats, log: log}
}

// ListChats returns every chat for admins, the caller's own chat
// otherwise.
func (h *ChatHandler) ListChats(c *gin.Context) {
	principal := authdelivery.PrincipalFromContext(c)

	chats, err := h.chats.ListChats(principal.ID, principal.Role)
	if err != nil {
		h.log.Errorf("[Chat] list chats failed for user %s: %v", principal.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": chats})
}

// ListMessages returns the ordered history of one chat.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	principal := authdelivery.PrincipalFromContext(c)
	chatID := c.Param("chatId")

	messages, err := h.chats.ListMessages(chatID, principal.ID, principal.Role)
	if err != nil {
		if errors.Is(err, usecase.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorf("[Chat] list messages failed for chat %s: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": messages})
}

// SendMessage handles a user message, multipart so it can carry a media
// file. The chat is created lazily on first send.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	principal := authdelivery.PrincipalFromContext(c)

	body := c.PostForm("message")
	msgType := c.PostForm("type")

	media, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body == "" && media == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrEmptyMessage.Error()})
		return
	}

	result, err := h.chats.SendMessage(c.Request.Context(), principal.ID, body, msgType, media)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorf("[Chat] send failed for user %s: %v", principal.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Reply appends an admin message to an existing chat, multipart like
// SendMessage so replies can carry media too.
func (h *ChatHandler) Reply(c *gin.Context) {
	principal := authdelivery.PrincipalFromContext(c)

	chatID := c.PostForm("chat_id")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id is required"})
		return
	}
	body := c.PostForm("message")
	msgType := c.PostForm("type")

	media, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body == "" && media == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrEmptyMessage.Error()})
		return
	}

	result, err := h.chats.Reply(c.Request.Context(), principal.ID, chatID, body, msgType, media)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Errorf("[Chat] reply failed for chat %s: %v", chatID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send reply"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ChatHandler) readUpload(c *gin.Context) (*usecase.Media, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("invalid file upload")
	}
	if fileHeader.Size > maxUploadSize {
		return nil, errors.New("file too large")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, errors.New("failed to read file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		return nil, errors.New("failed to read file")
	}

	return &usecase.Media{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
