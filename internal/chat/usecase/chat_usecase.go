package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifehub-backend/internal/chat/domain"
	"lifehub-backend/internal/chat/repository"
	"lifehub-backend/internal/notification/queue"
	"lifehub-backend/internal/presence"
	"lifehub-backend/pkg/storage"
)

// ErrChatNotFound is returned when a referenced chat does not exist.
var ErrChatNotFound = errors.New("chat not found")

// ErrForbidden is returned when a principal reads a chat it does not own.
var ErrForbidden = errors.New("not allowed to access this chat")

// Broadcaster fans an event out to every socket in a chat room. The
// realtime hub implements it; a nil-safe no-op is fine in tests.
type Broadcaster interface {
	BroadcastToChat(chatID, event string, payload any)
}

// Media carries an uploaded attachment through the send path.
type Media struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SendResult is what both user send and admin reply return.
type SendResult struct {
	ChatID  string          `json:"chat_id"`
	Message *domain.Message `json:"message"`
}

type ChatUsecase struct {
	chats       repository.ChatRepository
	media       storage.Store
	presence    presence.Store
	pushQueue   queue.Queue
	broadcaster Broadcaster
	log         *zap.SugaredLogger
}

func NewChatUsecase(
	chats repository.ChatRepository,
	media storage.Store,
	pres presence.Store,
	pushQueue queue.Queue,
	broadcaster Broadcaster,
	log *zap.SugaredLogger,
) *ChatUsecase {
	return &ChatUsecase{
		chats:       chats,
		media:       media,
		presence:    pres,
		pushQueue:   pushQueue,
		broadcaster: broadcaster,
		log:         log,
	}
}

// SendMessage appends a user message, creating the user's chat on first
// use. Media, when present, is uploaded before the message is persisted
// so a storage failure never leaves a dangling message row.
func (u *ChatUsecase) SendMessage(ctx context.Context, userID, body, msgType string, media *Media) (*SendResult, error) {
	chat, err := u.chats.FindOrCreateChat(userID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ChatID:   chat.ID,
		SenderID: userID,
		Type:     normalizeType(msgType),
	}
	if body != "" {
		msg.Body = &body
	}
	if media != nil {
		fileURL, err := u.uploadMedia(ctx, msg.Type, media)
		if err != nil {
			return nil, err
		}
		msg.FileURL = &fileURL
	}

	stored, err := u.chats.AppendMessage(msg)
	if err != nil {
		return nil, err
	}

	u.broadcast(chat.ID, stored)
	return &SendResult{ChatID: chat.ID, Message: stored}, nil
}

// Reply appends an admin message to an existing chat and, when the chat
// owner has no live socket, enqueues a push job. Push is best-effort:
// enqueue failures are logged and dropped. Media goes through the same
// upload path as user sends.
func (u *ChatUsecase) Reply(ctx context.Context, adminID, chatID, body, msgType string, media *Media) (*SendResult, error) {
	chat, err := u.chats.FindChatByID(chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}

	msg := &domain.Message{
		ChatID:   chat.ID,
		SenderID: adminID,
		Type:     normalizeType(msgType),
	}
	if body != "" {
		msg.Body = &body
	}
	if media != nil {
		fileURL, err := u.uploadMedia(ctx, msg.Type, media)
		if err != nil {
			return nil, err
		}
		msg.FileURL = &fileURL
	}

	stored, err := u.chats.AppendMessage(msg)
	if err != nil {
		return nil, err
	}

	u.broadcast(chat.ID, stored)

	if _, online := u.presence.Get(ctx, chat.UserID); !online {
		job := queue.Job{
			UserID: chat.UserID,
			Payload: queue.Payload{
				Title: "New message from support",
				Body:  body,
				Data: map[string]string{
					"chatId":    chat.ID,
					"messageId": stored.ID,
					"type":      "chat_message",
				},
			},
		}
		if err := u.pushQueue.Enqueue(ctx, job); err != nil {
			u.log.Warnw("[Chat] failed to enqueue push job", "chatId", chat.ID, "error", err)
		}
	}

	return &SendResult{ChatID: chat.ID, Message: stored}, nil
}

// ListChats is role-gated: admins see every chat, users only their own.
func (u *ChatUsecase) ListChats(userID, role string) ([]domain.Chat, error) {
	if role == "admin" {
		return u.chats.ListChats()
	}
	chat, err := u.chats.FindChatByUser(userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return []domain.Chat{}, nil
	}
	return []domain.Chat{*chat}, nil
}

// ListMessages returns the full ordered history of a chat. Non-admin
// principals may only read their own chat.
func (u *ChatUsecase) ListMessages(chatID, userID, role string) ([]domain.Message, error) {
	if role != "admin" {
		chat, err := u.chats.FindChatByUser(userID)
		if err != nil {
			return nil, err
		}
		if chat == nil || chat.ID != chatID {
			return nil, ErrForbidden
		}
	}
	return u.chats.ListMessages(chatID)
}

func (u *ChatUsecase) broadcast(chatID string, msg *domain.Message) {
	if u.broadcaster == nil {
		return
	}
	u.broadcaster.BroadcastToChat(chatID, "receive_message", msg)
}

func (u *ChatUsecase) uploadMedia(ctx context.Context, msgType string, media *Media) (string, error) {
	if u.media == nil {
		return "", errors.New("media storage not configured")
	}
	key := mediaFolder(msgType) + "/" + uuid.New().String() + strings.ToLower(filepath.Ext(media.FileName))
	return u.media.Upload(ctx, key, media.ContentType, media.Data)
}

func normalizeType(t string) string {
	switch t {
	case domain.TypeText, domain.TypeImage, domain.TypeVideo, domain.TypeAudio, domain.TypeOther:
		return t
	case "":
		return domain.TypeText
	default:
		return domain.TypeOther
	}
}

func mediaFolder(msgType string) string {
	switch msgType {
	case domain.TypeImage:
		return "images"
	case domain.TypeVideo:
		return "videos"
	case domain.TypeAudio:
		return "audio"
	default:
		return "other"
	}
}
