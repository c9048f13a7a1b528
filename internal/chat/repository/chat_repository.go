package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lifehub-backend/internal/chat/domain"
)

// ChatRepository persists chat threads and their ordered messages. Any
// adapter must enforce a unique constraint on the chat owning-user and
// return messages ordered by creation time with insertion-order ties.
type ChatRepository interface {
	// FindOrCreateChat returns the user's chat, creating it on first use.
	// A concurrent create racing on the unique constraint is resolved by
	// re-fetching the winner's row.
	FindOrCreateChat(userID string) (*domain.Chat, error)
	// FindChatByUser returns the user's chat or nil when none exists yet.
	FindChatByUser(userID string) (*domain.Chat, error)
	// FindChatByID returns the chat or nil when no such chat exists.
	FindChatByID(chatID string) (*domain.Chat, error)
	// ListChats returns every chat; admin-only view.
	ListChats() ([]domain.Chat, error)
	// AppendMessage validates and persists a message, returning the
	// stored row with server-assigned id and timestamp.
	AppendMessage(msg *domain.Message) (*domain.Message, error)
	// ListMessages returns all messages of a chat, oldest first.
	ListMessages(chatID string) ([]domain.Message, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindOrCreateChat(userID string) (*domain.Chat, error) {
	chat, err := r.FindChatByUser(userID)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}

	chat = &domain.Chat{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(chat).Error; err != nil {
		// Lost the creation race: the unique index on user_id guarantees
		// a single chat per user, so fetch the winner instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.mustFindChatByUser(userID)
		}
		return nil, err
	}
	return chat, nil
}

func (r *chatRepository) FindChatByUser(userID string) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.db.Where("user_id = ?", userID).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) FindChatByID(chatID string) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.db.Where("id = ?", chatID).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) mustFindChatByUser(userID string) (*domain.Chat, error) {
	var chat domain.Chat
	if err := r.db.Where("user_id = ?", userID).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) ListChats() ([]domain.Chat, error) {
	var chats []domain.Chat
	if err := r.db.Order("created_at ASC").Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *chatRepository) AppendMessage(msg *domain.Message) (*domain.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Type == "" {
		msg.Type = domain.TypeText
	}
	msg.CreatedAt = time.Now()
	if err := r.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *chatRepository) ListMessages(chatID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("created_at ASC, seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
