package domain

import (
	"errors"
	"time"
)

// ErrEmptyMessage rejects messages carrying neither text nor media.
var ErrEmptyMessage = errors.New("message must have a text body or a file")

// Message types. Anything else is stored as-is and treated like "other".
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeVideo = "video"
	TypeAudio = "audio"
	TypeOther = "other"
)

// Chat is the single persistent conversation thread between one end-user
// and the admin group. Admins do not own chats; they participate in all
// of them. Created lazily on the user's first outbound message, never
// deleted in normal operation.
type Chat struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is immutable once created: there is no edit or delete path.
// Ordering within a chat is created_at ascending, ties broken by the
// monotonically increasing Seq assigned on insert.
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Seq       int64     `json:"-" gorm:"autoIncrement;uniqueIndex"`
	ChatID    string    `json:"chat_id" gorm:"index;not null"`
	SenderID  string    `json:"sender_id" gorm:"not null"`
	Body      *string   `json:"message"`
	Type      string    `json:"type"`
	FileURL   *string   `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate enforces the at-least-one-of {text, media} invariant.
func (m *Message) Validate() error {
	hasBody := m.Body != nil && *m.Body != ""
	hasFile := m.FileURL != nil && *m.FileURL != ""
	if !hasBody && !hasFile {
		return ErrEmptyMessage
	}
	return nil
}
