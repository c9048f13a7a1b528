package domain

import "time"

// PushToken is one registered device of a user. The token string is the
// uniqueness key: re-registering the same token moves it to the new
// owner/device instead of creating a second row.
type PushToken struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null"` // Don't expose token in JSON
	DeviceID  string    `json:"device_id"`
	Platform  string    `json:"platform"` // android|ios|web
	Provider  string    `json:"provider"` // fcm
	Enabled   bool      `json:"enabled" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
