package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lifehub-backend/internal/notification/domain"
)

// ErrInvalidArgument is returned when a delete is attempted without any
// identifying filter; it guards against wiping the whole table.
var ErrInvalidArgument = errors.New("at least one of token, deviceId or userId is required")

// TokenRepository defines push token registry operations.
type TokenRepository interface {
	// Save upserts a token keyed by the token string. Re-registration
	// updates owner, device and platform and re-enables the token.
	Save(userID, token, deviceID, platform string) (*domain.PushToken, error)
	// GetEnabledByUserID returns the user's enabled tokens only.
	GetEnabledByUserID(userID string) ([]domain.PushToken, error)
	// Disable marks a token as permanently invalid without deleting it.
	// Idempotent; invoked when the push transport reports the token as
	// unregistered.
	Disable(token string) error
	// DeleteMatching removes rows matching every non-empty filter.
	DeleteMatching(userID, token, deviceID string) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Save(userID, token, deviceID, platform string) (*domain.PushToken, error) {
	row := &domain.PushToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		DeviceID:  deviceID,
		Platform:  platform,
		Provider:  "fcm",
		Enabled:   true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	// Atomic upsert: INSERT ... ON CONFLICT (token) DO UPDATE
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_id", "platform", "enabled", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller gets the canonical row (the upsert keeps the
	// original id and created_at).
	var stored domain.PushToken
	if err := r.db.Where("token = ?", token).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *tokenRepository) GetEnabledByUserID(userID string) ([]domain.PushToken, error) {
	var tokens []domain.PushToken
	err := r.db.Where("user_id = ? AND enabled = ?", userID, true).Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *tokenRepository) Disable(token string) error {
	return r.db.Model(&domain.PushToken{}).
		Where("token = ?", token).
		Updates(map[string]interface{}{"enabled": false, "updated_at": time.Now()}).Error
}

func (r *tokenRepository) DeleteMatching(userID, token, deviceID string) error {
	if userID == "" && token == "" && deviceID == "" {
		return ErrInvalidArgument
	}

	query := r.db
	if token != "" {
		query = query.Where("token = ?", token)
	}
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	return query.Delete(&domain.PushToken{}).Error
}
