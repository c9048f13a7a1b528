package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lifehub-backend/internal/chat/domain"
)

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db
}

func newTestDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db := openTestDB(t, path)
	require.NoError(t, db.AutoMigrate(&domain.Chat{}))
	return db, path
}

func TestFindOrCreateChat(t *testing.T) {
	db, _ := newTestDB(t)
	r := NewChatRepository(db)

	chat, err := r.FindOrCreateChat("u1")
	require.NoError(t, err)
	require.NotEmpty(t, chat.ID)
	require.Equal(t, "u1", chat.UserID)

	again, err := r.FindOrCreateChat("u1")
	require.NoError(t, err)
	require.Equal(t, chat.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&domain.Chat{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestFindOrCreateChatLosesCreationRace(t *testing.T) {
	db, path := newTestDB(t)
	r := NewChatRepository(db)

	// A second connection inserts the user's chat between this
	// repository's miss and its insert, so the insert hits the unique
	// index on user_id and the repository must return the winner's row.
	other := openTestDB(t, path)
	winner := &domain.Chat{ID: uuid.New().String(), UserID: "u1", CreatedAt: time.Now()}
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("concurrent_chat_create", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "chats" {
			return
		}
		raced = true
		require.NoError(t, other.Create(winner).Error)
	})
	require.NoError(t, err)

	chat, err := r.FindOrCreateChat("u1")
	require.NoError(t, err)
	require.True(t, raced)
	require.Equal(t, winner.ID, chat.ID)

	var count int64
	require.NoError(t, db.Model(&domain.Chat{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestFindChatByUserAndID(t *testing.T) {
	db, _ := newTestDB(t)
	r := NewChatRepository(db)

	missing, err := r.FindChatByUser("u1")
	require.NoError(t, err)
	require.Nil(t, missing)

	missing, err = r.FindChatByID("nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	created, err := r.FindOrCreateChat("u1")
	require.NoError(t, err)

	byUser, err := r.FindChatByUser("u1")
	require.NoError(t, err)
	require.Equal(t, created.ID, byUser.ID)

	byID, err := r.FindChatByID(created.ID)
	require.NoError(t, err)
	require.Equal(t, "u1", byID.UserID)
}

func TestListChats(t *testing.T) {
	db, _ := newTestDB(t)
	r := NewChatRepository(db)

	_, err := r.FindOrCreateChat("u1")
	require.NoError(t, err)
	_, err = r.FindOrCreateChat("u2")
	require.NoError(t, err)

	chats, err := r.ListChats()
	require.NoError(t, err)
	require.Len(t, chats, 2)
}
