package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifehub-backend/internal/chat/domain"
	"lifehub-backend/internal/notification/queue"
	"lifehub-backend/internal/presence"
)

type fakeChatRepo struct {
	chats    map[string]*domain.Chat // by user id
	messages []domain.Message
	seq      int64
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]*domain.Chat)}
}

func (f *fakeChatRepo) FindOrCreateChat(userID string) (*domain.Chat, error) {
	if chat, ok := f.chats[userID]; ok {
		return chat, nil
	}
	chat := &domain.Chat{ID: uuid.New().String(), UserID: userID, CreatedAt: time.Now()}
	f.chats[userID] = chat
	return chat, nil
}

func (f *fakeChatRepo) FindChatByUser(userID string) (*domain.Chat, error) {
	return f.chats[userID], nil
}

func (f *fakeChatRepo) FindChatByID(chatID string) (*domain.Chat, error) {
	for _, chat := range f.chats {
		if chat.ID == chatID {
			return chat, nil
		}
	}
	return nil, nil
}

func (f *fakeChatRepo) ListChats() ([]domain.Chat, error) {
	var out []domain.Chat
	for _, chat := range f.chats {
		out = append(out, *chat)
	}
	return out, nil
}

func (f *fakeChatRepo) AppendMessage(msg *domain.Message) (*domain.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	f.seq++
	msg.ID = uuid.New().String()
	msg.Seq = f.seq
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return msg, nil
}

func (f *fakeChatRepo) ListMessages(chatID string) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeStorage struct {
	keys []string
}

func (f *fakeStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.keys = append(f.keys, key)
	return "https://bucket/" + key, nil
}

type fakeBroadcaster struct {
	events []string
}

func (f *fakeBroadcaster) BroadcastToChat(chatID, event string, payload any) {
	f.events = append(f.events, event)
}

func newTestUsecase(repo *fakeChatRepo, store *fakeStorage, pres presence.Store, q queue.Queue) (*ChatUsecase, *fakeBroadcaster) {
	b := &fakeBroadcaster{}
	uc := NewChatUsecase(repo, store, pres, q, b, zap.NewNop().Sugar())
	return uc, b
}

func TestSendMessageCreatesChatLazily(t *testing.T) {
	repo := newFakeChatRepo()
	uc, b := newTestUsecase(repo, &fakeStorage{}, presence.NewMemoryStore(), queue.NewMemoryQueue())

	result, err := uc.SendMessage(context.Background(), "u1", "hello", "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.ChatID)
	require.Equal(t, "hello", *result.Message.Body)
	require.Equal(t, domain.TypeText, result.Message.Type)

	// Second send reuses the same chat.
	again, err := uc.SendMessage(context.Background(), "u1", "again", "", nil)
	require.NoError(t, err)
	require.Equal(t, result.ChatID, again.ChatID)
	require.Len(t, repo.chats, 1)

	require.Equal(t, []string{"receive_message", "receive_message"}, b.events)
}

func TestSendMessageRejectsEmpty(t *testing.T) {
	uc, _ := newTestUsecase(newFakeChatRepo(), &fakeStorage{}, presence.NewMemoryStore(), queue.NewMemoryQueue())

	_, err := uc.SendMessage(context.Background(), "u1", "", "", nil)
	require.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestSendMessageUploadsMediaByType(t *testing.T) {
	store := &fakeStorage{}
	uc, _ := newTestUsecase(newFakeChatRepo(), store, presence.NewMemoryStore(), queue.NewMemoryQueue())

	result, err := uc.SendMessage(context.Background(), "u1", "", "image", &Media{
		FileName:    "photo.PNG",
		ContentType: "image/png",
		Data:        []byte{1, 2, 3},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Message.FileURL)

	require.Len(t, store.keys, 1)
	require.True(t, strings.HasPrefix(store.keys[0], "images/"))
	require.True(t, strings.HasSuffix(store.keys[0], ".png"))
}

func TestSendMessageUnknownTypeGoesToOther(t *testing.T) {
	store := &fakeStorage{}
	uc, _ := newTestUsecase(newFakeChatRepo(), store, presence.NewMemoryStore(), queue.NewMemoryQueue())

	result, err := uc.SendMessage(context.Background(), "u1", "", "archive", &Media{
		FileName:    "dump.zip",
		ContentType: "application/zip",
		Data:        []byte{1},
	})
	require.NoError(t, err)
	require.Equal(t, domain.TypeOther, result.Message.Type)
	require.True(t, strings.HasPrefix(store.keys[0], "other/"))
}

func TestReplyEnqueuesPushWhenOffline(t *testing.T) {
	repo := newFakeChatRepo()
	pres := presence.NewMemoryStore()
	q := queue.NewMemoryQueue()
	uc, b := newTestUsecase(repo, &fakeStorage{}, pres, q)
	ctx := context.Background()

	sent, err := uc.SendMessage(ctx, "u1", "help", "", nil)
	require.NoError(t, err)

	result, err := uc.Reply(ctx, "admin-1", sent.ChatID, "on it", "", nil)
	require.NoError(t, err)
	require.Equal(t, "admin-1", result.Message.SenderID)

	job, ok, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "u1", job.UserID)
	require.Equal(t, "on it", job.Payload.Body)
	require.Equal(t, sent.ChatID, job.Payload.Data["chatId"])

	require.Contains(t, b.events, "receive_message")
}

func TestReplySkipsPushWhenOnline(t *testing.T) {
	repo := newFakeChatRepo()
	pres := presence.NewMemoryStore()
	q := queue.NewMemoryQueue()
	uc, _ := newTestUsecase(repo, &fakeStorage{}, pres, q)
	ctx := context.Background()

	sent, err := uc.SendMessage(ctx, "u1", "help", "", nil)
	require.NoError(t, err)

	pres.Set(ctx, "u1", "sock-1")

	_, err = uc.Reply(ctx, "admin-1", sent.ChatID, "on it", "", nil)
	require.NoError(t, err)

	_, ok, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReplyUploadsMedia(t *testing.T) {
	repo := newFakeChatRepo()
	store := &fakeStorage{}
	uc, b := newTestUsecase(repo, store, presence.NewMemoryStore(), queue.NewMemoryQueue())
	ctx := context.Background()

	sent, err := uc.SendMessage(ctx, "u1", "help", "", nil)
	require.NoError(t, err)

	result, err := uc.Reply(ctx, "admin-1", sent.ChatID, "", "image", &Media{
		FileName:    "screenshot.png",
		ContentType: "image/png",
		Data:        []byte{1, 2, 3},
	})
	require.NoError(t, err)
	require.Equal(t, "admin-1", result.Message.SenderID)
	require.Equal(t, domain.TypeImage, result.Message.Type)
	require.NotNil(t, result.Message.FileURL)

	require.Len(t, store.keys, 1)
	require.True(t, strings.HasPrefix(store.keys[0], "images/"))
	require.Contains(t, b.events, "receive_message")
}

func TestReplyUnknownChat(t *testing.T) {
	uc, _ := newTestUsecase(newFakeChatRepo(), &fakeStorage{}, presence.NewMemoryStore(), queue.NewMemoryQueue())

	_, err := uc.Reply(context.Background(), "admin-1", "missing", "hi", "", nil)
	require.ErrorIs(t, err, ErrChatNotFound)
}

func TestListChatsRoleGate(t *testing.T) {
	repo := newFakeChatRepo()
	uc, _ := newTestUsecase(repo, &fakeStorage{}, presence.NewMemoryStore(), queue.NewMemoryQueue())
	ctx := context.Background()

	_, err := uc.SendMessage(ctx, "u1", "a", "", nil)
	require.NoError(t, err)
	_, err = uc.SendMessage(ctx, "u2", "b", "", nil)
	require.NoError(t, err)

	all, err := uc.ListChats("admin-1", "admin")
	require.NoError(t, err)
	require.Len(t, all, 2)

	own, err := uc.ListChats("u1", "user")
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, "u1", own[0].UserID)

	none, err := uc.ListChats("u3", "user")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestListMessagesForbiddenForOtherUsersChat(t *testing.T) {
	repo := newFakeChatRepo()
	uc, _ := newTestUsecase(repo, &fakeStorage{}, presence.NewMemoryStore(), queue.NewMemoryQueue())
	ctx := context.Background()

	sent, err := uc.SendMessage(ctx, "u1", "private", "", nil)
	require.NoError(t, err)

	_, err = uc.ListMessages(sent.ChatID, "u2", "user")
	require.ErrorIs(t, err, ErrForbidden)

	msgs, err := uc.ListMessages(sent.ChatID, "admin-1", "admin")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msgs, err = uc.ListMessages(sent.ChatID, "u1", "user")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}
