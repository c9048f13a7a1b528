package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifehub-backend/internal/presence"
)

func newTestGateway() (*Gateway, *Hub, *presence.MemoryStore) {
	log := zap.NewNop().Sugar()
	hub := NewHub(log)
	pres := presence.NewMemoryStore()
	return NewGateway(hub, pres, log), hub, pres
}

func TestGatewayIdentify(t *testing.T) {
	g, h, pres := newTestGateway()
	c := testClient("sock-1")
	h.Register(c)

	g.handleEvent(c, []byte(`{"event":"identify","data":{"user_id":"u1"}}`))

	require.Equal(t, "u1", c.UserID)
	socketID, ok := pres.Get(context.Background(), "u1")
	require.True(t, ok)
	require.Equal(t, "sock-1", socketID)

	// Personal room delivery works after identify.
	h.SendToUser("u1", "ping", nil)
	require.Len(t, drain(t, c), 1)
}

func TestGatewayJoinChatAndTyping(t *testing.T) {
	g, h, _ := newTestGateway()
	a, b := testClient("sock-a"), testClient("sock-b")
	h.Register(a)
	h.Register(b)

	g.handleEvent(a, []byte(`{"event":"identify","data":{"user_id":"u1"}}`))
	g.handleEvent(b, []byte(`{"event":"identify","data":{"user_id":"u2"}}`))
	drain(t, a)
	drain(t, b)

	g.handleEvent(a, []byte(`{"event":"join_chat","data":{"chat_id":"c1"}}`))
	g.handleEvent(b, []byte(`{"event":"join_chat","data":{"chat_id":"c1"}}`))

	// b's join notifies a.
	joined := drain(t, a)
	require.Len(t, joined, 1)
	require.Equal(t, "user_joined", joined[0].Event)

	g.handleEvent(a, []byte(`{"event":"typing","data":{"chat_id":"c1","is_typing":true}}`))

	require.Empty(t, drain(t, a))
	got := drain(t, b)
	require.Len(t, got, 1)
	require.Equal(t, "typing", got[0].Event)
	data, ok := got[0].Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "u1", data["user_id"])
	require.Equal(t, true, data["is_typing"])
}

func TestGatewayDisconnectClearsPresence(t *testing.T) {
	g, h, pres := newTestGateway()
	c := testClient("sock-1")
	h.Register(c)

	g.handleEvent(c, []byte(`{"event":"identify","data":{"user_id":"u1"}}`))
	g.handleDisconnect(c)

	_, ok := pres.Get(context.Background(), "u1")
	require.False(t, ok)
}

func TestGatewayIgnoresMalformedFrames(t *testing.T) {
	g, h, _ := newTestGateway()
	c := testClient("sock-1")
	h.Register(c)

	g.handleEvent(c, []byte(`not json`))
	g.handleEvent(c, []byte(`{"event":"identify","data":{}}`))
	g.handleEvent(c, []byte(`{"event":"unknown","data":{}}`))

	require.Empty(t, c.UserID)
	require.Empty(t, drain(t, c))
}
