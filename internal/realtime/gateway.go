package realtime

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lifehub-backend/internal/presence"
)

// Gateway upgrades HTTP requests to websockets and dispatches the
// socket event protocol: identify, join_chat, leave_chat, typing,
// message_read.
type Gateway struct {
	hub      *Hub
	presence presence.Store
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

func NewGateway(hub *Hub, pres presence.Store, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		hub:      hub,
		presence: pres,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin from the app frontend.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleWS is the gin endpoint that upgrades the connection and runs
// the pumps.
func (g *Gateway) HandleWS(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Warnw("[WS] upgrade failed", "error", err)
		return
	}

	client := newClient(uuid.New().String(), conn)
	g.hub.Register(client)
	g.log.Infow("[WS] client connected", "socketId", client.ID)

	go client.writePump()
	client.readPump(g)
}

type identifyData struct {
	UserID string `json:"user_id"`
}

type chatRoomData struct {
	ChatID string `json:"chat_id"`
}

func (g *Gateway) handleEvent(c *Client, raw []byte) {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		g.log.Warnw("[WS] malformed frame", "socketId", c.ID, "error", err)
		return
	}

	switch env.Event {
	case "identify":
		var d identifyData
		if err := json.Unmarshal(env.Data, &d); err != nil || d.UserID == "" {
			return
		}
		c.UserID = d.UserID
		g.hub.Join("user_"+d.UserID, c)
		g.presence.Set(context.Background(), d.UserID, c.ID)
		g.log.Infow("[WS] client identified", "socketId", c.ID, "userId", d.UserID)

	case "join_chat":
		var d chatRoomData
		if err := json.Unmarshal(env.Data, &d); err != nil || d.ChatID == "" {
			return
		}
		g.hub.Join("chat_"+d.ChatID, c)
		g.hub.BroadcastExcept("chat_"+d.ChatID, c.ID, "user_joined", gin.H{
			"chat_id": d.ChatID,
			"user_id": c.UserID,
		})

	case "leave_chat":
		var d chatRoomData
		if err := json.Unmarshal(env.Data, &d); err != nil || d.ChatID == "" {
			return
		}
		g.hub.Leave("chat_"+d.ChatID, c)
		g.hub.Broadcast("chat_"+d.ChatID, "user_left", gin.H{
			"chat_id": d.ChatID,
			"user_id": c.UserID,
		})

	case "typing":
		var d struct {
			ChatID   string `json:"chat_id"`
			IsTyping bool   `json:"is_typing"`
		}
		if err := json.Unmarshal(env.Data, &d); err != nil || d.ChatID == "" {
			return
		}
		g.hub.BroadcastExcept("chat_"+d.ChatID, c.ID, "typing", gin.H{
			"chat_id":   d.ChatID,
			"user_id":   c.UserID,
			"is_typing": d.IsTyping,
		})

	case "message_read":
		var d struct {
			ChatID    string `json:"chat_id"`
			MessageID string `json:"message_id"`
		}
		if err := json.Unmarshal(env.Data, &d); err != nil || d.ChatID == "" {
			return
		}
		g.hub.BroadcastExcept("chat_"+d.ChatID, c.ID, "message_read", gin.H{
			"chat_id":    d.ChatID,
			"message_id": d.MessageID,
			"user_id":    c.UserID,
		})

	default:
		g.log.Debugw("[WS] unknown event", "socketId", c.ID, "event", env.Event)
	}
}

func (g *Gateway) handleDisconnect(c *Client) {
	g.hub.Unregister(c)
	g.presence.RemoveBySocket(context.Background(), c.ID)
	g.log.Infow("[WS] client disconnected", "socketId", c.ID, "userId", c.UserID)
}
