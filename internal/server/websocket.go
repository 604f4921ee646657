package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gamemaster/gamemaster-server-go/internal/bot"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 8 * 1024
	wsSendBuffer     = 16
)

// Frame types exchanged over /ws.
const (
	FrameMessage = "message"
	FrameReady   = "ready"
	FrameReply   = "reply"
	FrameError   = "error"
)

// Frame is one WebSocket message in either direction.
type Frame struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id,omitempty"`
	Text   string `json:"text,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
}

type wsClient struct {
	conn   *websocket.Conn
	chatID string
	send   chan []byte
}

// Hub tracks open WebSocket chats. Every connection is its own chat with a
// fresh ID.
type Hub struct {
	dispatcher *bot.Dispatcher
	logger     *zap.Logger
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewHub creates a hub that accepts connections from allowedOrigins ("*" for
// any).
func NewHub(dispatcher *bot.Dispatcher, allowedOrigins []string, logger *zap.Logger) *Hub {
	return &Hub{
		dispatcher: dispatcher,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		clients: make(map[*wsClient]struct{}),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || containsWildcard(allowed) {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeWS upgrades the request and starts the connection pumps.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn:   conn,
		chatID: "ws:" + uuid.NewString(),
		send:   make(chan []byte, wsSendBuffer),
	}
	h.register(client)
	client.queue(Frame{Type: FrameReady, ChatID: client.chatID})

	go client.writePump()
	go h.readPump(client)
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll sends a close frame to every client and drops the connections.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for client := range h.clients {
		_ = client.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
		client.conn.Close()
	}
}

func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("websocket client registered", zap.String("chat_id", client.chatID))
}

func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	h.logger.Debug("websocket client unregistered", zap.String("chat_id", client.chatID))
}

func (h *Hub) readPump(client *wsClient) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.unregister(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(wsMaxMessageSize)

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed",
					zap.String("chat_id", client.chatID),
					zap.Error(err),
				)
			}
			return
		}

		var in Frame
		if err := json.Unmarshal(data, &in); err != nil {
			client.queue(Frame{Type: FrameError, Error: "invalid frame"})
			continue
		}
		if in.Type != FrameMessage || strings.TrimSpace(in.Text) == "" {
			client.queue(Frame{Type: FrameError, Error: "expected a message frame with text"})
			continue
		}

		reply, err := h.dispatcher.Handle(ctx, client.chatID, in.Text)
		if err != nil {
			h.logger.Error("failed to handle message",
				zap.String("chat_id", client.chatID),
				zap.Error(err),
			)
			client.queue(Frame{Type: FrameError, Error: "failed to handle message"})
			continue
		}

		client.queue(Frame{
			Type:   FrameReply,
			ChatID: client.chatID,
			Text:   reply.Text,
			Kind:   string(reply.Kind),
		})
	}
}

// queue must only be called before unregister closes the send channel.
func (c *wsClient) queue(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
