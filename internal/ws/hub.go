// Package ws pushes realtime payment-status events to users. Every
// authenticated user gets a dedicated room derived from their id; the
// payment webhook publishes there through the event bus.
package ws

import (
	"fmt"
	"sync"

	"gomall/internal/api/middleware"
	"gomall/internal/events"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"
)

// RoomForUser derives the deterministic room name for a user.
func RoomForUser(userID string) string {
	return fmt.Sprintf("userId-%s", userID)
}

// Client is one subscribed connection.
type Client interface {
	Send(v interface{}) error
}

type wsClient struct {
	conn *websocket.Conn
}

func (c wsClient) Send(v interface{}) error {
	return websocket.JSON.Send(c.conn, v)
}

// Hub tracks room membership and fans events out to every connection
// in a room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Client]struct{}
	log   *logger.Logger
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[Client]struct{}),
		log:   logger.New("WS_HUB"),
	}
}

// SubscribePaymentEvents wires the hub to the event bus: a confirmed
// payment is pushed to the paying user's room.
func (h *Hub) SubscribePaymentEvents() {
	events.On(events.PaymentSucceeded, func(data interface{}) {
		event, ok := data.(events.PaymentEvent)
		if !ok {
			return
		}
		h.Broadcast(RoomForUser(event.UserID), event)
	})
}

func (h *Hub) Join(room string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
}

func (h *Hub) Leave(room string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms[room], client)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast sends the payload to every connection in the room. Dead
// connections are evicted as they fail.
func (h *Hub) Broadcast(room string, payload interface{}) {
	h.mu.RLock()
	clients := make([]Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(payload); err != nil {
			h.log.Error("failed to push event, dropping connection", err)
			h.Leave(room, client)
		}
	}
}

// RoomSize reports the live connection count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Handler upgrades the request and keeps the connection in the calling
// user's room until the peer goes away.
func (h *Hub) Handler(c echo.Context) error {
	userID := middleware.GetUserID(c)
	room := RoomForUser(userID)

	websocket.Handler(func(conn *websocket.Conn) {
		client := wsClient{conn: conn}
		h.Join(room, client)
		defer h.Leave(room, client)
		defer conn.Close()

		// Drain the connection; clients only listen on this channel.
		for {
			var msg string
			if err := websocket.Message.Receive(conn, &msg); err != nil {
				return
			}
		}
	}).ServeHTTP(c.Response(), c.Request())
	return nil
}
