package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Serve attaches an upgraded connection to the hub and blocks until the
// peer disconnects. The caller's goroutine runs the read side; writes
// get their own.
func Serve(hub *Hub, conn *websocket.Conn, userId uuid.UUID) {
	client := &Client{Hub: hub, Conn: conn, UserId: userId, Send: make(chan []byte, 256)}
	hub.register <- client

	go client.writePump()
	client.readPump()
}
