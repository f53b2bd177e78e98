package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs joins a websocket connection to a room.
func ServeWs(hub *Hub, c *websocket.Conn, roomID string) {
	client := &Client{Hub: hub, Conn: c, RoomID: roomID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
