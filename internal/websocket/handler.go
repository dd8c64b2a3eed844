package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs queues initial frames, registers the connection and blocks until
// the peer disconnects.
func ServeWs(hub *Hub, c *websocket.Conn, clientID string, initial ...Message) {
	client := &Client{Hub: hub, Conn: c, ClientID: clientID, Send: make(chan Message, sendBufferSize)}
	for _, msg := range initial {
		client.Send <- msg
	}
	hub.add(client)

	go client.writePump()
	client.readPump()
}
