package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type Client struct {
	PlayerID int64
	Conn     *websocket.Conn
	Send     chan []byte

	Hub       *Hub
	closeOnce sync.Once
}

func NewClient(playerID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		Hub:      hub,
	}
}

// enqueue tries to queue msg without blocking. false means the buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump только держит соединение и отвечает на ping/pong,
// входящие сообщения от клиентов игнорируются
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.close()
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("Client.writePump: player=%d write error: %v", c.PlayerID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
