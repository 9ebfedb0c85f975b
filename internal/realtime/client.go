package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // serialized editor states can be large

	sendQueueSize = 64
)

// Client is one live duplex connection. The transport layer owns it; the
// registry only references it by connection ID.
type Client struct {
	id     string
	userID uint64

	conn        *websocket.Conn
	coordinator *Coordinator

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, userID uint64, conn *websocket.Conn, coordinator *Coordinator) *Client {
	return &Client{
		id:          id,
		userID:      userID,
		conn:        conn,
		coordinator: coordinator,
		send:        make(chan []byte, sendQueueSize),
		done:        make(chan struct{}),
	}
}

// enqueue offers a message to the send queue. Delivery is best-effort: a
// slow consumer loses messages rather than stalling the sender's room.
func (c *Client) enqueue(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		log.Printf("Send queue full for connection %s, dropping message", c.id)
	}
}

// close signals the pumps to stop. Idempotent; the send channel is never
// closed so concurrent broadcasters can't panic on it.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump reads frames and hands them to the coordinator. It runs once per
// connection; exiting tears the whole connection down.
func (c *Client) readPump() {
	defer func() {
		c.coordinator.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Connection %s read error: %v", c.id, err)
			}
			return
		}
		c.coordinator.dispatch(c, msg)
	}
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with pings. One writer goroutine per connection preserves each
// sender's message order to this recipient.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
