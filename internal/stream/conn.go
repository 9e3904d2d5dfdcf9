package stream

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Conn is the subset of *websocket.Conn used by the pumps.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Serve registers conn as an observer and pumps events to it until the
// connection fails, the observer is evicted, or ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, conn Conn) {
	o := h.Register()
	defer h.Unregister(o.ID())
	defer conn.Close()

	go h.readPump(conn, o)
	h.writePump(ctx, conn, o)
}

// writePump - observer 전용 쓰기 고루틴 (웹소켓은 동시 쓰기 불가)
func (h *Hub) writePump(ctx context.Context, conn Conn, o *Observer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
			return
		case <-o.Done():
			return
		case msg := <-o.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump - 클라이언트 메시지는 무시하고 close/pong만 감지
func (h *Hub) readPump(conn Conn, o *Observer) {
	defer h.Unregister(o.ID())

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
