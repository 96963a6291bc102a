package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Socket 是 *websocket.Conn 中我们用到的那部分方法，测试里可以替换成假连接
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens client-side sockets.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Socket, error)
}

type websocketDialer struct {
	d *websocket.Dialer
}

// NewDialer returns a Dialer backed by gorilla/websocket.
func NewDialer(handshakeTimeout time.Duration) Dialer {
	return &websocketDialer{d: &websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: handshakeTimeout,
	}}
}

func (w *websocketDialer) Dial(ctx context.Context, endpoint string) (Socket, error) {
	conn, resp, err := w.d.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
