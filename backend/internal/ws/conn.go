package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("send queue full or connection closed")

// Conn 一条 websocket 连接，客户端和服务端共用。
// 所有写操作都经过 send 队列，由唯一的 writeLoop 执行（gorilla 要求单写者）
type Conn struct {
	id   string
	sock Socket
	// 出站文本消息队列
	send chan string
	done chan struct{}
	once sync.Once
}

func NewConn(id string, sock Socket, queue int) *Conn {
	if queue <= 0 {
		queue = 1
	}
	return &Conn{id: id, sock: sock, send: make(chan string, queue), done: make(chan struct{})}
}

func (c *Conn) ID() string { return c.id }

// Enqueue 把消息放进发送队列，不阻塞。
// 队列满或连接已关闭时返回 ErrQueueFull
func (c *Conn) Enqueue(payload string) error {
	select {
	case <-c.done:
		return ErrQueueFull
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run 启动写循环并在当前 goroutine 里执行读循环，直到连接断开。
// 每条文本消息交给 onMessage；返回值是导致断开的读错误
func (c *Conn) Run(onMessage func(payload string)) error {
	go c.writeLoop()
	defer c.Close()
	return c.readLoop(onMessage)
}

func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.sock.Close()
	})
	return err
}

// Done is closed once the connection has been closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) readLoop(onMessage func(string)) error {
	for {
		mt, data, err := c.sock.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			zap.S().Debugf("conn %s: ignoring non-text frame type=%d", c.id, mt)
			continue
		}
		onMessage(string(data))
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			if err := c.sock.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				zap.S().Infof("conn %s: write error: %v", c.id, err)
				// 关闭底层连接，读循环随之退出
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
