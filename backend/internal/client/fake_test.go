package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"ramblathon/backend/internal/ws"
)

var errSocketClosed = errors.New("socket closed")

// fakeSocket 内存版连接：in 为服务端下发，out 为客户端上行
type fakeSocket struct {
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		in:     make(chan string, 8),
		out:    make(chan string, 8),
		closed: make(chan struct{}),
	}
}

func (f *fakeSocket) ReadMessage() (int, []byte, error) {
	select {
	case p, ok := <-f.in:
		if !ok {
			return 0, nil, errSocketClosed
		}
		return websocket.TextMessage, []byte(p), nil
	case <-f.closed:
		return 0, nil, errSocketClosed
	}
}

func (f *fakeSocket) WriteMessage(_ int, data []byte) error {
	select {
	case f.out <- string(data):
		return nil
	case <-f.closed:
		return errSocketClosed
	}
}

func (f *fakeSocket) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// serverClose 模拟服务端关闭连接
func (f *fakeSocket) serverClose() { close(f.in) }

type fakeDialer struct {
	mu      sync.Mutex
	err     error
	dials   atomic.Int32
	sockets chan *fakeSocket
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{sockets: make(chan *fakeSocket, 8)}
}

func (d *fakeDialer) failWith(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (ws.Socket, error) {
	d.dials.Add(1)
	d.mu.Lock()
	err := d.err
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sock := newFakeSocket()
	d.sockets <- sock
	return sock, nil
}
