// Package client keeps one text surface in sync with the remote authority.
//
// A Session owns the outbound batch and the single connection handle. Every
// event source (surface edits, socket frames, socket close, dial results and
// the flush/reconnect tickers) feeds one goroutine, so handlers never
// interleave and no locking is needed around the session state.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ramblathon/backend/internal/surface"
	"ramblathon/backend/internal/ws"
)

const (
	DefaultEndpoint          = "ws://localhost:42069/ws"
	DefaultFlushInterval     = 5 * time.Second
	DefaultReconnectInterval = 10 * time.Second
	DefaultSendQueue         = 16
	DefaultLoadingText       = "Loading the ramblathon..."
	DefaultClosedText        = "Ramblathon is currently closed!"
)

type Config struct {
	Endpoint          string
	FlushInterval     time.Duration
	ReconnectInterval time.Duration
	SendQueue         int
	LoadingText       string
	ClosedText        string
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = DefaultReconnectInterval
	}
	if c.SendQueue <= 0 {
		c.SendQueue = DefaultSendQueue
	}
	if c.LoadingText == "" {
		c.LoadingText = DefaultLoadingText
	}
	if c.ClosedText == "" {
		c.ClosedText = DefaultClosedText
	}
	return c
}

// State 连接状态：Disconnected → Connecting → Open → Disconnected
type State int32

const (
	Disconnected State = iota
	Connecting
	Open
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	}
	return "unknown"
}

// handle 一次连接尝试；conn 在握手完成前为 nil
type handle struct {
	id        string
	cancel    context.CancelFunc
	conn      *ws.Conn
	snapshots int
}

// 投递给会话 goroutine 的事件
type (
	dialed struct {
		h    *handle
		sock ws.Socket
		err  error
	}
	received struct {
		h       *handle
		payload string
	}
	closed struct {
		h   *handle
		err error
	}
)

type Session struct {
	cfg     Config
	surface surface.Surface
	dialer  ws.Dialer

	// 以下两个字段只在 run goroutine 中访问
	batch  Batch
	handle *handle

	state  atomic.Int32
	edits  chan []surface.Edit
	events chan any
	done   chan struct{}

	startOnce sync.Once
	started   atomic.Bool
	cancel    context.CancelFunc
}

func NewSession(cfg Config, sf surface.Surface, dialer ws.Dialer) *Session {
	s := &Session{
		cfg:     cfg.withDefaults(),
		surface: sf,
		dialer:  dialer,
		edits:   make(chan []surface.Edit, 64),
		events:  make(chan any),
		done:    make(chan struct{}),
	}
	sf.OnChange(func(edits []surface.Edit) {
		select {
		case s.edits <- edits:
		case <-s.done:
		}
	})
	return s
}

// Start shows the loading placeholder read-only, connects once, and starts
// the flush and reconnect timers. It does not block.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		s.showLoading()
		s.started.Store(true)
		go s.run(ctx)
	})
}

// Stop closes the connection and waits for the session goroutine to exit.
func (s *Session) Stop() {
	if !s.started.Load() {
		return
	}
	s.cancel()
	<-s.done
}

// State reports the connection state; safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.teardown()

	flush := time.NewTicker(s.cfg.FlushInterval)
	defer flush.Stop()
	reconnect := time.NewTicker(s.cfg.ReconnectInterval)
	defer reconnect.Stop()

	// 首次连接不等重连周期
	s.connect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case edits := <-s.edits:
			s.onEdits(edits)
		case ev := <-s.events:
			s.dispatch(ev)
		case <-flush.C:
			s.flush()
		case <-reconnect.C:
			s.connect(ctx)
		}
	}
}

func (s *Session) showLoading() {
	s.surface.SetText(s.cfg.LoadingText)
	s.surface.SetEditable(false)
	s.surface.CursorToEnd()
}

// post 从其它 goroutine 把事件交给会话；会话已退出时返回 false
func (s *Session) post(ev any) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) dispatch(ev any) {
	switch ev := ev.(type) {
	case dialed:
		s.onDialed(ev)
	case received:
		s.onReceived(ev)
	case closed:
		s.onClosed(ev)
	}
}

// connect 仅在没有连接句柄时创建新的连接尝试，并清空待发送内容
func (s *Session) connect(ctx context.Context) {
	if s.handle != nil {
		return
	}
	dialCtx, cancel := context.WithCancel(ctx)
	h := &handle{id: uuid.NewString(), cancel: cancel}
	s.handle = h
	s.batch.Reset()
	s.setState(Connecting)
	zap.S().Debugf("session %s: connecting to %s", h.id, s.cfg.Endpoint)

	go func() {
		sock, err := s.dialer.Dial(dialCtx, s.cfg.Endpoint)
		if !s.post(dialed{h: h, sock: sock, err: err}) && sock != nil {
			sock.Close()
		}
	}()
}

func (s *Session) onDialed(ev dialed) {
	if ev.h != s.handle {
		if ev.sock != nil {
			ev.sock.Close()
		}
		return
	}
	if ev.err != nil {
		// 拨号失败与连接关闭同样处理
		s.onClosed(closed{h: ev.h, err: ev.err})
		return
	}
	h := ev.h
	h.conn = ws.NewConn(h.id, ev.sock, s.cfg.SendQueue)
	s.setState(Open)
	zap.S().Debugf("session %s: open", h.id)

	go func() {
		err := h.conn.Run(func(payload string) {
			s.post(received{h: h, payload: payload})
		})
		s.post(closed{h: h, err: err})
	}()
}

// onReceived 收到的每条消息都是完整文档，整体替换本地内容后放开编辑
func (s *Session) onReceived(ev received) {
	if ev.h != s.handle {
		return
	}
	s.surface.SetText(ev.payload)
	s.batch.Reset()
	ev.h.snapshots++
	s.surface.SetEditable(true)
	s.surface.CursorToEnd()
}

func (s *Session) onClosed(ev closed) {
	if ev.h != s.handle {
		return
	}
	zap.S().Infof("session %s: disconnected: %v", ev.h.id, ev.err)
	s.surface.SetText(s.cfg.ClosedText)
	s.surface.SetEditable(false)
	s.surface.CursorToEnd()
	s.batch.Reset()
	s.dropHandle()
}

func (s *Session) onEdits(edits []surface.Edit) {
	s.batch.Append(edits...)
	s.surface.CursorToEnd()
}

// ErrNoConnection 当前没有已打开的连接
var ErrNoConnection = errors.New("client: no active connection")

// flush 有连接且有待发送内容时整体发送一次，然后清空；否则什么也不做
func (s *Session) flush() {
	if s.batch.Len() == 0 {
		return
	}
	switch err := s.transmit(s.batch.String()); {
	case errors.Is(err, ErrNoConnection):
		// 未连接或仍在握手：保留内容，快照或关闭时会被清空
		return
	case err != nil:
		zap.S().Infof("session %s: flush deferred: %v", s.handle.id, err)
		return
	}
	s.batch.Reset()
}

func (s *Session) transmit(payload string) error {
	if s.handle == nil || s.handle.conn == nil {
		return ErrNoConnection
	}
	return s.handle.conn.Enqueue(payload)
}

func (s *Session) dropHandle() {
	h := s.handle
	if h == nil {
		return
	}
	h.cancel()
	if h.conn != nil {
		h.conn.Close()
	}
	s.handle = nil
	s.setState(Disconnected)
}

func (s *Session) teardown() {
	s.dropHandle()
	s.surface.SetEditable(false)
}
