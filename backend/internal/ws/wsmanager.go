package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ramblathon/backend/internal/cache"
	"ramblathon/backend/internal/collab"
)

const (
	sessionTTL     = 600 * time.Second
	serverSendSize = 32
)

// 全局的WebSocket upgrader（允许本地开发环境的来源）
var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" { // 非浏览器客户端或 file:// 页面
		return true
	}
	allowedPrefixes := []string{
		"http://localhost",
		"http://127.0.0.1",
		"https://localhost",
		"https://127.0.0.1",
	}
	for _, p := range allowedPrefixes {
		if strings.HasPrefix(origin, p) {
			return true
		}
	}
	return false
}}

type Manager struct {
	h   *Hub
	svc collab.Service
	// 可选：redis 中的在线会话登记
	sessions cache.SessionCache
	sem      *collab.SemaphoreControl
}

func NewManager(h *Hub, svc collab.Service, sessions cache.SessionCache, sem *collab.SemaphoreControl) *Manager {
	return &Manager{h: h, svc: svc, sessions: sessions, sem: sem}
}

// WebSocketConnect 升级连接，先下发当前全文，然后把收到的每条文本消息当作增量提交
func (m *Manager) WebSocketConnect(c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.S().Infof("websocket upgrade error: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}
	ctx := c.Request.Context()
	conn := NewConn(uuid.NewString(), sock, serverSendSize)
	defer conn.Close()

	snapshot, err := m.svc.Snapshot(ctx)
	if err != nil {
		zap.S().Errorf("load snapshot for %s: %v", conn.ID(), err)
		return
	}
	// 先入队快照，写循环启动后第一个发出去
	if err := conn.Enqueue(snapshot); err != nil {
		return
	}

	m.h.Join(conn)
	defer m.h.Leave(conn)
	m.touch(ctx, conn.ID())
	defer m.forget(conn.ID())
	zap.S().Infof("session %s connected from %s", conn.ID(), c.Request.RemoteAddr)

	err = conn.Run(func(payload string) { m.submit(ctx, conn.ID(), payload) })
	zap.S().Infof("session %s closed: %v", conn.ID(), err)
}

func (m *Manager) submit(ctx context.Context, sessionID, delta string) {
	if m.sem != nil {
		if err := m.sem.Acquire(ctx); err != nil {
			zap.S().Infof("session %s: drop delta: %v", sessionID, err)
			return
		}
		defer m.sem.Release()
	}
	if err := m.svc.Submit(ctx, sessionID, delta); err != nil {
		zap.S().Errorf("session %s: submit: %v", sessionID, err)
		return
	}
	m.touch(ctx, sessionID)
}

func (m *Manager) touch(ctx context.Context, sessionID string) {
	if m.sessions == nil {
		return
	}
	if err := m.sessions.Touch(ctx, sessionID, sessionTTL); err != nil {
		zap.S().Infof("touch session %s: %v", sessionID, err)
	}
}

func (m *Manager) forget(sessionID string) {
	if m.sessions == nil {
		return
	}
	// 请求 ctx 此时可能已取消
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.sessions.Remove(ctx, sessionID); err != nil {
		zap.S().Infof("remove session %s: %v", sessionID, err)
	}
}
