package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Hub 记录当前所有在线连接，只有一个文档，所以不需要按房间分组
type Hub struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*Conn]struct{})}
}

// Join 将连接加入 hub
func (h *Hub) Join(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

// Leave 将连接从 hub 移除
func (h *Hub) Leave(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// Broadcast pushes a full document to every connection. Slow connections
// whose queue is full miss this snapshot.
func (h *Hub) Broadcast(payload string) int {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if err := c.Enqueue(payload); err != nil {
			zap.S().Infof("broadcast to %s skipped: %v", c.ID(), err)
			continue
		}
		sent++
	}
	return sent
}

// Count 在线连接数，满足 handlers.SessionCounter
func (h *Hub) Count(context.Context) (int64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return int64(len(h.conns)), nil
}
