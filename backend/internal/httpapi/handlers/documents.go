package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ramblathon/backend/internal/collab"
	"ramblathon/backend/internal/store"
)

// SessionCounter 在线会话计数来源：redis 登记或进程内 hub
type SessionCounter interface {
	Count(ctx context.Context) (int64, error)
}

// LatestSnapshotter is satisfied by *store.SnapshotStore.
type LatestSnapshotter interface {
	Latest(ctx context.Context) (*store.Snapshot, error)
}

type DocumentHandler struct {
	svc       collab.Service
	sessions  SessionCounter
	snapshots LatestSnapshotter // 未配置 mysql 时为 nil
}

func NewDocumentHandler(svc collab.Service, sessions SessionCounter, snapshots LatestSnapshotter) *DocumentHandler {
	return &DocumentHandler{svc: svc, sessions: sessions, snapshots: snapshots}
}

func (h *DocumentHandler) Healthz() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Document 返回当前全文（含未落盘增量）
func (h *DocumentHandler) Document() gin.HandlerFunc {
	return func(c *gin.Context) {
		content, err := h.svc.Snapshot(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.String(http.StatusOK, content)
	}
}

func (h *DocumentHandler) Stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := h.sessions.Count(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": n})
	}
}

func (h *DocumentHandler) LatestSnapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.snapshots == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "snapshots not configured"})
			return
		}
		snap, err := h.snapshots.Latest(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if snap == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot yet"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"takenAt": snap.TakenAt, "content": snap.Content})
	}
}
