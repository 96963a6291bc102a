package collab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// 文档服务接口
type Service interface {
	// Snapshot 返回当前全文：已落盘内容 + 未落盘增量
	Snapshot(ctx context.Context) (string, error)
	// Submit 追加一条来自客户端的增量
	Submit(ctx context.Context, sessionID, delta string) error
	// Persist 把未落盘增量写入存储，返回是否写入了内容
	Persist(ctx context.Context) (bool, error)
	// Backup 生成一份带时间戳的备份
	Backup(ctx context.Context, at time.Time) error
}

// 存储接口，只声明，实现在store中
type DocumentStore interface {
	Load(ctx context.Context) (string, error)
	Append(ctx context.Context, delta string) error
	Backup(ctx context.Context, at time.Time) (string, error)
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, takenAt time.Time, content string) error
}

// DocumentService 单文档实现
type DocumentService struct {
	// persistMu 保证 Snapshot 不会在“已取走增量但还没写完存储”的窗口里读取
	persistMu sync.RWMutex
	pending   DeltaBuffer

	store     DocumentStore
	snapshots SnapshotStore // 可为 nil
	events    *KafkaDispatcher
	loads     singleflight.Group
}

// NewDocumentService snapshots and events may be nil.
func NewDocumentService(store DocumentStore, snapshots SnapshotStore, events *KafkaDispatcher) *DocumentService {
	return &DocumentService{store: store, snapshots: snapshots, events: events}
}

func (s *DocumentService) Snapshot(ctx context.Context) (string, error) {
	s.persistMu.RLock()
	defer s.persistMu.RUnlock()
	// 多个连接同时建立时只读一次存储
	v, err, _ := s.loads.Do("document", func() (interface{}, error) {
		return s.store.Load(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	return v.(string) + s.pending.String(), nil
}

func (s *DocumentService) Submit(ctx context.Context, sessionID, delta string) error {
	if delta == "" {
		return nil
	}
	s.pending.Append(delta)
	zap.S().Debugf("processed delta %q into delta buffer (session=%s)", delta, sessionID)

	if s.events == nil {
		return nil
	}
	evt := DeltaEvent{
		EventType:   EventDeltaApplied,
		OperationID: uuid.NewString(),
		SessionID:   sessionID,
		Delta:       delta,
		Length:      len(delta),
		AppliedAt:   time.Now(),
	}
	enqueueCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := s.events.Enqueue(enqueueCtx, evt); err != nil {
		// 事件只用于审计，入队失败不影响文档本身
		zap.S().Infof("drop delta event op=%s: %v", evt.OperationID, err)
	}
	return nil
}

func (s *DocumentService) Persist(ctx context.Context) (bool, error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	delta := s.pending.Take()
	if delta == "" {
		zap.S().Debugf("delta buffer is empty")
		return false, nil
	}
	if err := s.store.Append(ctx, delta); err != nil {
		// 写失败：放回缓冲区，下一轮重试
		s.pending.Restore(delta)
		return false, fmt.Errorf("append delta buffer: %w", err)
	}
	zap.S().Infof("written delta buffer (%d bytes)", len(delta))
	return true, nil
}

func (s *DocumentService) Backup(ctx context.Context, at time.Time) error {
	name, err := s.store.Backup(ctx, at)
	if err != nil {
		return fmt.Errorf("backup document: %w", err)
	}
	zap.S().Infof("document backed up to %s", name)

	if s.snapshots == nil {
		return nil
	}
	content, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load document for snapshot: %w", err)
	}
	if err := s.snapshots.SaveSnapshot(ctx, at, content); err != nil {
		return fmt.Errorf("save snapshot row: %w", err)
	}
	return nil
}

// Pending returns the number of bytes not yet persisted.
func (s *DocumentService) Pending() int {
	return s.pending.Len()
}
