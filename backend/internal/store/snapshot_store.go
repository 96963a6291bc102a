package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Snapshot 一行整文档快照（备份时写入）
type Snapshot struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	TakenAt   int64  `gorm:"uniqueIndex;not null"` // unix 毫秒
	Content   string `gorm:"type:longtext"`
	CreatedAt time.Time
}

func (Snapshot) TableName() string { return "document_snapshots" }

type SnapshotStore struct{ db *gorm.DB }

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// OpenSnapshotStore 连接 mysql 并建表
func OpenSnapshotStore(dsn string) (*SnapshotStore, error) {
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, err
	}
	return NewSnapshotStore(db), nil
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, takenAt time.Time, content string) error {
	row := &Snapshot{TakenAt: takenAt.UnixMilli(), Content: content}
	err := s.db.WithContext(ctx).Create(row).Error
	if err != nil {
		// 同一时刻重复备份（1062 duplicate entry）直接忽略
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return nil
		}
		return err
	}
	return nil
}

// Latest returns the newest snapshot row, or nil when there is none.
func (s *SnapshotStore) Latest(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.WithContext(ctx).Order("taken_at DESC").First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *SnapshotStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
