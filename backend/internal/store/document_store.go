package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// FileStore 文档存放在单个文本文件中，备份为 backupDir/buffer_<unix毫秒>.txt
type FileStore struct {
	mu        sync.Mutex
	path      string
	backupDir string
}

func NewFileStore(path, backupDir string) *FileStore {
	return &FileStore{path: path, backupDir: backupDir}
}

func (s *FileStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *FileStore) Append(ctx context.Context, delta string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(delta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FileStore) Backup(ctx context.Context, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", err
	}
	src, err := os.Open(s.path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := filepath.Join(s.backupDir, fmt.Sprintf("buffer_%d.txt", at.UnixMilli()))
	dst, err := os.Create(name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return name, dst.Close()
}
