package collab

import (
	"strings"
	"sync"
)

// DeltaBuffer 尚未落盘的增量，按到达顺序拼接
type DeltaBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *DeltaBuffer) Append(delta string) {
	b.mu.Lock()
	b.buf.WriteString(delta)
	b.mu.Unlock()
}

func (b *DeltaBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *DeltaBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// Take 取走全部内容并清空
func (b *DeltaBuffer) Take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

// Restore puts a taken delta back in front of anything appended since.
func (b *DeltaBuffer) Restore(delta string) {
	if delta == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rest := b.buf.String()
	b.buf.Reset()
	b.buf.WriteString(delta)
	b.buf.WriteString(rest)
}
