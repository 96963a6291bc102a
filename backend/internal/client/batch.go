package client

import (
	"strings"

	"ramblathon/backend/internal/surface"
)

// Batch 待发送的编辑内容（Outbound Buffer）。只由会话 goroutine 访问，不加锁
type Batch struct {
	buf strings.Builder
}

// Append 按顺序拼接每条编辑：第一行原样追加，之后每行前加 "\n"。
// 没有任何行的编辑直接忽略
func (b *Batch) Append(edits ...surface.Edit) {
	for _, e := range edits {
		if len(e.Lines) == 0 {
			continue
		}
		b.buf.WriteString(e.Lines[0])
		for _, line := range e.Lines[1:] {
			b.buf.WriteByte('\n')
			b.buf.WriteString(line)
		}
	}
}

func (b *Batch) Len() int       { return b.buf.Len() }
func (b *Batch) String() string { return b.buf.String() }
func (b *Batch) Reset()         { b.buf.Reset() }
