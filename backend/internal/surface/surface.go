// Package surface describes the editable text region the sync client drives,
// plus two implementations: an in-memory one and a line-oriented terminal.
package surface

import "strings"

// Edit 一次编辑通知：Lines 为编辑位置新插入的内容，
// 第一行接在编辑起点之后，其余各行之间隐含换行符
type Edit struct {
	Lines []string
}

// NewEdit splits text on "\n" into an Edit.
func NewEdit(text string) Edit {
	return Edit{Lines: strings.Split(text, "\n")}
}

// Surface is the capability set the client consumes from an editor widget.
// SetText is a programmatic replacement and must not be reported through
// OnChange.
type Surface interface {
	Text() string
	SetText(content string)
	SetEditable(editable bool)
	OnChange(fn func(edits []Edit))
	CursorToEnd()
}
