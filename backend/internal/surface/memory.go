package surface

import "sync"

// Memory 内存版文本区域。
// 只允许在文末追加（退格/删除被禁用，光标固定在末尾），只读时输入被忽略
type Memory struct {
	mu       sync.Mutex
	text     string
	editable bool
	cursor   int
	onChange func([]Edit)
}

func NewMemory(initial string) *Memory {
	return &Memory{text: initial, cursor: len(initial)}
}

func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

func (m *Memory) SetText(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = content
	if m.cursor > len(content) {
		m.cursor = len(content)
	}
}

func (m *Memory) SetEditable(editable bool) {
	m.mu.Lock()
	m.editable = editable
	m.mu.Unlock()
}

func (m *Memory) Editable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editable
}

func (m *Memory) OnChange(fn func(edits []Edit)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Memory) CursorToEnd() {
	m.mu.Lock()
	m.cursor = len(m.text)
	m.mu.Unlock()
}

// Cursor returns the byte offset of the input cursor.
func (m *Memory) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// Insert types text at the end of the document, the way a user would.
// It reports false when the surface is read-only.
func (m *Memory) Insert(text string) bool {
	m.mu.Lock()
	if !m.editable {
		m.mu.Unlock()
		return false
	}
	m.text += text
	m.cursor = len(m.text)
	fn := m.onChange
	m.mu.Unlock()

	// 回调在锁外执行：订阅方可能会回头调用 SetText
	if fn != nil && text != "" {
		fn([]Edit{NewEdit(text)})
	}
	return true
}
