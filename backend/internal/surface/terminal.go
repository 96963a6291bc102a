package surface

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

const readOnlyNotice = "(read-only, input dropped)"

// Terminal 终端版文本区域：每读到一行输入就产生一条编辑 [line, ""]，
// 即该行文本加一个换行
type Terminal struct {
	in  io.Reader
	out io.Writer

	mu       sync.Mutex // protects the fields below
	text     string
	editable bool
	onChange func([]Edit)
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

func (t *Terminal) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

// SetText redraws the whole document.
func (t *Terminal) SetText(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = content
	fmt.Fprintf(t.out, "\n----\n%s", content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(t.out)
	}
}

func (t *Terminal) SetEditable(editable bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.editable == editable {
		return
	}
	t.editable = editable
	if editable {
		fmt.Fprintln(t.out, "---- editable ----")
	} else {
		fmt.Fprintln(t.out, "---- read-only ----")
	}
}

func (t *Terminal) OnChange(fn func(edits []Edit)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// CursorToEnd is a no-op: output is always appended at the bottom.
func (t *Terminal) CursorToEnd() {}

// Run reads input lines until EOF or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	sc := bufio.NewScanner(t.in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := sc.Text()

		t.mu.Lock()
		if !t.editable {
			fmt.Fprintln(t.out, readOnlyNotice)
			t.mu.Unlock()
			continue
		}
		t.text += line + "\n"
		fn := t.onChange
		t.mu.Unlock()

		if fn != nil {
			fn([]Edit{{Lines: []string{line, ""}}})
		}
	}
	return sc.Err()
}
