package surface

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewEdit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"ab", []string{"ab"}},
		{"a\nb", []string{"a", "b"}},
		{"\n", []string{"", ""}},
		{"x\n\ny", []string{"x", "", "y"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, NewEdit(tt.in).Lines); diff != "" {
			t.Errorf("NewEdit(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestMemory_InsertRequiresEditable(t *testing.T) {
	m := NewMemory("Loading")
	var got []Edit
	m.OnChange(func(edits []Edit) { got = append(got, edits...) })

	if m.Insert("x") {
		t.Fatal("Insert() on read-only surface = true, want false")
	}
	if m.Text() != "Loading" || len(got) != 0 {
		t.Fatalf("read-only insert changed state: text=%q edits=%v", m.Text(), got)
	}

	m.SetEditable(true)
	if !m.Insert("a\nb") {
		t.Fatal("Insert() on editable surface = false")
	}
	if want := "Loadinga\nb"; m.Text() != want {
		t.Fatalf("Text() = %q, want %q", m.Text(), want)
	}
	if m.Cursor() != len(m.Text()) {
		t.Fatalf("Cursor() = %d, want %d", m.Cursor(), len(m.Text()))
	}
	want := []Edit{{Lines: []string{"a", "b"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestMemory_SetTextDoesNotNotify(t *testing.T) {
	m := NewMemory("")
	called := false
	m.OnChange(func([]Edit) { called = true })
	m.SetText("hello world")
	m.CursorToEnd()
	if called {
		t.Fatal("SetText() triggered OnChange")
	}
	if m.Cursor() != len("hello world") {
		t.Fatalf("Cursor() = %d, want %d", m.Cursor(), len("hello world"))
	}
}

func TestTerminal_ReadOnlyDropsInput(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("dropped\n"), &out)
	called := false
	term.OnChange(func([]Edit) { called = true })

	if err := term.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if called {
		t.Fatal("read-only input produced an edit")
	}
	if term.Text() != "" {
		t.Fatalf("Text() = %q, want empty", term.Text())
	}
	if !strings.Contains(out.String(), readOnlyNotice) {
		t.Fatalf("output %q missing read-only notice", out.String())
	}
}

func TestTerminal_LinesBecomeEdits(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("first\nsecond\n"), &out)
	term.SetEditable(true)
	var got []Edit
	term.OnChange(func(edits []Edit) { got = append(got, edits...) })

	if err := term.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []Edit{
		{Lines: []string{"first", ""}},
		{Lines: []string{"second", ""}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("edits mismatch (-want +got):\n%s", diff)
	}
	if term.Text() != "first\nsecond\n" {
		t.Fatalf("Text() = %q, want %q", term.Text(), "first\nsecond\n")
	}
}

func TestTerminal_SetTextRedraws(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out)
	term.SetText("hello world")
	if !strings.Contains(out.String(), "hello world") {
		t.Fatalf("output %q missing document", out.String())
	}
}
