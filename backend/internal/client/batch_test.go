package client

import (
	"testing"

	"ramblathon/backend/internal/surface"
)

func TestBatch_Append(t *testing.T) {
	tests := []struct {
		name  string
		edits []surface.Edit
		want  string
	}{
		{"none", nil, ""},
		{"single", []surface.Edit{{Lines: []string{"ab"}}}, "ab"},
		{"multi line", []surface.Edit{{Lines: []string{"ab"}}, {Lines: []string{"c", "d"}}}, "abc\nd"},
		{"newline only", []surface.Edit{{Lines: []string{"", ""}}}, "\n"},
		{"empty record ignored", []surface.Edit{{Lines: []string{"x"}}, {}, {Lines: []string{"y"}}}, "xy"},
		{"order kept", []surface.Edit{{Lines: []string{"b"}}, {Lines: []string{"a"}}, {Lines: []string{"b"}}}, "bab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Batch
			b.Append(tt.edits...)
			if got := b.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
			if b.Len() != len(tt.want) {
				t.Fatalf("Len() = %d, want %d", b.Len(), len(tt.want))
			}
		})
	}
}

func TestBatch_AppendAccumulatesAcrossCalls(t *testing.T) {
	var b Batch
	b.Append(surface.Edit{Lines: []string{"ab"}})
	b.Append(surface.Edit{Lines: []string{"c", "d"}})
	if got, want := b.String(), "abc\nd"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", b.Len())
	}
}
