package collab

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// memStore 内存版 DocumentStore，可注入写失败
type memStore struct {
	mu        sync.Mutex
	content   string
	failWrite bool
	backups   []string
}

func (m *memStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content, nil
}

func (m *memStore) Append(_ context.Context, delta string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errors.New("disk full")
	}
	m.content += delta
	return nil
}

func (m *memStore) Backup(_ context.Context, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups = append(m.backups, m.content)
	return "mem", nil
}

type memSnapshots struct {
	rows map[int64]string
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, at time.Time, content string) error {
	m.rows[at.UnixMilli()] = content
	return nil
}

func TestDocumentService_SnapshotIncludesPending(t *testing.T) {
	st := &memStore{content: "persisted "}
	svc := NewDocumentService(st, nil, nil)
	ctx := context.Background()

	if err := svc.Submit(ctx, "s1", "abc"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := svc.Submit(ctx, "s2", "\nd"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	got, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if want := "persisted abc\nd"; got != want {
		t.Fatalf("Snapshot() = %q, want %q", got, want)
	}
}

func TestDocumentService_Persist(t *testing.T) {
	st := &memStore{}
	svc := NewDocumentService(st, nil, nil)
	ctx := context.Background()

	wrote, err := svc.Persist(ctx)
	if err != nil || wrote {
		t.Fatalf("Persist() on empty buffer = %v, %v; want false, nil", wrote, err)
	}

	svc.Submit(ctx, "s1", "hello")
	wrote, err = svc.Persist(ctx)
	if err != nil || !wrote {
		t.Fatalf("Persist() = %v, %v; want true, nil", wrote, err)
	}
	if st.content != "hello" || svc.Pending() != 0 {
		t.Fatalf("after Persist store=%q pending=%d", st.content, svc.Pending())
	}
	got, _ := svc.Snapshot(ctx)
	if got != "hello" {
		t.Fatalf("Snapshot() = %q, want %q", got, "hello")
	}
}

func TestDocumentService_PersistFailureKeepsBuffer(t *testing.T) {
	st := &memStore{failWrite: true}
	svc := NewDocumentService(st, nil, nil)
	ctx := context.Background()

	svc.Submit(ctx, "s1", "one")
	if _, err := svc.Persist(ctx); err == nil {
		t.Fatal("Persist() error = nil, want error")
	}
	svc.Submit(ctx, "s1", "two")

	st.failWrite = false
	if _, err := svc.Persist(ctx); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if st.content != "onetwo" {
		t.Fatalf("store content = %q, want %q", st.content, "onetwo")
	}
}

func TestDocumentService_Backup(t *testing.T) {
	st := &memStore{content: "doc"}
	rows := &memSnapshots{rows: map[int64]string{}}
	svc := NewDocumentService(st, rows, nil)

	at := time.UnixMilli(42)
	if err := svc.Backup(context.Background(), at); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if len(st.backups) != 1 || st.backups[0] != "doc" {
		t.Fatalf("backups = %q", st.backups)
	}
	if rows.rows[42] != "doc" {
		t.Fatalf("snapshot rows = %v", rows.rows)
	}
}

func TestDocumentService_ConcurrentSubmit(t *testing.T) {
	st := &memStore{}
	svc := NewDocumentService(st, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Submit(ctx, "s", "x")
			if i%10 == 0 {
				svc.Persist(ctx)
			}
		}()
	}
	wg.Wait()
	svc.Persist(ctx)
	if got := st.content; got != strings.Repeat("x", 50) {
		t.Fatalf("store content = %q (len %d), want 50 x", got, len(got))
	}
}

func TestEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- Every(ctx, 5*time.Millisecond, func(context.Context) { calls <- struct{}{} })
	}()
	<-calls
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Every() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Every() did not return after cancel")
	}
}
