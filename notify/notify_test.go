package notify

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Change
	n.Subscribe(func(c Change) {
		got = append(got, c)
	})

	n.NotifySet("server", "port", nil, float64(8080), "test")
	n.NotifyDelete("server", "port", float64(8080), "test")
	n.NotifyReload("test")

	if len(got) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(got))
	}
	if got[0].Type != ChangeSet || got[0].Section != "server" || got[0].Option != "port" {
		t.Errorf("unexpected set change: %+v", got[0])
	}
	if got[0].New != float64(8080) {
		t.Errorf("New = %v, want 8080", got[0].New)
	}
	if got[1].Type != ChangeDelete || got[1].Old != float64(8080) {
		t.Errorf("unexpected delete change: %+v", got[1])
	}
	if got[2].Type != ChangeReload {
		t.Errorf("unexpected reload change: %+v", got[2])
	}
}

func TestSubscribeSection(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Change
	n.SubscribeSection("server", func(c Change) {
		got = append(got, c)
	})

	n.NotifySet("server", "port", nil, 1, "test")
	n.NotifySet("cache", "size", nil, 2, "test")
	n.NotifySet("server", "host", nil, 3, "test")

	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %d: %+v", len(got), got)
	}
	if got[0].Option != "port" || got[1].Option != "host" {
		t.Errorf("unexpected changes: %+v", got)
	}
}

func TestReloadReachesSectionObservers(t *testing.T) {
	n := New()
	defer n.Close()

	var count int
	n.SubscribeSection("server", func(c Change) {
		count++
		if c.Type != ChangeReload {
			t.Errorf("unexpected change type %v", c.Type)
		}
	})

	n.NotifyReload("test")

	if count != 1 {
		t.Errorf("expected 1 reload delivery, got %d", count)
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var global, section int
	sub1 := n.Subscribe(func(Change) { global++ })
	sub2 := n.SubscribeSection("server", func(Change) { section++ })

	n.NotifySet("server", "port", nil, 1, "test")
	sub1.Unsubscribe()
	sub2.Unsubscribe()
	n.NotifySet("server", "port", 1, 2, "test")

	if global != 1 {
		t.Errorf("global observer called %d times, want 1", global)
	}
	if section != 1 {
		t.Errorf("section observer called %d times, want 1", section)
	}
}

func TestAsyncDelivery(t *testing.T) {
	n := New(WithAsync(16))

	var mu sync.Mutex
	var got []Change
	n.Subscribe(func(c Change) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		n.NotifySet("server", "port", nil, i, "test")
	}

	// Close drains the buffer before returning.
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Errorf("expected 5 changes after drain, got %d", len(got))
	}
}

func TestNotifyAfterClose(t *testing.T) {
	n := New()

	var count int
	n.Subscribe(func(Change) { count++ })

	n.Close()
	n.Close() // idempotent
	n.NotifySet("server", "port", nil, 1, "test")

	if count != 0 {
		t.Errorf("observer called after Close")
	}
}

func TestBatch(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Change
	n.Subscribe(func(c Change) {
		got = append(got, c)
	})

	b := n.NewBatch()
	b.Set("server", "port", nil, float64(8080), "bulk")
	b.Set("server", "host", nil, "localhost", "bulk")
	b.Delete("server", "old", float64(1), "bulk")

	if b.Len() != 3 {
		t.Errorf("Len = %d, want 3", b.Len())
	}
	if len(got) != 0 {
		t.Fatalf("changes delivered before Commit: %+v", got)
	}

	b.Commit()

	if len(got) != 3 {
		t.Fatalf("expected 3 changes after Commit, got %d", len(got))
	}
	if got[0].Option != "port" || got[1].Option != "host" || got[2].Option != "old" {
		t.Errorf("changes out of order: %+v", got)
	}
	if got[2].Type != ChangeDelete || got[2].Old != float64(1) {
		t.Errorf("unexpected delete change: %+v", got[2])
	}
	if b.Len() != 0 {
		t.Errorf("Len after Commit = %d, want 0", b.Len())
	}

	// A committed batch can be reused.
	b.Commit()
	if len(got) != 3 {
		t.Errorf("empty Commit delivered changes: %d", len(got))
	}
}

func TestBatchDiscard(t *testing.T) {
	n := New()
	defer n.Close()

	var count int
	n.Subscribe(func(Change) { count++ })

	b := n.NewBatch()
	b.Set("server", "port", nil, 1, "bulk")
	b.Discard()
	b.Commit()

	if count != 0 {
		t.Errorf("discarded batch delivered %d changes", count)
	}
	if b.Len() != 0 {
		t.Errorf("Len after Discard = %d, want 0", b.Len())
	}
}

func TestChangeTypeString(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeSet, "set"},
		{ChangeDelete, "delete"},
		{ChangeReload, "reload"},
		{ChangeType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("ChangeType(%d).String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestObserverCalledOutsideLock(t *testing.T) {
	n := New()
	defer n.Close()

	done := make(chan struct{})
	n.Subscribe(func(c Change) {
		if c.Type != ChangeReload {
			return
		}
		// Subscribing from inside an observer must not deadlock.
		n.Subscribe(func(Change) {})
		close(done)
	})

	go n.NotifyReload("test")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("observer blocked on notifier lock")
	}
}
