package jsonini

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/jsonini/loader"
	"github.com/dshills/jsonini/notify"
)

// staticSource is an in-memory Loader for tests.
type staticSource map[string]map[string]any

func (s staticSource) Load() (map[string]map[string]any, error) {
	return s, nil
}

var _ loader.Loader = staticSource(nil)

func TestManagerLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.conf")
	writeFile(t, path, "[server]\nport = 8080\nhost = \"localhost\"\n")

	m := NewManager(WithPaths(path))
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	port, err := m.Get("server", "port")
	if err != nil {
		t.Fatal(err)
	}
	if port != float64(8080) {
		t.Errorf("port = %v, want 8080", port)
	}
}

func TestManagerSourcePrecedence(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "base.toml")
	if err := os.WriteFile(tomlPath, []byte("[server]\nport = 1\nhost = \"toml\"\ntls = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	textPath := filepath.Join(dir, "app.conf")
	writeFile(t, textPath, "[server]\nport = 2\nhost = \"text\"\n")

	t.Setenv("JMGR_SERVER_PORT", "3")

	m := NewManager(
		WithTOMLPath(tomlPath),
		WithPaths(textPath),
		WithEnvPrefix("JMGR_"),
	)
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Environment beats text beats TOML; untouched keys survive from
	// earlier layers.
	port, _ := m.Get("server", "port")
	if port != float64(3) {
		t.Errorf("port = %v, want 3", port)
	}
	host, _ := m.Get("server", "host")
	if host != "text" {
		t.Errorf("host = %v, want text", host)
	}
	tls, _ := m.Get("server", "tls")
	if tls != false {
		t.Errorf("tls = %v, want false", tls)
	}
}

func TestManagerMissingTextFileSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.conf")
	writeFile(t, path, "[a]\nx = 1\n")
	missing := filepath.Join(dir, "absent.conf")

	m := NewManager(WithPaths(missing, path))
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, _ := m.Get("a", "x"); v != float64(1) {
		t.Errorf("x = %v, want 1", v)
	}
}

func TestManagerSetNotifies(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if err := m.AddSection("server"); err != nil {
		t.Fatal(err)
	}

	var got []notify.Change
	m.Subscribe(func(c notify.Change) {
		got = append(got, c)
	})

	if err := m.Set("server", "port", float64(9090)); err != nil {
		t.Fatal(err)
	}
	removed, err := m.RemoveOption("server", "port")
	if err != nil || !removed {
		t.Fatalf("RemoveOption = %v, %v", removed, err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Type != notify.ChangeSet || got[0].New != float64(9090) {
		t.Errorf("unexpected set notification: %+v", got[0])
	}
	if got[1].Type != notify.ChangeDelete || got[1].Old != float64(9090) {
		t.Errorf("unexpected delete notification: %+v", got[1])
	}
}

func TestManagerWithSources(t *testing.T) {
	m := NewManager(WithSources(staticSource{
		"server": {"port": float64(7)},
		"":       {"debug": true},
	}))
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, _ := m.Get("server", "port"); v != float64(7) {
		t.Errorf("port = %v, want 7", v)
	}
	if v, _ := m.Get("server", "debug"); v != true {
		t.Errorf("debug = %v, want true (via defaults)", v)
	}
}

func TestManagerSetSectionBatch(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if err := m.AddSection("server"); err != nil {
		t.Fatal(err)
	}
	if err := m.Set("server", "old", float64(1)); err != nil {
		t.Fatal(err)
	}

	var got []notify.Change
	m.Subscribe(func(c notify.Change) {
		got = append(got, c)
	})

	err := m.SetSection("server", map[string]any{
		"port": float64(8080),
		"host": "localhost",
	})
	if err != nil {
		t.Fatal(err)
	}

	// One batch: a delete for the dropped entry, then sets in key order.
	if len(got) != 3 {
		t.Fatalf("expected 3 changes, got %d: %+v", len(got), got)
	}
	if got[0].Type != notify.ChangeDelete || got[0].Option != "old" || got[0].Old != float64(1) {
		t.Errorf("unexpected delete change: %+v", got[0])
	}
	if got[1].Type != notify.ChangeSet || got[1].Option != "host" {
		t.Errorf("unexpected set change: %+v", got[1])
	}
	if got[2].Type != notify.ChangeSet || got[2].Option != "port" || got[2].New != float64(8080) {
		t.Errorf("unexpected set change: %+v", got[2])
	}

	if v, _ := m.Get("server", "port"); v != float64(8080) {
		t.Errorf("port = %v, want 8080", v)
	}
	if _, err := m.Get("server", "old"); !errors.Is(err, ErrNoOption) {
		t.Errorf("dropped entry still resolves: %v", err)
	}
}

func TestManagerSetErrorNoNotification(t *testing.T) {
	m := NewManager()
	defer m.Close()

	var count int
	m.Subscribe(func(notify.Change) { count++ })

	if err := m.Set("missing", "x", 1); !errors.Is(err, ErrNoSection) {
		t.Fatalf("Set = %v, want ErrNoSection", err)
	}
	if count != 0 {
		t.Errorf("failed Set notified %d observers", count)
	}
}

func TestManagerLoadNotifiesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.conf")
	writeFile(t, path, "[a]\nx = 1\n")

	m := NewManager(WithPaths(path))
	defer m.Close()

	var reloads int
	m.SubscribeSection("a", func(c notify.Change) {
		if c.Type == notify.ChangeReload {
			reloads++
		}
	})

	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	if reloads != 1 {
		t.Errorf("expected 1 reload notification, got %d", reloads)
	}
}

func TestManagerLiveReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.conf")
	writeFile(t, path, "[server]\nport = 1\n")

	m := NewManager(WithPaths(path), WithLiveReload(true))
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	if err := m.Watch(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("[server]\nport = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if v, _ := m.Get("server", "port"); v == float64(2) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("store was not reloaded after file change")
}

func TestManagerWatchWithoutLiveReload(t *testing.T) {
	m := NewManager()
	defer m.Close()

	if err := m.Watch(); err != nil {
		t.Errorf("Watch without live reload = %v, want nil", err)
	}
}

func TestManagerBadFileAbortsLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.conf")
	writeFile(t, path, "[server]\nport = \n")

	m := NewManager(WithPaths(path))
	defer m.Close()

	err := m.Load()
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error %v is not a *ParseError", err)
	}
}
