package jsonini

import (
	"fmt"
	"sync"

	"github.com/dshills/jsonini/loader"
	"github.com/dshills/jsonini/notify"
	"github.com/dshills/jsonini/watcher"
)

// Manager wires a Config store to its configuration sources, guards it
// with a lock for shared use, emits change notifications, and optionally
// reloads when a source file changes on disk.
//
// Load order (later sources override earlier ones through normal Set
// semantics): the TOML file if configured, then the text paths in order
// (best-effort, unopenable files skipped), then environment overrides.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	notifier *notify.Notifier
	watch    *watcher.Watcher

	paths     []string
	tomlPath  string
	envPrefix string
	encoding  string
	sources   []loader.Loader
	live      bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPaths sets the configuration text files loaded in order.
func WithPaths(paths ...string) ManagerOption {
	return func(m *Manager) {
		m.paths = append(m.paths, paths...)
	}
}

// WithTOMLPath sets a TOML file applied before the text paths.
func WithTOMLPath(path string) ManagerOption {
	return func(m *Manager) {
		m.tomlPath = path
	}
}

// WithEnvPrefix enables environment variable overrides with the given
// prefix (e.g. "JSONINI_"), applied after all files.
func WithEnvPrefix(prefix string) ManagerOption {
	return func(m *Manager) {
		m.envPrefix = prefix
	}
}

// WithEncodingName selects the text encoding used to read the text paths.
func WithEncodingName(name string) ManagerOption {
	return func(m *Manager) {
		m.encoding = name
	}
}

// WithSources appends extra Loader sources applied after the environment
// overrides, in the order given.
func WithSources(sources ...loader.Loader) ManagerOption {
	return func(m *Manager) {
		m.sources = append(m.sources, sources...)
	}
}

// WithLiveReload enables reloading when a watched source file changes.
func WithLiveReload(enable bool) ManagerOption {
	return func(m *Manager) {
		m.live = enable
	}
}

// NewManager creates a Manager. Call Load to populate it.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		config:   New(),
		notifier: notify.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load builds a fresh store from all configured sources and swaps it in.
// Subscribers receive a reload notification on success.
func (m *Manager) Load() error {
	cfg, err := m.build()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	m.notifier.NotifyReload("load")
	return nil
}

// build assembles a store from the configured sources.
func (m *Manager) build() (*Config, error) {
	cfg := New()

	if m.tomlPath != "" {
		if err := applySource(cfg, loader.NewTOMLLoader(m.tomlPath), m.tomlPath); err != nil {
			return nil, err
		}
	}

	if len(m.paths) > 0 {
		var opts []loader.ReadOption
		if m.encoding != "" {
			opts = append(opts, loader.WithEncoding(m.encoding))
		}
		if err := cfg.LoadFiles(m.paths, opts...); err != nil {
			return nil, err
		}
	}

	if m.envPrefix != "" {
		if err := applySource(cfg, loader.NewEnvLoader(m.envPrefix), "environment overrides"); err != nil {
			return nil, err
		}
	}

	for _, src := range m.sources {
		if err := applySource(cfg, src, "extra source"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applySource loads one Loader source into cfg. A nil section map means the
// source has nothing to contribute.
func applySource(cfg *Config, src loader.Loader, what string) error {
	data, err := src.Load()
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := cfg.LoadMap(data); err != nil {
		return fmt.Errorf("applying %s: %w", what, err)
	}
	return nil
}

// Get resolves an option value under the read lock.
func (m *Manager) Get(section, option string, opts ...LookupOption) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Get(section, option, opts...)
}

// Set writes an option value under the write lock and notifies
// subscribers.
func (m *Manager) Set(section, option string, value any) error {
	m.mu.Lock()
	old, _ := m.config.Get(section, option)
	err := m.config.Set(section, option, value)
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.notifier.NotifySet(section, option, old, value, "set")
	return nil
}

// RemoveOption deletes an option under the write lock and notifies
// subscribers when something was removed.
func (m *Manager) RemoveOption(section, option string) (bool, error) {
	m.mu.Lock()
	old, _ := m.config.Get(section, option)
	removed, err := m.config.RemoveOption(section, option)
	m.mu.Unlock()

	if err != nil || !removed {
		return removed, err
	}
	m.notifier.NotifyDelete(section, option, old, "remove")
	return true, nil
}

// SetSection replaces a section's own entries under the write lock and
// delivers the resulting changes as one committed batch: deletes for own
// entries the new mapping drops, then sets for every supplied entry.
func (m *Manager) SetSection(name string, values map[string]any) error {
	m.mu.Lock()
	var ownKeys []string
	old := make(map[string]any)
	if target, err := m.config.writeTarget(name); err == nil {
		ownKeys = target.keyOrder()
		for _, k := range ownKeys {
			old[k], _ = target.get(k)
		}
	}
	err := m.config.SetSection(name, values)
	m.mu.Unlock()

	if err != nil {
		return err
	}

	batch := m.notifier.NewBatch()
	for _, k := range ownKeys {
		if _, kept := values[k]; !kept {
			batch.Delete(name, k, old[k], "set-section")
		}
	}
	for _, k := range sortedKeys(values) {
		batch.Set(name, k, old[k], values[k], "set-section")
	}
	batch.Commit()
	return nil
}

// AddSection creates a section under the write lock.
func (m *Manager) AddSection(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.AddSection(name)
}

// Sections returns the section names under the read lock.
func (m *Manager) Sections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Sections()
}

// Config returns the current store. The store itself is unsynchronized;
// the caller must not mutate it while other goroutines use the Manager.
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Subscribe registers an observer for all configuration changes.
func (m *Manager) Subscribe(observer notify.Observer) *notify.Subscription {
	return m.notifier.Subscribe(observer)
}

// SubscribeSection registers an observer scoped to one section.
func (m *Manager) SubscribeSection(section string, observer notify.Observer) *notify.Subscription {
	return m.notifier.SubscribeSection(section, observer)
}

// Watch starts live reload for the configured source files. A change to
// any watched file rebuilds the store from all sources; subscribers see a
// reload notification. No-op unless WithLiveReload(true) was given.
func (m *Manager) Watch() error {
	if !m.live {
		return nil
	}

	m.mu.Lock()
	if m.watch != nil {
		m.mu.Unlock()
		return nil
	}
	w, err := watcher.New()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.watch = w
	m.mu.Unlock()

	w.OnChange(func(watcher.Event) {
		// Rebuild from every source so cross-file overrides stay correct.
		_ = m.Load()
	})

	for _, path := range m.watchPaths() {
		if err := w.Watch(path); err != nil {
			return err
		}
	}
	return nil
}

// watchPaths returns every source file the watcher should track.
func (m *Manager) watchPaths() []string {
	var paths []string
	if m.tomlPath != "" {
		paths = append(paths, m.tomlPath)
	}
	paths = append(paths, m.paths...)
	return paths
}

// Close stops the watcher and the notifier.
func (m *Manager) Close() error {
	m.mu.Lock()
	w := m.watch
	m.watch = nil
	m.mu.Unlock()

	var err error
	if w != nil {
		err = w.Close()
	}
	m.notifier.Close()
	return err
}
