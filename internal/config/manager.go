package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Manager provides thread-safe access to configuration with hot-reload.
// Reads go through an atomic pointer so a reload never blocks callers.
type Manager struct {
	path    string
	current atomic.Pointer[Config]
	logger  *slog.Logger

	mu        sync.Mutex
	onChange  []func(*Config)
	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

// NewManager loads the configuration from path and returns a manager
// holding it. The file is not watched until Watch is called.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	m := &Manager{path: path, logger: logger}
	m.current.Store(cfg)
	return m, nil
}

// NewStaticManager wraps an already-built configuration with no file
// backing. Watch is a no-op for static managers.
func NewStaticManager(cfg *Config) *Manager {
	m := &Manager{logger: slog.Default()}
	m.current.Store(cfg)
	return m
}

// Get returns the current configuration snapshot. The returned value
// must be treated as read-only.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// OnChange registers a callback invoked after each successful reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Watch starts watching the config file for changes until ctx is
// cancelled. Reload failures keep the previous configuration.
func (m *Manager) Watch(ctx context.Context) error {
	if m.path == "" {
		return nil
	}

	var startErr error
	m.watchOnce.Do(func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			startErr = fmt.Errorf("create watcher: %w", err)
			return
		}
		// Watch the directory; editors often replace the file
		// on save, which drops a watch on the file itself.
		if err := watcher.Add(filepath.Dir(m.path)); err != nil {
			watcher.Close()
			startErr = fmt.Errorf("watch config dir: %w", err)
			return
		}
		m.watcher = watcher
		go m.watchLoop(ctx)
	})
	return startErr
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.watcher.Close()

	// Debounce rapid write events from editors and atomic renames.
	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	target := filepath.Clean(m.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, m.reload)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (m *Manager) reload() {
	cfg, err := LoadFromFile(m.path)
	if err != nil {
		m.logger.Warn("config reload failed, keeping previous", "error", err)
		return
	}

	m.current.Store(cfg)
	m.logger.Info("config reloaded", "path", m.path)

	m.mu.Lock()
	callbacks := make([]func(*Config), len(m.onChange))
	copy(callbacks, m.onChange)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}
