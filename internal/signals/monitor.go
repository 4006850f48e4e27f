// Package signals lets a user interrupt a long iterative run from outside
// the process: dropping a "stop" file into .weft/signals makes strategies
// finish in-flight work and return partial results.
package signals

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Monitor watches the signals directory of a project.
type Monitor struct {
	signalsDir string

	mu         sync.RWMutex
	stopSignal bool

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// NewMonitor creates a monitor for the given project root. The watcher is
// best-effort: when fsnotify is unavailable the monitor falls back to
// checking the stop file on demand.
func NewMonitor(projectRoot string) (*Monitor, error) {
	signalsDir := filepath.Join(projectRoot, ".weft", "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	m := &Monitor{
		signalsDir: signalsDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return m, nil
	}
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		return m, nil
	}
	m.watcher = watcher
	go m.watch()

	return m, nil
}

// watch reacts to file creation in the signals directory.
func (m *Monitor) watch() {
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && filepath.Base(event.Name) == "stop" {
				m.mu.Lock()
				m.stopSignal = true
				m.mu.Unlock()
			}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// ShouldStop reports whether a stop was requested. Without a live watcher
// it stats the stop file directly, throttled by the caller's polling.
func (m *Monitor) ShouldStop() bool {
	m.mu.RLock()
	stopped := m.stopSignal
	m.mu.RUnlock()
	if stopped {
		return true
	}

	if m.watcher == nil {
		if _, err := os.Stat(filepath.Join(m.signalsDir, "stop")); err == nil {
			m.mu.Lock()
			m.stopSignal = true
			m.mu.Unlock()
			return true
		}
	}
	return false
}

// Clear removes a pending stop signal and its file.
func (m *Monitor) Clear() {
	m.mu.Lock()
	m.stopSignal = false
	m.mu.Unlock()
	os.Remove(filepath.Join(m.signalsDir, "stop"))
}

// Close stops the watcher. Safe to call more than once.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		if m.watcher != nil {
			m.watcher.Close()
		}
	})
}
