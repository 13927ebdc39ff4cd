// Package hotkey registers the global talk combination and reports
// presses. A press toggles the session; the caller decides start versus
// stop from the controller state, so the combination keeps working after
// a turn was ended by the recording timeout instead of the user.
package hotkey

import (
	"fmt"
	"sync"
	"time"

	"golang.design/x/hotkey"

	"github.com/vaani-app/vaani/internal/config"
)

// debounceInterval swallows the key-repeat presses the OS generates
// while the combination is held down
const debounceInterval = 300 * time.Millisecond

// Event is one press of the registered combination
type Event struct {
	At time.Time
}

// Manager owns the OS-level hotkey registration
type Manager struct {
	mu        sync.Mutex
	hk        *hotkey.Hotkey
	combo     config.HotkeyConfig
	eventChan chan Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	running   bool
}

// New creates a manager. Nothing is registered until Register is called.
func New() *Manager {
	return &Manager{
		eventChan: make(chan Event, 10),
	}
}

// Register claims the combination with the OS and starts reporting
// presses on Events. Call Close first to change the combination.
func (m *Manager) Register(combo config.HotkeyConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("hotkey is already registered, call Close() first")
	}

	mods := modifiersFor(combo)
	if len(mods) == 0 {
		return fmt.Errorf("hotkey needs at least one modifier")
	}
	key, ok := keyFor(combo.Key)
	if !ok {
		return fmt.Errorf("unknown hotkey key %q", combo.Key)
	}

	// channels may have been closed by a previous Close
	m.stopChan = make(chan struct{})
	m.eventChan = make(chan Event, 10)

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}

	m.hk = hk
	m.combo = combo
	m.running = true

	m.wg.Add(1)
	go m.listen(hk, m.stopChan, m.eventChan)

	return nil
}

// listen forwards debounced keydown events. A stalled consumer loses
// presses; the hotkey loop itself never blocks.
func (m *Manager) listen(hk *hotkey.Hotkey, stop <-chan struct{}, events chan<- Event) {
	defer m.wg.Done()

	var last time.Time
	for {
		select {
		case <-hk.Keydown():
			now := time.Now()
			if now.Sub(last) < debounceInterval {
				continue
			}
			last = now
			select {
			case events <- Event{At: now}:
			default:
			}
		case <-stop:
			return
		}
	}
}

// Events returns the channel presses arrive on. It is closed by Close.
func (m *Manager) Events() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventChan
}

// Close unregisters the combination and stops the listener. Safe to
// call on a manager that was never registered.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	close(m.stopChan)
	m.wg.Wait()

	var unregisterErr error
	if m.hk != nil {
		if err := m.hk.Unregister(); err != nil {
			unregisterErr = fmt.Errorf("failed to unregister hotkey: %w", err)
		}
		m.hk = nil
	}

	close(m.eventChan)

	// running clears even when Unregister fails so a later Register can
	// try again
	m.running = false

	return unregisterErr
}

// IsRunning reports whether a combination is currently registered
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Current returns the registered combination
func (m *Manager) Current() config.HotkeyConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.combo
}
