package speech

import (
	"context"
	"sync"
)

// MockEngine is a test implementation of the Engine interface.
// It records every utterance and can hold Speak open until released.
type MockEngine struct {
	mu      sync.Mutex
	spoken  []string
	err     error
	gate    chan struct{}
	started chan string
	stops   int
	closed  bool
}

// NewMockEngine creates a MockEngine whose Speak returns immediately.
func NewMockEngine() *MockEngine {
	return &MockEngine{started: make(chan string, 64)}
}

// SetError sets the error returned by Speak.
func (m *MockEngine) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Hold makes subsequent Speak calls block until Release is called.
func (m *MockEngine) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
}

// Release unblocks every Speak call waiting on the current hold.
func (m *MockEngine) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Started delivers the text of each utterance as Speak begins.
func (m *MockEngine) Started() <-chan string {
	return m.started
}

// Speak records text and returns the configured error.
func (m *MockEngine) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	gate := m.gate
	err := m.err
	m.mu.Unlock()

	select {
	case m.started <- text:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}

// Stop counts interrupt requests and releases any held utterance.
func (m *MockEngine) Stop() error {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
	m.Release()
	return nil
}

// Close marks the engine closed.
func (m *MockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Spoken returns a copy of every text passed to Speak.
func (m *MockEngine) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	copy(out, m.spoken)
	return out
}

// Stops returns how many times Stop was called.
func (m *MockEngine) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Closed reports whether Close was called.
func (m *MockEngine) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
