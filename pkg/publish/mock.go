package publish

import (
	"errors"
	"sync"
)

// ErrMockPublishFailed is returned by a MockTransport configured to fail.
var ErrMockPublishFailed = errors.New("mock publish failed")

// SentMessage records one publish through a MockTransport.
type SentMessage struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// MockTransport is an in-memory Transport for tests and the interactive
// simulator. Connectivity and publish failures are controllable.
type MockTransport struct {
	mu sync.Mutex

	connected bool
	failNext  int  // fail this many upcoming publishes
	failAll   bool // fail every publish

	sent     []SentMessage
	handlers map[string]func(topic string, payload []byte)
}

// Compile-time check.
var _ Transport = (*MockTransport)(nil)

// NewMockTransport creates a connected mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		connected: true,
		handlers:  make(map[string]func(topic string, payload []byte)),
	}
}

// Publish records the message, or fails if configured to.
func (m *MockTransport) Publish(topic string, payload []byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrMockPublishFailed
	}
	if m.failAll {
		return ErrMockPublishFailed
	}
	if m.failNext > 0 {
		m.failNext--
		return ErrMockPublishFailed
	}

	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.sent = append(m.sent, SentMessage{Topic: topic, Payload: cp, Retained: retained})
	return nil
}

// Subscribe registers a handler; Inject delivers to it.
func (m *MockTransport) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

// Connected reports the simulated connectivity.
func (m *MockTransport) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Close marks the transport disconnected.
func (m *MockTransport) Close() {
	m.SetConnected(false)
}

// SetConnected flips the simulated connectivity.
func (m *MockTransport) SetConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

// FailNext makes the next n publishes fail.
func (m *MockTransport) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// FailAll makes every publish fail until disabled.
func (m *MockTransport) FailAll(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = fail
}

// Sent returns a copy of everything published so far.
func (m *MockTransport) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the publishes addressed to one topic.
func (m *MockTransport) SentTo(topic string) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, s := range m.sent {
		if s.Topic == topic {
			out = append(out, s)
		}
	}
	return out
}

// Reset clears the sent record.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// Inject delivers an inbound message to the subscribed handler, if any.
// It reports whether a handler was registered for the topic.
func (m *MockTransport) Inject(topic string, payload []byte) bool {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		return false
	}
	handler(topic, payload)
	return true
}
