package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns the resident set of loaded backends. One logical instance per
// process; ownership is explicit and passed by reference into the engines.
type Manager struct {
	mu      sync.Mutex
	handles map[Key]*Handle

	capacity   int
	hardCap    bool
	deviceMode string
	quantize   bool

	loadTimeout time.Duration
	loadRetries int
	leaseWait   time.Duration

	factory   BackendFactory
	publisher EventPublisher
	log       zerolog.Logger

	loadsTotal      uint64
	evictionsTotal  uint64
	softCapBreaches uint64

	startTime time.Time
	closed    bool
}

// ResidentCount returns the number of handles currently resident.
func (m *Manager) ResidentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// Capacity returns the configured resident capacity.
func (m *Manager) Capacity() int { return m.capacity }

// Ready reports whether the manager can serve requests.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// resolveDevice maps a caller preference onto the configured device mode.
// GPU is honored only when the mode allows it; everything else lands on CPU.
func (m *Manager) resolveDevice(pref string) string {
	switch m.deviceMode {
	case "cpu":
		return "cpu"
	case "gpu":
		return "gpu"
	}
	if pref == "gpu" {
		return "gpu"
	}
	return "cpu"
}

// Close evicts every resident handle and refuses further acquisitions.
// Leased handles are closed as well: shutdown wins over in-flight work.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	victims := make([]*Handle, 0, len(m.handles))
	for k, h := range m.handles {
		h.state = StateEvicted
		victims = append(victims, h)
		delete(m.handles, k)
	}
	m.mu.Unlock()
	for _, h := range victims {
		if h.backend != nil {
			_ = h.backend.Close()
		}
		m.publisher.Publish(Event{Name: "handle_closed", ModelID: h.key.ModelID, Fields: map[string]any{}})
	}
	return nil
}
