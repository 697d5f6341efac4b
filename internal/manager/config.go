package manager

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultCapacity    = 3
	defaultLoadTimeout = 60 * time.Second
	defaultLoadRetries = 3
	defaultLeaseWait   = 30 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Maximum resident handles. A soft cap: see Acquire.
	Capacity int
	// HardCap turns Capacity into an absolute ceiling. With every resident
	// leased, Acquire of a new key fails instead of overflowing.
	HardCap bool
	// Device mode: auto, cpu or gpu. Resolved against the caller preference.
	DeviceMode string
	// Quantization flag applied to every load; part of the handle key.
	Quantize bool
	// Per-attempt load timeout and total attempt count.
	LoadTimeout time.Duration
	LoadRetries int
	// Maximum time a caller waits for a leased handle before backpressure.
	LeaseWait time.Duration
	// Factory overrides the family registry; used by tests.
	Factory BackendFactory
	// Publisher receives lifecycle events; nil means drop.
	Publisher EventPublisher
	// Logger for manager events; zero value logs nowhere.
	Logger zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		handles:     make(map[Key]*Handle),
		capacity:    cfg.Capacity,
		hardCap:     cfg.HardCap,
		deviceMode:  cfg.DeviceMode,
		quantize:    cfg.Quantize,
		loadTimeout: cfg.LoadTimeout,
		loadRetries: cfg.LoadRetries,
		leaseWait:   cfg.LeaseWait,
		factory:     cfg.Factory,
		publisher:   cfg.Publisher,
		log:         cfg.Logger,
		startTime:   time.Now(),
	}
	if m.capacity <= 0 {
		m.capacity = defaultCapacity
	}
	if m.deviceMode == "" {
		m.deviceMode = "auto"
	}
	if m.loadTimeout <= 0 {
		m.loadTimeout = defaultLoadTimeout
	}
	if m.loadRetries <= 0 {
		m.loadRetries = defaultLoadRetries
	}
	if m.leaseWait <= 0 {
		m.leaseWait = defaultLeaseWait
	}
	if m.factory == nil {
		m.factory = familyFactory
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	return m
}
