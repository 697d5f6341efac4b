package manager

import (
	"time"

	"summaryd/pkg/types"
)

// State represents the lifecycle state of a handle.
type State string

const (
	StateLoading State = "loading"
	StateIdle    State = "idle"
	StateLeased  State = "leased"
	StateEvicted State = "evicted"
)

// Key identifies a resident handle. Quantization is fixed at load time, so it
// is part of the key rather than a mutable attribute.
type Key struct {
	ModelID   string
	Device    string
	Quantized bool
}

// Handle is a leased view of a loaded backend. It is returned by Acquire and
// must be given back via Release; the zero value is not usable.
type Handle struct {
	key      Key
	spec     types.ModelSpec
	state    State
	lastUsed time.Time
	memEstMB int
	overflow bool
	loadErr  error

	// slot is held while the handle is loading or leased: a single in-flight
	// user per handle, waiters queue on the channel.
	slot chan struct{}

	backend Backend
}

// Backend returns the loaded backend. Only valid between Acquire and Release.
func (h *Handle) Backend() Backend { return h.backend }

// ModelID returns the model id this handle serves.
func (h *Handle) ModelID() string { return h.key.ModelID }

// Device returns the device the handle was loaded on.
func (h *Handle) Device() string { return h.key.Device }

// Spec returns the model spec the handle was loaded from.
func (h *Handle) Spec() types.ModelSpec { return h.spec }
