package manager

import (
	"context"
	"time"

	"summaryd/pkg/types"
)

// Acquire returns a leased, ready handle for the model spec. The handle is
// exclusively held until Release: waiters for the same key queue on the
// handle's slot and are admitted one at a time. Missing handles are loaded
// synchronously; at capacity an idle LRU victim is evicted first, and when
// every resident handle is leased the manager overflows the soft cap instead
// of blocking indefinitely. Under a hard cap the overflow path fails with a
// capacity error instead.
func (m *Manager) Acquire(ctx context.Context, spec types.ModelSpec, devicePref string) (*Handle, error) {
	device := m.resolveDevice(devicePref)
	key := Key{ModelID: spec.ID, Device: device, Quantized: m.quantize}

	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrModelLoad(spec.ID, "manager closed")
		}
		h, ok := m.handles[key]
		if !ok {
			h, err := m.admitNewLocked(key, spec)
			m.mu.Unlock()
			if err != nil {
				return nil, err
			}
			return m.loadAndLease(ctx, h)
		}
		m.mu.Unlock()

		leased, err := m.waitForLease(ctx, h)
		if err != nil {
			return nil, err
		}
		if leased {
			return h, nil
		}
		// The handle was evicted while we waited; start over with a fresh one.
	}
}

// admitNewLocked makes room for a new key and inserts a loading handle that
// already holds its own slot. Caller holds m.mu.
func (m *Manager) admitNewLocked(key Key, spec types.ModelSpec) (*Handle, error) {
	overflow := false
	if len(m.handles) >= m.capacity {
		if victim := m.lruIdleLocked(); victim != nil {
			m.evictLocked(victim)
			defer m.closeEvicted(victim)
		} else if m.hardCap {
			m.log.Warn().Str("model", key.ModelID).Int("capacity", m.capacity).
				Msg("capacity exceeded under hard cap")
			return nil, capacityExceededError{id: key.ModelID}
		} else {
			// All residents are leased or loading. Capacity is a target, not
			// an absolute ceiling: load one more and log the breach.
			overflow = true
			m.softCapBreaches++
			m.log.Warn().Str("model", key.ModelID).Int("capacity", m.capacity).
				Int("resident", len(m.handles)+1).Msg("soft cap exceeded")
			m.publisher.Publish(Event{Name: "soft_cap_breach", ModelID: key.ModelID,
				Fields: map[string]any{"capacity": m.capacity, "resident": len(m.handles) + 1}})
		}
	}
	h := &Handle{
		key:      key,
		spec:     spec,
		state:    StateLoading,
		lastUsed: time.Now(),
		memEstMB: memEstimateMB(spec),
		overflow: overflow,
		slot:     make(chan struct{}, 1),
	}
	h.slot <- struct{}{} // creator holds the lease through the load
	m.handles[key] = h
	return h, nil
}

// loadAndLease performs the synchronous load for a handle the caller already
// holds the slot of. On failure the handle is removed and the slot freed so
// queued waiters can observe the eviction and retry.
func (m *Manager) loadAndLease(ctx context.Context, h *Handle) (*Handle, error) {
	backend, err := m.load(ctx, h.spec, h.key.Device)
	if err != nil {
		m.mu.Lock()
		h.state = StateEvicted
		h.loadErr = err
		delete(m.handles, h.key)
		m.mu.Unlock()
		<-h.slot
		m.publisher.Publish(Event{Name: "load_failed", ModelID: h.key.ModelID,
			Fields: map[string]any{"error": err.Error()}})
		return nil, err
	}
	m.mu.Lock()
	h.backend = backend
	h.state = StateLeased
	h.lastUsed = time.Now()
	m.loadsTotal++
	m.mu.Unlock()
	m.log.Info().Str("model", h.key.ModelID).Str("device", h.key.Device).
		Bool("quantized", h.key.Quantized).Msg("model loaded")
	m.publisher.Publish(Event{Name: "handle_loaded", ModelID: h.key.ModelID,
		Fields: map[string]any{"device": h.key.Device}})
	return h, nil
}

// waitForLease queues on an existing handle's slot. It returns (true, nil)
// once the handle is leased, (false, nil) when the handle was evicted during
// the wait and the caller should retry, or an error on timeout/cancellation.
func (m *Manager) waitForLease(ctx context.Context, h *Handle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	timer := time.NewTimer(m.leaseWait)
	defer timer.Stop()
	select {
	case h.slot <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
		return false, tooBusyError{id: h.key.ModelID}
	}

	m.mu.Lock()
	if h.state == StateEvicted {
		loadErr := h.loadErr
		m.mu.Unlock()
		<-h.slot
		if loadErr != nil {
			return false, loadErr
		}
		return false, nil
	}
	h.state = StateLeased
	h.lastUsed = time.Now()
	m.mu.Unlock()
	return true, nil
}

// Release transitions a leased handle back to idle and stamps its last-used
// time, then frees the slot for the next waiter. Releasing also trims any
// soft-cap overflow that has turned idle.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}
	m.mu.Lock()
	if h.state == StateLeased {
		h.state = StateIdle
		h.lastUsed = time.Now()
	}
	m.mu.Unlock()
	select {
	case <-h.slot:
	default: // tolerate double release
	}
	m.trimOverflow()
}

// memEstimateMB returns the declared estimate, with a conservative minimum so
// an unknown size never bypasses accounting.
func memEstimateMB(spec types.ModelSpec) int {
	if spec.MemMB > 0 {
		return spec.MemMB
	}
	return 1
}
