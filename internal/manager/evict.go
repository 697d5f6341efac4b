package manager

// lruIdleLocked picks the least-recently-used idle handle, or nil when every
// resident handle is leased or loading. A leased handle is never a victim.
// Caller holds m.mu.
func (m *Manager) lruIdleLocked() *Handle {
	var lru *Handle
	for _, h := range m.handles {
		if h.state != StateIdle || len(h.slot) > 0 {
			continue
		}
		if lru == nil || h.lastUsed.Before(lru.lastUsed) {
			lru = h
		}
	}
	return lru
}

// evictLocked removes a handle from the resident set. Caller holds m.mu.
func (m *Manager) evictLocked(h *Handle) {
	h.state = StateEvicted
	delete(m.handles, h.key)
	m.evictionsTotal++
}

// closeEvicted releases backend resources outside the lock.
func (m *Manager) closeEvicted(h *Handle) {
	if h.backend != nil {
		_ = h.backend.Close()
	}
	m.log.Info().Str("model", h.key.ModelID).Bool("overflow", h.overflow).Msg("model evicted")
	m.publisher.Publish(Event{Name: "handle_evicted", ModelID: h.key.ModelID,
		Fields: map[string]any{"overflow": h.overflow}})
}

// trimOverflow restores the resident count to capacity once soft-cap overflow
// handles turn idle. Overflow handles are preferred victims; plain LRU idle
// handles are taken only if overflow ones are still leased.
func (m *Manager) trimOverflow() {
	var victims []*Handle
	m.mu.Lock()
	for len(m.handles) > m.capacity {
		var v *Handle
		for _, h := range m.handles {
			if h.overflow && h.state == StateIdle && len(h.slot) == 0 {
				v = h
				break
			}
		}
		if v == nil {
			v = m.lruIdleLocked()
		}
		if v == nil {
			break // everything above capacity is still leased
		}
		m.evictLocked(v)
		victims = append(victims, v)
	}
	m.mu.Unlock()
	for _, v := range victims {
		m.closeEvicted(v)
	}
}
