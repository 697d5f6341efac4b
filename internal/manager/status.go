package manager

import (
	"time"

	"summaryd/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := types.StatusResponse{
		Capacity:             m.capacity,
		ResidentCount:        len(m.handles),
		LoadsTotal:           m.loadsTotal,
		EvictionsTotal:       m.evictionsTotal,
		SoftCapBreachesTotal: m.softCapBreaches,
		UptimeSeconds:        int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix:       time.Now().Unix(),
	}
	resp.Handles = make([]types.HandleStatus, 0, len(m.handles))
	for _, h := range m.handles {
		resp.UsedEstMB += h.memEstMB
		resp.Handles = append(resp.Handles, types.HandleStatus{
			ModelID:      h.key.ModelID,
			Task:         h.spec.Task,
			Device:       h.key.Device,
			Quantized:    h.key.Quantized,
			State:        string(h.state),
			LastUsedUnix: h.lastUsed.Unix(),
			MemEstMB:     h.memEstMB,
			Overflow:     h.overflow,
		})
	}
	return resp
}
