package types

// ModelsResponse wraps the list of configured models returned by GET /models.
type ModelsResponse struct {
	Models []ModelSpec `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: context is required
	Error string `json:"error" example:"context is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Machine-readable error kind (invalid_input, model_load, inference,
	// summarization, timeout, capacity_exceeded).
	// example: invalid_input
	Kind string `json:"kind,omitempty" example:"invalid_input"`
}

// HandleStatus summarizes one resident model handle for /status.
type HandleStatus struct {
	// example: distilbart-cnn
	ModelID string `json:"model_id" example:"distilbart-cnn"`
	// example: summarize
	Task string `json:"task" example:"summarize"`
	// example: cpu
	Device    string `json:"device" example:"cpu"`
	Quantized bool   `json:"quantized"`
	// Lifecycle state (loading, idle, leased).
	// example: idle
	State string `json:"state" example:"idle"`
	// Last time the handle served a request (unix seconds).
	// example: 1700000000
	LastUsedUnix int64 `json:"last_used_unix" example:"1700000000"`
	// Estimated resident memory in MB.
	// example: 1200
	MemEstMB int `json:"mem_est_mb" example:"1200"`
	// True when the handle was loaded beyond capacity under the soft cap.
	Overflow bool `json:"overflow,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Handles []HandleStatus `json:"handles"`
	// Configured resident capacity.
	// example: 3
	Capacity int `json:"capacity" example:"3"`
	// Handles currently resident (may exceed capacity during a soft-cap breach).
	// example: 3
	ResidentCount int `json:"resident_count" example:"3"`
	// Estimated resident memory across handles in MB.
	// example: 3600
	UsedEstMB int `json:"used_est_mb" example:"3600"`
	// Total model loads since start.
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// Total evictions since start.
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
	// Total soft-cap breaches since start.
	// example: 1
	SoftCapBreachesTotal uint64 `json:"soft_cap_breaches_total" example:"1"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
