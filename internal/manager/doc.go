// Package manager provides the capacity-bounded lifecycle of inference
// backends. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, counters, Close.
//   - config.go: ManagerConfig and package defaults.
//   - handle.go: handle key and lifecycle states (loading, idle, leased).
//   - errors.go: error types and helpers (IsModelLoad, IsTooBusy, ...).
//   - acquire.go: Acquire/Release leasing, waiter queueing per handle.
//   - evict.go: LRU eviction of idle handles and soft-cap trimming.
//   - load.go: synchronous backend loading with timeout and backoff retries.
//   - backend.go: the capability interface and the family registry.
//   - backend_llama.go / backend_openai.go: concrete backend families.
//   - events.go / eventpub_memory.go: lifecycle event publishing.
//   - status.go: Status reporting for the HTTP layer.
//
// A handle is exclusively held between Acquire and Release; the manager never
// runs two inferences on the same handle concurrently. Idle handles are
// evicted least-recently-used when a new distinct key is needed at capacity.
// When every resident handle is leased, the manager loads one more handle
// beyond capacity and logs the breach instead of blocking indefinitely.
package manager
