package manager

// modelLoadError surfaces a load failure after all retries.
type modelLoadError struct {
	id  string
	msg string
}

func (e modelLoadError) Error() string { return "model load failed: " + e.id + ": " + e.msg }
func (e modelLoadError) Kind() string  { return "model_load" }

// ErrModelLoad constructs a modelLoadError.
func ErrModelLoad(id, msg string) error { return modelLoadError{id: id, msg: msg} }

// IsModelLoad reports whether err indicates a failed model load.
func IsModelLoad(err error) bool {
	_, ok := err.(modelLoadError)
	return ok
}

// capacityExceededError fails an Acquire under a hard capacity cap when
// every resident handle is leased and no idle victim can be evicted.
type capacityExceededError struct{ id string }

func (e capacityExceededError) Error() string { return "model capacity exceeded loading: " + e.id }
func (e capacityExceededError) Kind() string  { return "capacity_exceeded" }

// ErrCapacityExceeded constructs a capacityExceededError.
func ErrCapacityExceeded(id string) error { return capacityExceededError{id: id} }

// IsCapacityExceeded reports whether err indicates a capacity breach.
func IsCapacityExceeded(err error) bool {
	_, ok := err.(capacityExceededError)
	return ok
}

// tooBusyError signals a lease-wait timeout for 429 mapping.
type tooBusyError struct{ id string }

func (e tooBusyError) Error() string { return "too busy: " + e.id }
func (e tooBusyError) Kind() string  { return "too_busy" }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	_, ok := err.(tooBusyError)
	return ok
}
