// Package core holds error kinds shared by the chunking, summarization and
// Q&A paths. Kinds owned by a single package (model load, capacity,
// summarization) live next to their owner instead.
package core

// Kinder exposes the machine-readable kind of a structured error.
type Kinder interface {
	error
	Kind() string
}

// invalidInputError rejects empty, oversized or too-short input before any
// model is leased.
type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return e.msg }
func (e invalidInputError) Kind() string  { return "invalid_input" }

// InvalidInput constructs an invalid-input error.
func InvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether err rejects the request input.
func IsInvalidInput(err error) bool {
	_, ok := err.(invalidInputError)
	return ok
}

// timeoutError signals that a request exceeded its ceiling.
type timeoutError struct{ msg string }

func (e timeoutError) Error() string { return e.msg }
func (e timeoutError) Kind() string  { return "timeout" }

// Timeout constructs a timeout error.
func Timeout(msg string) error { return timeoutError{msg: msg} }

// IsTimeout reports whether err indicates an expired request deadline.
func IsTimeout(err error) bool {
	_, ok := err.(timeoutError)
	return ok
}

// ErrKind returns the kind of a structured error, or empty for unknown errors.
func ErrKind(err error) string {
	if k, ok := err.(Kinder); ok {
		return k.Kind()
	}
	return ""
}
