package summarize

// summarizationError fails a request: either every chunk failed or the
// length bound was still unmet at the maximum reduction depth.
type summarizationError struct{ msg string }

func (e summarizationError) Error() string { return "summarization failed: " + e.msg }
func (e summarizationError) Kind() string  { return "summarization" }

// ErrSummarization constructs a summarizationError.
func ErrSummarization(msg string) error { return summarizationError{msg: msg} }

// IsSummarization reports whether err indicates a failed summarization request.
func IsSummarization(err error) bool {
	_, ok := err.(summarizationError)
	return ok
}

// inferenceError marks a single chunk failure. It is retried once and then
// recorded as a skipped chunk rather than failing the request.
type inferenceError struct{ msg string }

func (e inferenceError) Error() string { return "inference failed: " + e.msg }
func (e inferenceError) Kind() string  { return "inference" }

// ErrInference constructs an inferenceError.
func ErrInference(msg string) error { return inferenceError{msg: msg} }

// IsInference reports whether err indicates a single-chunk inference failure.
func IsInference(err error) bool {
	_, ok := err.(inferenceError)
	return ok
}
