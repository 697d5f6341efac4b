package httpapi

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// requestTimeoutSec bounds how long a summarize or qa request may run.
// Zero means no additional timeout beyond server/connection timeouts.
var requestTimeoutSec = int64(0)

// SetRequestTimeoutSeconds sets the per-request timeout in seconds (0 disables).
func SetRequestTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	requestTimeoutSec = sec
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// rateLimitPerMinute caps requests per client IP. Zero disables limiting.
var rateLimitPerMinute = 0

// SetRateLimitPerMinute configures the per-IP request budget (0 disables).
func SetRateLimitPerMinute(n int) {
	if n < 0 {
		n = 0
	}
	rateLimitPerMinute = n
}
