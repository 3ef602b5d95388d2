package httpapi

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints
// and websocket request frames.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// predictTimeout bounds how long a prediction request may run.
// Zero means no additional timeout beyond server/connection timeouts.
var predictTimeout = int64(0) // seconds

// SetPredictTimeoutSeconds sets the prediction timeout in seconds (0 disables).
func SetPredictTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	predictTimeout = sec
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

// swaggerEnabled mounts the API browser under /swagger/.
var swaggerEnabled bool

// SetSwaggerEnabled toggles the /swagger/ routes.
func SetSwaggerEnabled(on bool) { swaggerEnabled = on }
