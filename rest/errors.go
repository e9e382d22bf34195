package rest

import "fmt"

// ConfigError reports a missing or invalid configuration value. It is fatal
// at startup and never recoverable per-request.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// APIError reports a non-2xx response from the backend. Message carries the
// envelope message when the backend supplied one, otherwise a generic
// description of the status.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// NetworkError reports a request that never produced an HTTP response:
// the host was unreachable, DNS failed, or the transport timed out.
// It is displayed like an APIError but carries no status code.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying transport error for errors.Is/As matching.
func (e *NetworkError) Unwrap() error {
	return e.Err
}
