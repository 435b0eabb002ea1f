package court

import "fmt"

// OrderingError reports a frame whose timestamp is not strictly greater
// than the previously processed one. Out-of-order input is rejected, not
// buffered or reordered; serialising frames is the caller's job.
type OrderingError struct {
	Timestamp     float64
	LastTimestamp float64
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("frame timestamp %.6f is not after previous frame %.6f",
		e.Timestamp, e.LastTimestamp)
}

// ConfigError reports an engine configuration value outside its valid
// range. Configuration is validated once at session construction and
// never silently clamped.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}
