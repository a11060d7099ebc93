package telemetry

// Config holds configuration for the tracer
type Config struct {
	// ServiceName is the name of the service
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Enabled determines whether tracing is enabled
	// When false, a noop tracer is used
	Enabled bool

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	// 1.0 means all traces are sampled
	SampleRate float64
}

// DefaultConfig returns a sensible default configuration
// Tracing disabled by default for CLI tool
func DefaultConfig() Config {
	return Config{
		ServiceName:    "complyscan",
		ServiceVersion: "dev",
		Enabled:        false,
		SampleRate:     1.0,
	}
}
