package telemetry

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string

	// Format is "console" for human-readable output or "json".
	Format string

	// Output is "stderr", "stdout" or a file path.
	Output string
}

// TracingConfig controls operation tracing.
type TracingConfig struct {
	// Enabled turns span export on. Off by default; the installer is
	// a short-lived CLI.
	Enabled bool
}

// DefaultLoggingConfig is what the CLI uses unless flags override it.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: "info", Format: "console", Output: "stderr"}
}
