package types

// LogLevel controls logger verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// RunMode identifies how the process was started.
type RunMode string

const (
	RunModeLocal RunMode = "local"
	RunModeAPI   RunMode = "api"
)
