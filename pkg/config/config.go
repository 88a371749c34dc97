package config

// Config is the daemon configuration.
type Config interface {
	Socket() string
	LogLevel() string
	AllowNonRootAccess() bool
	Widgets() []Widget
	Widget(name string) (Widget, bool)

	SetAllowNonRootAccess(bool)
	SetLogLevel(string)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
