package cli

// Options holds the global command-line settings
type Options struct {
	ConfigFile string
	Verbosity  string
	LogFile    string
	Version    string
}

// NewOptions creates options with defaults
func NewOptions() *Options {
	return &Options{
		Verbosity: "info",
		Version:   "dev",
	}
}
