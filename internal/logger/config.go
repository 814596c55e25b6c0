package logger

// Config selects the level, encoding and sinks of a Logger.
type Config struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"` // json or console
	// Development turns sampling off.
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

// Fallbacks used by SetDefaults.
const (
	DefaultLevel  = "info"
	DefaultFormat = "json"
)

// SetDefaults fills empty fields: info level, JSON encoding, stdout.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.OutputPaths == nil {
		c.OutputPaths = []string{"stdout"}
	}
}
