package config

// Config represents the complete configuration structure
type Config struct {
	School  string        `mapstructure:"school"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
	Filter  FilterConfig  `mapstructure:"filter"`
}

// AuthConfig holds portal authentication details. Either a session id or a
// username/password pair must be set.
type AuthConfig struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	SessionID    string `mapstructure:"session_id"`
	KeepLoggedIn bool   `mapstructure:"keep_logged_in"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// FilterConfig contains named filter presets for the appointments command
type FilterConfig struct {
	Presets           map[string]string `mapstructure:"presets"`
	DefaultExpression string            `mapstructure:"default"`
}
