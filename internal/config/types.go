package config

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Run      RunConfig      `yaml:"run" mapstructure:"run"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig holds connection settings. Path is used by sqlite3 only;
// Host, Port, User, Password and Name by mysql and postgres.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Name     string `yaml:"name" mapstructure:"name"`
	Path     string `yaml:"path" mapstructure:"path"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
	Table    string `yaml:"table" mapstructure:"table"`
}

// RunConfig controls the fixture lifecycle and verification
type RunConfig struct {
	Setup    bool          `yaml:"setup" mapstructure:"setup"`
	Teardown bool          `yaml:"teardown" mapstructure:"teardown"`
	Verify   bool          `yaml:"verify" mapstructure:"verify"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "text" or "json"
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:  "sqlite3",
			Host:    "localhost",
			User:    "root",
			Name:    "nullsafe_test",
			Path:    "./data/nullsafe.db",
			SSLMode: "disable",
			Table:   "users",
		},
		Run: RunConfig{
			Setup:   true,
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPort returns the conventional port for a driver, or 0 when the
// driver does not use one
func DefaultPort(driver string) int {
	switch driver {
	case "mysql":
		return 3306
	case "postgres":
		return 5432
	}
	return 0
}
