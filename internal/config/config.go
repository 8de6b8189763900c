package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"driver":    "database.driver",
	"setup":     "run.setup",
	"teardown":  "run.teardown",
	"verify":    "run.verify",
	"log-level": "log.level",
}

// Load reads configuration from defaults, an optional YAML file,
// NULLSAFE_* environment variables and, when flags is non-nil, the
// command-line flags that were set explicitly.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	def := Default()
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.host", def.Database.Host)
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", def.Database.User)
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", def.Database.Name)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("database.sslmode", def.Database.SSLMode)
	v.SetDefault("database.table", def.Database.Table)
	v.SetDefault("run.setup", def.Run.Setup)
	v.SetDefault("run.teardown", def.Run.Teardown)
	v.SetDefault("run.verify", def.Run.Verify)
	v.SetDefault("run.timeout", def.Run.Timeout.String())
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nullsafe")

	if configPath == "" {
		configPath = os.Getenv("NULLSAFE_CONFIG")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Environment variable settings
	v.SetEnvPrefix("NULLSAFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Driver = normalizeDriver(cfg.Database.Driver)
	cfg.Database.Password = os.ExpandEnv(cfg.Database.Password)
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultPort(cfg.Database.Driver)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "postgres", "postgresql", "pg":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	}
	return driver
}

// validate checks config for required fields and valid values
func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite3":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite3")
		}
	case "mysql", "postgres":
		if cfg.Database.Name == "" {
			return fmt.Errorf("database.name is required for %s", cfg.Database.Driver)
		}
		if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", cfg.Database.Port)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if strings.TrimSpace(cfg.Database.Table) == "" {
		return fmt.Errorf("database.table is required")
	}
	if cfg.Run.Timeout <= 0 {
		return fmt.Errorf("invalid run timeout: %s", cfg.Run.Timeout)
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", cfg.Log.Format)
	}

	return nil
}
