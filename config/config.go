package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/stowgate/cache"
	"github.com/sagarc03/stowgate/database"
	stowhttp "github.com/sagarc03/stowgate/http"
	"github.com/sagarc03/stowgate/s3"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for stowgate.
type Config struct {
	Env      string              `mapstructure:"env" yaml:"env" validate:"oneof=dev development prod production"`
	Server   ServerConfig        `mapstructure:"server" yaml:"server"`
	Store    StoreConfig         `mapstructure:"store" yaml:"store"`
	Storage  StorageConfig       `mapstructure:"storage" yaml:"storage"`
	Database database.Config     `mapstructure:"database" yaml:"database"`
	S3       s3.Config           `mapstructure:"s3" yaml:"s3"`
	Cache    CacheConfig         `mapstructure:"cache" yaml:"cache"`
	CORS     stowhttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
	Log      LogConfig           `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"min=0"`
}

// StoreConfig selects where objects are read from.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=filesystem s3"`
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	Backend          string        `mapstructure:"backend" yaml:"backend" validate:"required,oneof=memory database none"`
	DefaultTTL       time.Duration `mapstructure:"default_ttl" yaml:"default_ttl" validate:"min=0"`
	MaxEntrySize     int64         `mapstructure:"max_entry_size" yaml:"max_entry_size" validate:"min=0"`
	MaxEntries       int           `mapstructure:"max_entries" yaml:"max_entries" validate:"min=0"`
	VaryHeaders      []string      `mapstructure:"vary_headers" yaml:"vary_headers"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"min=0"`
	MaxPendingWrites int           `mapstructure:"max_pending_writes" yaml:"max_pending_writes" validate:"min=0"`
	JanitorInterval  time.Duration `mapstructure:"janitor_interval" yaml:"janitor_interval" validate:"min=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// IsProd reports whether the production logging setup should be used.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":       "database.type",
	"db-dsn":        "database.dsn",
	"storage-path":  "storage.path",
	"store-backend": "store.backend",
	"cache-backend": "cache.backend",
	"s3-bucket":     "s3.bucket",
	"s3-endpoint":   "s3.endpoint",
	"port":          "server.port",
	"log-level":     "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 5708)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("store.backend", "filesystem")
	v.SetDefault("storage.path", "./data")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "stowgate.db")
	v.SetDefault("database.tables.meta_data", "stowgate_metadata")
	v.SetDefault("database.tables.response_cache", "stowgate_response_cache")

	v.SetDefault("s3.region", "us-east-1")

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.default_ttl", time.Hour)
	v.SetDefault("cache.max_entry_size", 8<<20)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.vary_headers", cache.DefaultVaryHeaders)
	v.SetDefault("cache.write_timeout", 30*time.Second)
	v.SetDefault("cache.max_pending_writes", 64)
	v.SetDefault("cache.janitor_interval", 5*time.Minute)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("STOWGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// check covers rules that span sections.
func (c *Config) check() error {
	if c.Store.Backend == "s3" && c.S3.Bucket == "" {
		return errors.New("s3.bucket is required when store.backend is s3")
	}
	return c.Database.Tables.Validate()
}
