// Package config handles configuration loading and management
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/skeletrack/skeletrack/pkg/codec"
	"github.com/skeletrack/skeletrack/pkg/notifier"
	"github.com/skeletrack/skeletrack/pkg/simulator"
	"github.com/skeletrack/skeletrack/pkg/utils"
)

// Engine names accepted by the engine setting
const (
	EngineSimulator = "sim"
	EngineReplay    = "replay"
	EngineNative    = "nite"
)

// FileName is the default configuration file name
const FileName = "skeletrack.yaml"

// EnvPrefix prefixes environment overrides, e.g. SKELETRACK_LOG_LEVEL
const EnvPrefix = "SKELETRACK"

// MaxUsers is the most users the simulator will place in a scene
const MaxUsers = 15

var (
	// ErrInvalidConfig wraps every validation failure
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigExists is returned by WriteDefault when the file is present
	ErrConfigExists = errors.New("configuration file already exists")
)

// Config is the complete runtime configuration
type Config struct {
	Engine        string           `mapstructure:"engine" yaml:"engine"`
	Replay        string           `mapstructure:"replay" yaml:"replay"`
	Record        string           `mapstructure:"record" yaml:"record"`
	Compression   string           `mapstructure:"compression" yaml:"compression"`
	Broadcast     string           `mapstructure:"broadcast" yaml:"broadcast"`
	Log           LogConfig        `mapstructure:"log" yaml:"log"`
	Simulator     simulator.Config `mapstructure:"simulator" yaml:"simulator"`
	Notifications notifier.Config  `mapstructure:"notifications" yaml:"notifications"`
}

// LogConfig configures diagnostics
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// CompressionTag returns the parsed compression setting
func (c *Config) CompressionTag() codec.CompressionTag {
	tag, _ := codec.ParseCompressionTag(c.Compression)
	return tag
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Engine:      DefaultEngine,
		Compression: codec.CompressionZstd.String(),
		Log: LogConfig{
			Level: "info",
		},
		Simulator: simulator.Config{
			Users: simulator.DefaultUsers,
			FPS:   simulator.DefaultFPS,
		},
		Notifications: notifier.Config{
			Enabled:     false,
			MinInterval: notifier.DefaultMinInterval,
		},
	}
}

// SetDefaults registers the built-in values with v so that environment
// variables and flags override them key by key.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("engine", d.Engine)
	v.SetDefault("replay", d.Replay)
	v.SetDefault("record", d.Record)
	v.SetDefault("compression", d.Compression)
	v.SetDefault("broadcast", d.Broadcast)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("simulator.users", d.Simulator.Users)
	v.SetDefault("simulator.fps", d.Simulator.FPS)
	v.SetDefault("simulator.seed", d.Simulator.Seed)
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.sound", d.Notifications.Sound)
	v.SetDefault("notifications.min_interval", d.Notifications.MinInterval)
}

// NewViper returns a viper instance with defaults and environment overrides
// configured.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Manager handles configuration operations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// Load decodes and validates the configuration held by v
func (m *Manager) Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := m.ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads configuration from a file, applying defaults and
// environment overrides.
func (m *Manager) LoadConfig(path string) (*Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return m.Load(v)
}

// ValidateConfig validates a configuration
func (m *Manager) ValidateConfig(cfg *Config) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch cfg.Engine {
	case EngineSimulator, EngineNative:
	case EngineReplay:
		if cfg.Replay == "" {
			return invalid("engine %q needs a replay file", cfg.Engine)
		}
	default:
		return invalid("unknown engine %q", cfg.Engine)
	}

	if _, err := codec.ParseCompressionTag(cfg.Compression); err != nil {
		return invalid("%v", err)
	}

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return invalid("log level: %v", err)
	}

	if cfg.Broadcast != "" {
		if _, _, err := net.SplitHostPort(cfg.Broadcast); err != nil {
			return invalid("broadcast address: %v", err)
		}
	}

	if cfg.Simulator.Users < 1 || cfg.Simulator.Users > MaxUsers {
		return invalid("simulator users must be between 1 and %d", MaxUsers)
	}
	if cfg.Simulator.FPS < 1 || cfg.Simulator.FPS > 120 {
		return invalid("simulator fps must be between 1 and 120")
	}

	if cfg.Notifications.MinInterval < 0 {
		return invalid("notification interval must not be negative")
	}

	if cfg.Record != "" && cfg.Record == cfg.Replay {
		return invalid("cannot record over the file being replayed")
	}

	return nil
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func (m *Manager) WriteDefault(path string, force bool) error {
	if !force && utils.FileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := utils.EnsureParentDirectory(path); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	header := "# skeletrack configuration\n# Every key can be overridden with " + EnvPrefix + "_<KEY>, e.g. " + EnvPrefix + "_LOG_LEVEL=debug\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
