package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
}

// ConvertConfig holds the frame rate conversion parameters.
type ConvertConfig struct {
	// Target output rate, "50" or "30000/1001".
	FPS string `mapstructure:"fps"`

	// Interpolation dead-zone, 0-255, scaled internally to the input
	// bit depth. Candidates whose blend ratio falls outside
	// [interp_start, interp_end] clone the nearer source frame.
	InterpStart int `mapstructure:"interp_start"`
	InterpEnd   int `mapstructure:"interp_end"`

	// Scene change gating.
	SceneThreshold    float64 `mapstructure:"scene_threshold"`
	SceneChangeDetect bool    `mapstructure:"scene_change_detect"`

	// Blend worker count; 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers"`

	// Recycled output frame buffers held per session.
	FramePoolSize int `mapstructure:"frame_pool_size"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json or text
	Output     string `mapstructure:"output"` // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// ServerConfig configures the admin HTTP server (health, stats, version).
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)

	// Environment variable override
	viper.SetEnvPrefix("CADENCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration, used when no config file
// is given on the command line.
func Default() *Config {
	setDefaults()
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

func setDefaults() {
	// Conversion defaults
	viper.SetDefault("convert.fps", "50")
	viper.SetDefault("convert.interp_start", 15)
	viper.SetDefault("convert.interp_end", 240)
	viper.SetDefault("convert.scene_threshold", 8.2)
	viper.SetDefault("convert.scene_change_detect", true)
	viper.SetDefault("convert.workers", 0)
	viper.SetDefault("convert.frame_pool_size", 8)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stderr")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age", 30)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.port", 9090)

	// Admin server defaults
	viper.SetDefault("server.enabled", false)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")
}
