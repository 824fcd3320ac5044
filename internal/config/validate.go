package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

func (c *Config) Validate() error {
	if err := c.Convert.Validate(); err != nil {
		return fmt.Errorf("convert config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	return nil
}

func (c *ConvertConfig) Validate() error {
	if c.FPS == "" {
		return fmt.Errorf("fps is required")
	}

	if c.InterpStart < 0 || c.InterpStart > 255 {
		return fmt.Errorf("interp_start must be in [0,255], got %d", c.InterpStart)
	}

	if c.InterpEnd < 0 || c.InterpEnd > 255 {
		return fmt.Errorf("interp_end must be in [0,255], got %d", c.InterpEnd)
	}

	if c.InterpStart > c.InterpEnd {
		return fmt.Errorf("interp_start %d exceeds interp_end %d", c.InterpStart, c.InterpEnd)
	}

	if c.SceneThreshold < 0 {
		return fmt.Errorf("scene_threshold must be non-negative, got %f", c.SceneThreshold)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}

	if c.FramePoolSize < 0 {
		return fmt.Errorf("frame_pool_size must be non-negative, got %d", c.FramePoolSize)
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid log level %q", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be json or text, got %q", l.Format)
	}

	if l.Output == "" {
		return fmt.Errorf("log output is required")
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}

	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", m.Port)
	}

	if m.Path == "" {
		return fmt.Errorf("metrics path is required when metrics are enabled")
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if !s.Enabled {
		return nil
	}

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}

	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	return nil
}
