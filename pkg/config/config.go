// Package config holds the firmware runtime configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "200ms" or "1s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"200ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the peripheral configuration.
type Config struct {
	// Bluetooth configuration
	AdapterID  string `yaml:"adapter_id"`
	DeviceName string `yaml:"device_name"`

	// Sampling configuration
	TickInterval Duration `yaml:"tick_interval"`

	// Simulated sensor configuration
	SensorNoise float64 `yaml:"sensor_noise"`

	// Control API configuration
	APIAddr string `yaml:"api_addr"`

	// Logging configuration
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file or flags override it.
func Default() *Config {
	return &Config{
		AdapterID:    "hci0",
		DeviceName:   "ScaleLink",
		TickInterval: Duration(200 * time.Millisecond),
		SensorNoise:  0.5,
		APIAddr:      ":8080",
		LogLevel:     "debug",
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration invariants the rest of the firmware
// relies on.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("device_name must not be empty")
	}
	// The tick period is a tunable, but it still has to be short enough to
	// feel live and long enough not to saturate the link.
	if c.TickInterval.Std() < 10*time.Millisecond {
		return fmt.Errorf("tick_interval %v is too short (minimum 10ms)", c.TickInterval.Std())
	}
	if c.TickInterval.Std() > 5*time.Second {
		return fmt.Errorf("tick_interval %v is too long (maximum 5s)", c.TickInterval.Std())
	}
	if c.SensorNoise < 0 {
		return fmt.Errorf("sensor_noise must not be negative")
	}
	if c.APIAddr == "" {
		return fmt.Errorf("api_addr must not be empty")
	}
	return nil
}
