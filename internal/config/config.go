package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Receiver   ReceiverConfig   `mapstructure:"receiver"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

// ReceiverConfig configures the UDP ingestion core. Interval values are
// duration strings ("100ms", "30s") parsed with ParseDuration helpers.
type ReceiverConfig struct {
	UDPPort         int    `mapstructure:"udp_port"`
	BroadcasterName string `mapstructure:"broadcaster_name"`
	BufferSize      int    `mapstructure:"buffer_size"`
	PollInterval    string `mapstructure:"poll_interval"`
	SweepInterval   string `mapstructure:"sweep_interval"`
	StaleAfter      string `mapstructure:"stale_after"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DiscoveryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Instance string `mapstructure:"instance"`
}

type MonitoringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// PollIntervalDuration returns the parsed poll interval, falling back to the
// default when the config value does not parse.
func (r ReceiverConfig) PollIntervalDuration() time.Duration {
	return parseDuration(r.PollInterval, 100*time.Millisecond)
}

// SweepIntervalDuration returns the parsed sweep interval.
func (r ReceiverConfig) SweepIntervalDuration() time.Duration {
	return parseDuration(r.SweepInterval, 30*time.Second)
}

// StaleAfterDuration returns the parsed staleness threshold.
func (r ReceiverConfig) StaleAfterDuration() time.Duration {
	return parseDuration(r.StaleAfter, 10*time.Minute)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("receiver.udp_port", "RECEIVER_UDP_PORT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults apply
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the parts of the config that would otherwise fail at
// runtime. The UDP port range matches what the original receiver accepts.
func (c *Config) Validate() error {
	if c.Receiver.UDPPort < 1024 || c.Receiver.UDPPort > 65535 {
		return fmt.Errorf("receiver.udp_port must be between 1024 and 65535, got %d", c.Receiver.UDPPort)
	}
	if c.Receiver.BufferSize <= 0 {
		return fmt.Errorf("receiver.buffer_size must be positive, got %d", c.Receiver.BufferSize)
	}
	return nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "development")

	// Receiver defaults
	viper.SetDefault("receiver.udp_port", 8888)
	viper.SetDefault("receiver.broadcaster_name", "Remote Home Assistant")
	viper.SetDefault("receiver.buffer_size", 4096)
	viper.SetDefault("receiver.poll_interval", "100ms")
	viper.SetDefault("receiver.sweep_interval", "30s")
	viper.SetDefault("receiver.stale_after", "10m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// Discovery defaults
	viper.SetDefault("discovery.enabled", true)
	viper.SetDefault("discovery.instance", "Entity Receiver")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.path", "/metrics")
}
