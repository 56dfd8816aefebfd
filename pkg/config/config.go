package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration values
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Client   ClientConfig   `mapstructure:"client"`
	Form     FormConfig     `mapstructure:"form"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig controls the relay HTTP server
type ServerConfig struct {
	Port      int   `mapstructure:"port"`
	BodyLimit int64 `mapstructure:"body_limit"`
}

// UpstreamConfig points the relay at the spreadsheet script endpoints
type UpstreamConfig struct {
	RosterURL string        `mapstructure:"roster_url"`
	SubmitURL string        `mapstructure:"submit_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ClientConfig is used by the terminal form to reach the relay
type ClientConfig struct {
	RelayURL string        `mapstructure:"relay_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// FormConfig selects the form deployment and its email rule
type FormConfig struct {
	Variant     string `mapstructure:"variant"`
	EmailDomain string `mapstructure:"email_domain"`
	EmailRule   string `mapstructure:"email_rule"`
}

// LogConfig selects the zap encoder and level
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from an optional file and the environment.
// Precedence: environment > config file > defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 4000)
	v.SetDefault("server.body_limit", 1<<20)

	v.SetDefault("upstream.roster_url", "")
	v.SetDefault("upstream.submit_url", "")
	v.SetDefault("upstream.timeout", "30s")

	v.SetDefault("client.relay_url", "http://localhost:4000")
	// outlasts upstream.timeout so the relay's timeout answer reaches the client
	v.SetDefault("client.timeout", "35s")

	v.SetDefault("form.variant", "schedule")
	v.SetDefault("form.email_domain", "onja.org")
	v.SetDefault("form.email_rule", "all")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCHEDULER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Hosting platforms hand the listen port over as a bare PORT.
	if err := v.BindEnv("server.port", "SCHEDULER_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("error binding port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings every command depends on
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("invalid config: upstream.timeout must be positive")
	}
	if c.Client.Timeout <= c.Upstream.Timeout {
		return fmt.Errorf("invalid config: client.timeout (%s) must be longer than upstream.timeout (%s)", c.Client.Timeout, c.Upstream.Timeout)
	}
	switch c.Form.Variant {
	case "schedule", "feedback":
	default:
		return fmt.Errorf("invalid config: form.variant %q is not one of schedule, feedback", c.Form.Variant)
	}
	switch c.Form.EmailRule {
	case "all", "any":
	default:
		return fmt.Errorf("invalid config: form.email_rule %q is not one of all, any", c.Form.EmailRule)
	}
	return nil
}

// ValidateRelay checks the settings the relay server needs
func (c *Config) ValidateRelay() error {
	if c.Upstream.RosterURL == "" {
		return fmt.Errorf("invalid config: upstream.roster_url is required")
	}
	if c.Upstream.SubmitURL == "" {
		return fmt.Errorf("invalid config: upstream.submit_url is required")
	}
	return nil
}

// ValidateClient checks the settings the terminal form needs
func (c *Config) ValidateClient() error {
	if c.Client.RelayURL == "" {
		return fmt.Errorf("invalid config: client.relay_url is required")
	}
	return nil
}
