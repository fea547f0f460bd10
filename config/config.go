// Package config loads the server configuration from environment
// variables and validates it with actionable error messages.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ilyakaznacheev/cleanenv"
)

// Seconds is a duration configured as a plain number of seconds
// (CACHE_TIMEOUT=300); Go duration strings (CACHE_TIMEOUT=5m) are
// accepted too.
type Seconds time.Duration

// SetValue implements cleanenv.Setter.
func (s *Seconds) SetValue(v string) error {
	if n, err := strconv.Atoi(v); err == nil {
		*s = Seconds(time.Duration(n) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return errors.Errorf("invalid duration %q: use plain seconds or a Go duration like 5m", v)
	}
	*s = Seconds(d)
	return nil
}

func (s Seconds) Duration() time.Duration { return time.Duration(s) }

// Config aggregates all server configuration. Values come from the
// environment; every optional knob carries a sane default.
type Config struct {
	// OpenProjectURL is the base URL of the OpenProject instance,
	// e.g. https://openproject.example.com
	OpenProjectURL string `env:"OPENPROJECT_URL"`
	// OpenProjectAPIKey is the API token from
	// My Account -> Access Tokens. Sent as Basic auth "apikey:<key>".
	OpenProjectAPIKey string `env:"OPENPROJECT_API_KEY"`
	// OpenProjectHost optionally overrides the Host header, for
	// instances behind a reverse proxy that routes on Host.
	OpenProjectHost string `env:"OPENPROJECT_HOST"`

	LogLevel string `env:"MCP_LOG_LEVEL" env-default:"INFO"`

	// CacheTimeout bounds how long catalog lookups (types, statuses,
	// priorities, activities) are served from cache.
	CacheTimeout   Seconds `env:"CACHE_TIMEOUT" env-default:"300"`
	HTTPTimeout    Seconds `env:"HTTP_TIMEOUT" env-default:"30"`
	PaginationSize int     `env:"PAGINATION_SIZE" env-default:"100"`
	MaxRetries     int     `env:"MAX_RETRIES" env-default:"3"`
}

var validLogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// xlog levels are case-sensitive
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	return cfg, nil
}

// Validate checks the configuration and returns errors that tell the
// operator how to fix their environment, not just what is wrong.
func (c *Config) Validate() error {
	if c.OpenProjectURL == "" {
		return errors.New("OPENPROJECT_URL is not set; " +
			"set it to your OpenProject base URL, e.g. OPENPROJECT_URL=http://localhost:8080")
	}
	if !strings.HasPrefix(c.OpenProjectURL, "http://") && !strings.HasPrefix(c.OpenProjectURL, "https://") {
		return errors.Errorf("invalid OPENPROJECT_URL %q: must start with http:// or https://", c.OpenProjectURL)
	}
	if c.OpenProjectAPIKey == "" {
		return errors.New("OPENPROJECT_API_KEY is not set; " +
			"create a token in OpenProject under My Account -> Access Tokens and export it")
	}
	if len(c.OpenProjectAPIKey) < 20 {
		return errors.New("OPENPROJECT_API_KEY appears too short; " +
			"OpenProject API keys are typically 40+ characters, verify the token under My Account -> Access Tokens")
	}

	level := strings.ToUpper(c.LogLevel)
	valid := false
	for _, l := range validLogLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		return errors.Errorf("invalid MCP_LOG_LEVEL %q: valid levels are %s",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.CacheTimeout.Duration() < time.Minute {
		return errors.Errorf("invalid CACHE_TIMEOUT %s: must be at least 60 seconds", c.CacheTimeout.Duration())
	}
	if c.PaginationSize < 10 || c.PaginationSize > 1000 {
		return errors.Errorf("invalid PAGINATION_SIZE %d: must be between 10 and 1000", c.PaginationSize)
	}
	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return errors.Errorf("invalid MAX_RETRIES %d: must be between 1 and 10", c.MaxRetries)
	}
	return nil
}
