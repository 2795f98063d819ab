package goParse

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
)

// Config is the full client configuration. Build a starting point with
// [DefaultConfig] or [LoadConfigFromEnv].
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Transport TransportConfig `koanf:"transport"`
	Session   SessionConfig   `koanf:"session"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Audit     AuditConfig     `koanf:"audit"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

/*
====================================
SERVER CONFIG
====================================
*/

// ServerConfig identifies the backend and this application to it.
type ServerConfig struct {
	URL               string `koanf:"url" env:"GOPARSE_SERVER_URL"`
	ApplicationID     string `koanf:"application_id" env:"GOPARSE_APPLICATION_ID"`
	ClientKey         string `koanf:"client_key" env:"GOPARSE_CLIENT_KEY"`
	MasterKey         string `koanf:"master_key" env:"GOPARSE_MASTER_KEY"`
	ClientVersion     string `koanf:"client_version" env:"GOPARSE_CLIENT_VERSION"`
	InstallationID    string `koanf:"installation_id" env:"GOPARSE_INSTALLATION_ID"` // generated when empty
	AppBuildVersion   string `koanf:"app_build_version" env:"GOPARSE_APP_BUILD_VERSION"`
	AppDisplayVersion string `koanf:"app_display_version" env:"GOPARSE_APP_DISPLAY_VERSION"`
	UserAgent         string `koanf:"user_agent" env:"GOPARSE_USER_AGENT"`
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig tunes timeouts and retries of the HTTP executor.
type TransportConfig struct {
	RequestTimeout time.Duration `koanf:"request_timeout" env:"GOPARSE_REQUEST_TIMEOUT"`
	MaxRetries     int           `koanf:"max_retries" env:"GOPARSE_MAX_RETRIES"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay" env:"GOPARSE_RETRY_BASE_DELAY"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay" env:"GOPARSE_RETRY_MAX_DELAY"`
	MethodOverride bool          `koanf:"method_override" env:"GOPARSE_METHOD_OVERRIDE"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig selects the session model requested from the backend.
type SessionConfig struct {
	// RevocableSession sends X-Parse-Revocable-Session: 1 on sign-up and
	// log-in commands. Off unless the caller opts in.
	RevocableSession bool `koanf:"revocable_session" env:"GOPARSE_REVOCABLE_SESSION"`
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig controls the Redis-backed client-side throttle.
type RateLimitConfig struct {
	Enabled               bool          `koanf:"enabled" env:"GOPARSE_RATE_LIMIT_ENABLED"`
	MaxLogInFailures      int           `koanf:"max_log_in_failures" env:"GOPARSE_RATE_LIMIT_MAX_LOG_IN_FAILURES"`
	LogInCooldown         time.Duration `koanf:"log_in_cooldown" env:"GOPARSE_RATE_LIMIT_LOG_IN_COOLDOWN"`
	MaxPasswordResets     int           `koanf:"max_password_resets" env:"GOPARSE_RATE_LIMIT_MAX_PASSWORD_RESETS"`
	PasswordResetCooldown time.Duration `koanf:"password_reset_cooldown" env:"GOPARSE_RATE_LIMIT_PASSWORD_RESET_COOLDOWN"`
	RedisAddr             string        `koanf:"redis_addr" env:"GOPARSE_REDIS_ADDR"` // used by the CLI only
}

/*
====================================
AUDIT / METRICS / LOGGING
====================================
*/

// AuditConfig controls command audit dispatch.
type AuditConfig struct {
	Enabled    bool `koanf:"enabled" env:"GOPARSE_AUDIT_ENABLED"`
	BufferSize int  `koanf:"buffer_size" env:"GOPARSE_AUDIT_BUFFER_SIZE"`
	DropIfFull bool `koanf:"drop_if_full" env:"GOPARSE_AUDIT_DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled" env:"GOPARSE_METRICS_ENABLED"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms" env:"GOPARSE_METRICS_LATENCY"`
}

// LoggingConfig is consumed by logger construction in the CLI.
type LoggingConfig struct {
	Level    string `koanf:"level" env:"GOPARSE_LOG_LEVEL"`
	Encoding string `koanf:"encoding" env:"GOPARSE_LOG_ENCODING"` // "console" or "json"
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the defaults applied by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			ClientVersion: "go" + Version,
			UserAgent:     "goParse/" + Version,
		},
		Transport: TransportConfig{
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: 500 * time.Millisecond,
			RetryMaxDelay:  10 * time.Second,
			MethodOverride: false,
		},
		Session: SessionConfig{
			RevocableSession: false,
		},
		RateLimit: RateLimitConfig{
			Enabled:               false,
			MaxLogInFailures:      5,
			LogInCooldown:         15 * time.Minute,
			MaxPasswordResets:     3,
			PasswordResetCooldown: time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// LoadConfigFromEnv starts from the defaults and overrides every field whose
// GOPARSE_* variable is set.
func LoadConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	// Server
	if c.Server.URL == "" {
		return errors.New("Server URL is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Server URL must be an absolute http(s) URL")
	}
	if c.Server.ApplicationID == "" {
		return errors.New("Server ApplicationID is required")
	}

	// Transport
	if c.Transport.RequestTimeout < 0 {
		return errors.New("Transport RequestTimeout must be >= 0")
	}
	if c.Transport.MaxRetries < 0 {
		return errors.New("Transport MaxRetries must be >= 0")
	}
	if c.Transport.MaxRetries > 0 && c.Transport.RetryBaseDelay <= 0 {
		return errors.New("Transport RetryBaseDelay must be > 0 when retries are enabled")
	}
	if c.Transport.RetryMaxDelay > 0 && c.Transport.RetryMaxDelay < c.Transport.RetryBaseDelay {
		return errors.New("Transport RetryMaxDelay must be >= RetryBaseDelay")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLogInFailures <= 0 && c.RateLimit.MaxPasswordResets <= 0 {
			return errors.New("RateLimit enabled but no budget is set")
		}
		if c.RateLimit.MaxLogInFailures > 0 && c.RateLimit.LogInCooldown <= 0 {
			return errors.New("RateLimit LogInCooldown must be > 0")
		}
		if c.RateLimit.MaxPasswordResets > 0 && c.RateLimit.PasswordResetCooldown <= 0 {
			return errors.New("RateLimit PasswordResetCooldown must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Logging
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("Logging Level: %w", err)
	}
	if c.Logging.Encoding != "console" && c.Logging.Encoding != "json" {
		return errors.New("Logging Encoding must be console or json")
	}

	return nil
}
