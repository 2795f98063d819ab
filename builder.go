package goParse

import (
	"errors"

	"github.com/MrEthical07/goParse/encoder"
	"github.com/MrEthical07/goParse/internal/audit"
	"github.com/MrEthical07/goParse/internal/rate"
	"github.com/MrEthical07/goParse/rest"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles a [Client]. A Builder is single-use.
type Builder struct {
	config    Config
	logger    *zap.Logger
	redis     redis.UniversalClient
	auditSink AuditSink
	transport rest.Transport
	encoder   encoder.Encoder

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the logger for the executor and client. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRedis supplies the client used by the log-in and reset throttle.
// Required when RateLimit.Enabled is set.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithTransport replaces the default *http.Client.
func (b *Builder) WithTransport(t rest.Transport) *Builder {
	b.transport = t
	return b
}

// WithEncoder replaces the pointer encoder used for service log-in auth data.
func (b *Builder) WithEncoder(enc encoder.Encoder) *Builder {
	b.encoder = enc
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("RateLimit requires redis client")
	}
	if cfg.Server.InstallationID == "" {
		cfg.Server.InstallationID = uuid.NewString()
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &Client{
		config:  cfg,
		logger:  logger,
		encoder: b.encoder,
		metrics: NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	if cfg.RateLimit.Enabled {
		client.limiter = rate.New(b.redis, rate.Config{
			MaxLogInFailures:      cfg.RateLimit.MaxLogInFailures,
			LogInCooldown:         cfg.RateLimit.LogInCooldown,
			MaxPasswordResets:     cfg.RateLimit.MaxPasswordResets,
			PasswordResetCooldown: cfg.RateLimit.PasswordResetCooldown,
		})
	}

	exec, err := rest.NewExecutor(b.transport, rest.Options{
		ServerURL:         cfg.Server.URL,
		ApplicationID:     cfg.Server.ApplicationID,
		ClientKey:         cfg.Server.ClientKey,
		MasterKey:         cfg.Server.MasterKey,
		ClientVersion:     cfg.Server.ClientVersion,
		InstallationID:    cfg.Server.InstallationID,
		AppBuildVersion:   cfg.Server.AppBuildVersion,
		AppDisplayVersion: cfg.Server.AppDisplayVersion,
		UserAgent:         cfg.Server.UserAgent,
		MethodOverride:    cfg.Transport.MethodOverride,
		MaxRetries:        cfg.Transport.MaxRetries,
		RetryBaseDelay:    cfg.Transport.RetryBaseDelay,
		RetryMaxDelay:     cfg.Transport.RetryMaxDelay,
		RequestTimeout:    cfg.Transport.RequestTimeout,
		Logger:            logger.Named("rest"),
		OnRetry: func(int, error) {
			client.metrics.Inc(MetricRetry)
		},
	})
	if err != nil {
		client.audit.Close()
		return nil, err
	}
	client.executor = exec

	b.built = true

	return client, nil
}
