package authkit

import (
	"errors"

	"github.com/Unfeir/authkit/internal/audit"
	"github.com/Unfeir/authkit/internal/rate"
	"github.com/Unfeir/authkit/jwt"
	"github.com/Unfeir/authkit/password"
	"github.com/Unfeir/authkit/sessioncache"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine] from a config and its dependencies. Only
// the credential store and a signing secret are mandatory; Redis is
// required once the cache or a throttle is enabled. A Builder is not safe
// for concurrent use and refuses a second Build.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     CredentialStore
	mailer    Mailer
	auditSink AuditSink

	built bool
}

// New starts a [Builder] seeded with the library defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the defaults wholesale. The config is deep-copied;
// later mutation of cfg by the caller does not reach the engine.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the shared client used by the session cache and the
// throttles. Any [redis.UniversalClient] works: single node, cluster, or
// sentinel failover.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore supplies the identity backend. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithMailer supplies the mail transport. Without one, flows that send
// mail still succeed; the sends are counted as dropped.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithAuditSink supplies the destination for audit events. Ignored unless
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles Metrics.Enabled on the pending config.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the authorize-latency histogram on the
// pending config.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the config, wires the subsystems, and returns the
// engine. The caller owns the result and must Close it to drain the
// dispatchers.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		if cfg.Cache.Enabled {
			return nil, errors.New("Cache requires redis client")
		}
		if cfg.Limits.EnableLoginThrottle || cfg.Limits.EnableResetThrottle {
			return nil, errors.New("Limits requires redis client")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	engine := &Engine{
		config: cloneConfig(cfg),
		store:  b.store,
	}

	if b.redis != nil && cfg.Cache.Enabled {
		engine.cache = sessioncache.NewStore(b.redis, cfg.Cache.Prefix, cfg.Cache.TTL)
	}
	if b.redis != nil {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableLoginThrottle: cfg.Limits.EnableLoginThrottle,
			EnableIPThrottle:    cfg.Limits.EnableIPThrottle,
			EnableResetThrottle: cfg.Limits.EnableResetThrottle,
			MaxLoginAttempts:    cfg.Limits.MaxLoginAttempts,
			LoginWindow:         cfg.Limits.LoginWindow,
			MaxResetRequests:    cfg.Limits.MaxResetRequests,
			ResetWindow:         cfg.Limits.ResetWindow,
		})
	}

	engine.metrics = NewMetrics(cfg.Metrics)
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.mail = newMailDispatcher(b.mailer, cfg.Mail, engine.metrics)

	hasher, err := password.NewHasher(password.Config{
		Memory:           cfg.Password.Memory,
		Iterations:       cfg.Password.Iterations,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher

	tm, err := jwt.NewManager(jwt.Config{
		Secret:        cloneBytes(cfg.Token.Secret),
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		RequireIAT:    true,
		MaxFutureIAT:  cfg.Token.MaxFutureIAT,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = tm

	b.built = true

	return engine, nil
}
