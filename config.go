package authkit

import (
	"errors"
	"strings"
	"time"
)

// Config is the full engine configuration tree. Populate it before
// [Builder.Build]; the engine works on a private deep copy, so later
// mutation by the caller has no effect.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Cache    CacheConfig
	Limits   LimitsConfig
	Mail     MailConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig governs signing and lifetimes for all four token scopes.
// Secret is the only field without a usable default.
type TokenConfig struct {
	Secret        []byte
	SigningMethod string // "hs256" (default), "hs384", "hs512"
	Issuer        string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
	EmailTokenTTL time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the argon2id cost parameters and the local policy.
// With UpgradeOnLogin set, digests hashed under weaker parameters are
// transparently rehashed after a successful login.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Iterations       uint32
	Parallelism      uint32
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int // 0 applies the hasher default
	MinLength        int
	UpgradeOnLogin   bool
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheConfig governs the Redis email-to-identity cache on the authorize
// path. TTL is fixed from insertion; reads never extend it.
type CacheConfig struct {
	Enabled bool
	Prefix  string
	TTL     time.Duration
}

/*
====================================
LIMITS CONFIG
====================================
*/

// LimitsConfig gates the Redis fixed-window throttles. All three are off
// by default; the IP throttle piggybacks on the login throttle and cannot
// be enabled alone.
type LimitsConfig struct {
	EnableLoginThrottle bool
	EnableIPThrottle    bool
	EnableResetThrottle bool
	MaxLoginAttempts    int
	LoginWindow         time.Duration
	MaxResetRequests    int
	ResetWindow         time.Duration
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig sizes the async mail dispatcher. With DropIfFull, sends are
// discarded (and counted) instead of blocking the flow.
type MailConfig struct {
	BufferSize int
	DropIfFull bool
}

// AuditConfig sizes the async audit dispatcher, same drop policy as mail.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters and the authorize-latency
// histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds the posture switches. ProductionMode turns several
// lint findings into hard [Config.Validate] failures.
type SecurityConfig struct {
	ProductionMode        bool
	RequireConfirmedEmail bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the development baseline: cache enabled, throttles
// and audit off, ProductionMode off. It carries no Token.Secret; set one
// before building.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: "hs256",
			Issuer:        "authkit",
			Leeway:        0,
			MaxFutureIAT:  10 * time.Minute,
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    30 * time.Minute,
			ResetTTL:      5 * time.Minute,
			EmailTokenTTL: 60 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:           65536,
			Iterations:       3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MaxPasswordBytes: 0,
			MinLength:        5,
			UpgradeOnLogin:   true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Prefix:  "aid",
			TTL:     60 * time.Second,
		},
		Limits: LimitsConfig{
			EnableLoginThrottle: false,
			EnableIPThrottle:    false,
			EnableResetThrottle: false,
			MaxLoginAttempts:    5,
			LoginWindow:         15 * time.Minute,
			MaxResetRequests:    3,
			ResetWindow:         1 * time.Hour,
		},
		Mail: MailConfig{
			BufferSize: 64,
			DropIfFull: true,
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
		Security: SecurityConfig{
			ProductionMode:        false,
			RequireConfirmedEmail: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects unusable configurations with a section-prefixed error.
// ProductionMode adds the hardening floor on top of the base checks.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) == 0 {
		return errors.New("Token Secret is required")
	}
	switch c.Token.SigningMethod {
	case "", "hs256", "hs384", "hs512":
		// valid (empty treated as hs256)
	default:
		return errors.New("unsupported Token signing method")
	}
	if strings.TrimSpace(c.Token.Issuer) == "" {
		return errors.New("Token Issuer must not be blank")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}
	if c.Token.MaxFutureIAT < 0 {
		return errors.New("Token MaxFutureIAT must be >= 0")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.ResetTTL <= 0 {
		return errors.New("Token ResetTTL must be > 0")
	}
	if c.Token.EmailTokenTTL <= 0 {
		return errors.New("Token EmailTokenTTL must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Iterations < 1 {
		return errors.New("Password Iterations must be >= 1")
	}
	if c.Password.Parallelism < 1 || c.Password.Parallelism > 255 {
		return errors.New("Password Parallelism must be between 1 and 255")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// Cache
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return errors.New("Cache TTL must be > 0 when cache is enabled")
	}

	// Limits
	if c.Limits.EnableLoginThrottle {
		if c.Limits.MaxLoginAttempts <= 0 {
			return errors.New("Limits MaxLoginAttempts must be > 0 when login throttle is enabled")
		}
		if c.Limits.LoginWindow <= 0 {
			return errors.New("Limits LoginWindow must be > 0 when login throttle is enabled")
		}
	}
	if c.Limits.EnableIPThrottle && !c.Limits.EnableLoginThrottle {
		return errors.New("Limits EnableIPThrottle requires EnableLoginThrottle")
	}
	if c.Limits.EnableResetThrottle {
		if c.Limits.MaxResetRequests <= 0 {
			return errors.New("Limits MaxResetRequests must be > 0 when reset throttle is enabled")
		}
		if c.Limits.ResetWindow <= 0 {
			return errors.New("Limits ResetWindow must be > 0 when reset throttle is enabled")
		}
	}

	// Mail
	if c.Mail.BufferSize <= 0 {
		return errors.New("Mail BufferSize must be > 0")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	// Production hardening
	if c.Security.ProductionMode {
		if len(c.Token.Secret) < 32 {
			return errors.New("ProductionMode requires signing secret length >= 256 bits")
		}
		if c.Token.AccessTTL > time.Hour {
			return errors.New("ProductionMode requires Token AccessTTL <= 1h")
		}
		if c.Token.RefreshTTL > 30*24*time.Hour {
			return errors.New("ProductionMode requires Token RefreshTTL <= 30d")
		}
		if c.Password.Memory < 64*1024 {
			return errors.New("ProductionMode requires Password Memory >= 65536 KB")
		}
		if c.Password.Iterations < 2 {
			return errors.New("ProductionMode requires Password Iterations >= 2")
		}
		if c.Password.KeyLength < 32 {
			return errors.New("ProductionMode requires Password KeyLength >= 32")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("ProductionMode requires Password SaltLength >= 16")
		}
		if !c.Limits.EnableLoginThrottle {
			return errors.New("ProductionMode requires login throttle")
		}
		if !c.Limits.EnableResetThrottle {
			return errors.New("ProductionMode requires reset throttle")
		}
		if !c.Security.RequireConfirmedEmail {
			return errors.New("ProductionMode requires RequireConfirmedEmail")
		}
	}

	return nil
}
