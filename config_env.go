package authkit

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envOverrides mirrors the subset of [Config] that is tunable from the
// environment. Pointer fields stay nil when the variable is unset so defaults
// survive untouched.
type envOverrides struct {
	Secret        *string        `env:"AUTHKIT_SECRET"`
	Issuer        *string        `env:"AUTHKIT_ISSUER"`
	SigningMethod *string        `env:"AUTHKIT_SIGNING_METHOD"`
	AccessTTL     *time.Duration `env:"AUTHKIT_ACCESS_TTL"`
	RefreshTTL    *time.Duration `env:"AUTHKIT_REFRESH_TTL"`
	ResetTTL      *time.Duration `env:"AUTHKIT_RESET_TTL"`
	EmailTokenTTL *time.Duration `env:"AUTHKIT_EMAIL_TOKEN_TTL"`

	MinPasswordLength *int  `env:"AUTHKIT_MIN_PASSWORD_LENGTH"`
	UpgradeOnLogin    *bool `env:"AUTHKIT_UPGRADE_ON_LOGIN"`

	CacheEnabled *bool          `env:"AUTHKIT_CACHE_ENABLED"`
	CachePrefix  *string        `env:"AUTHKIT_CACHE_PREFIX"`
	CacheTTL     *time.Duration `env:"AUTHKIT_CACHE_TTL"`

	LoginThrottle *bool `env:"AUTHKIT_LOGIN_THROTTLE"`
	IPThrottle    *bool `env:"AUTHKIT_IP_THROTTLE"`
	ResetThrottle *bool `env:"AUTHKIT_RESET_THROTTLE"`

	AuditEnabled      *bool `env:"AUTHKIT_AUDIT_ENABLED"`
	MetricsEnabled    *bool `env:"AUTHKIT_METRICS_ENABLED"`
	LatencyHistograms *bool `env:"AUTHKIT_METRICS_LATENCY"`

	ProductionMode        *bool `env:"AUTHKIT_PRODUCTION"`
	RequireConfirmedEmail *bool `env:"AUTHKIT_REQUIRE_CONFIRMED_EMAIL"`
}

// ConfigFromEnv layers AUTHKIT_* environment variables over the defaults and
// returns the result. It does not call [Config.Validate]; Build does that.
func ConfigFromEnv() (Config, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return Config{}, fmt.Errorf("authkit: parse environment: %w", err)
	}

	cfg := defaultConfig()

	if o.Secret != nil {
		cfg.Token.Secret = []byte(*o.Secret)
	}
	if o.Issuer != nil {
		cfg.Token.Issuer = *o.Issuer
	}
	if o.SigningMethod != nil {
		cfg.Token.SigningMethod = *o.SigningMethod
	}
	if o.AccessTTL != nil {
		cfg.Token.AccessTTL = *o.AccessTTL
	}
	if o.RefreshTTL != nil {
		cfg.Token.RefreshTTL = *o.RefreshTTL
	}
	if o.ResetTTL != nil {
		cfg.Token.ResetTTL = *o.ResetTTL
	}
	if o.EmailTokenTTL != nil {
		cfg.Token.EmailTokenTTL = *o.EmailTokenTTL
	}
	if o.MinPasswordLength != nil {
		cfg.Password.MinLength = *o.MinPasswordLength
	}
	if o.UpgradeOnLogin != nil {
		cfg.Password.UpgradeOnLogin = *o.UpgradeOnLogin
	}
	if o.CacheEnabled != nil {
		cfg.Cache.Enabled = *o.CacheEnabled
	}
	if o.CachePrefix != nil {
		cfg.Cache.Prefix = *o.CachePrefix
	}
	if o.CacheTTL != nil {
		cfg.Cache.TTL = *o.CacheTTL
	}
	if o.LoginThrottle != nil {
		cfg.Limits.EnableLoginThrottle = *o.LoginThrottle
	}
	if o.IPThrottle != nil {
		cfg.Limits.EnableIPThrottle = *o.IPThrottle
	}
	if o.ResetThrottle != nil {
		cfg.Limits.EnableResetThrottle = *o.ResetThrottle
	}
	if o.AuditEnabled != nil {
		cfg.Audit.Enabled = *o.AuditEnabled
	}
	if o.MetricsEnabled != nil {
		cfg.Metrics.Enabled = *o.MetricsEnabled
	}
	if o.LatencyHistograms != nil {
		cfg.Metrics.EnableLatencyHistograms = *o.LatencyHistograms
	}
	if o.ProductionMode != nil {
		cfg.Security.ProductionMode = *o.ProductionMode
	}
	if o.RequireConfirmedEmail != nil {
		cfg.Security.RequireConfirmedEmail = *o.RequireConfirmedEmail
	}

	return cfg, nil
}
