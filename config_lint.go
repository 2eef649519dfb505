package authkit

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks configuration warnings from informational to high risk.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintHigh:
		return "HIGH"
	case LintWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

// LintWarning flags a legal but risky configuration choice. Unlike
// [Config.Validate] failures, lint findings never block Build.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in emission order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError converts the warnings at or above min into a single error, or nil
// when none qualify. Useful for deployments that treat HIGH findings as fatal.
func (ws LintWarnings) AsError(min LintSeverity) error {
	flagged := ws.BySeverity(min)
	if len(flagged) == 0 {
		return nil
	}
	return fmt.Errorf("config lint: %s", strings.Join(flagged.Codes(), ", "))
}

// Lint inspects the configuration for legal but risky settings. It reports,
// it never rejects; hard limits live in [Config.Validate].
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if n := len(c.Token.Secret); n > 0 && n < 32 {
		add("secret_short", LintHigh, "signing secret is shorter than 256 bits")
	}
	if c.Token.Leeway > time.Minute {
		add("leeway_large", LintWarn, fmt.Sprintf("token leeway %s widens the expiry window", c.Token.Leeway))
	}
	if c.Token.AccessTTL > time.Hour {
		add("access_ttl_long", LintWarn, fmt.Sprintf("access tokens live %s; they cannot be revoked before expiry", c.Token.AccessTTL))
	}
	if c.Token.RefreshTTL > 7*24*time.Hour {
		add("refresh_ttl_long", LintWarn, fmt.Sprintf("refresh tokens live %s", c.Token.RefreshTTL))
	}
	if c.Token.ResetTTL > 15*time.Minute {
		add("reset_ttl_long", LintWarn, fmt.Sprintf("password reset tokens live %s", c.Token.ResetTTL))
	}
	if c.Cache.Enabled && c.Cache.TTL > 5*time.Minute {
		add("cache_ttl_long", LintWarn, fmt.Sprintf("identity cache entries live %s and are never invalidated before expiry", c.Cache.TTL))
	}
	if !c.Limits.EnableLoginThrottle && !c.Limits.EnableResetThrottle {
		add("rate_limits_disabled", LintWarn, "no login or reset throttle is enabled")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit trail is disabled")
	}
	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, fmt.Sprintf("argon2 memory %d KB is below 65536 KB", c.Password.Memory))
	}
	if !c.Security.RequireConfirmedEmail {
		add("unconfirmed_login_allowed", LintHigh, "logins are allowed before email confirmation")
	}

	return ws
}

// HighSecurityConfig returns a defaults variant with production hardening,
// both throttles, and full observability enabled. Callers still supply
// Token.Secret and the engine dependencies.
func HighSecurityConfig() Config {
	cfg := defaultConfig()
	cfg.Security.ProductionMode = true
	cfg.Token.AccessTTL = 15 * time.Minute
	cfg.Token.RefreshTTL = 24 * time.Hour
	cfg.Token.Leeway = 30 * time.Second
	cfg.Limits.EnableLoginThrottle = true
	cfg.Limits.EnableIPThrottle = true
	cfg.Limits.EnableResetThrottle = true
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}
