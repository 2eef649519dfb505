package authkit

import "time"

type SecurityReport struct {
	ProductionMode         bool
	SigningAlgorithm       string
	TokenIssuer            string
	AccessTTL              time.Duration
	RefreshTTL             time.Duration
	ResetTTL               time.Duration
	EmailTokenTTL          time.Duration
	Argon2                 PasswordConfigReport
	MinPasswordLength      int
	HashUpgradeOnLogin     bool
	CacheActive            bool
	LoginThrottleActive    bool
	ResetThrottleActive    bool
	AuditActive            bool
	MetricsActive          bool
	ConfirmedLoginRequired bool
}

type PasswordConfigReport struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint32
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		ProductionMode:   e.config.Security.ProductionMode,
		SigningAlgorithm: e.config.Token.SigningMethod,
		TokenIssuer:      e.config.Token.Issuer,
		AccessTTL:        e.config.Token.AccessTTL,
		RefreshTTL:       e.config.Token.RefreshTTL,
		ResetTTL:         e.config.Token.ResetTTL,
		EmailTokenTTL:    e.config.Token.EmailTokenTTL,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Iterations:  e.config.Password.Iterations,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		MinPasswordLength:      e.config.Password.MinLength,
		HashUpgradeOnLogin:     e.config.Password.UpgradeOnLogin,
		CacheActive:            e.cache != nil,
		LoginThrottleActive:    e.limiter != nil && e.config.Limits.EnableLoginThrottle,
		ResetThrottleActive:    e.limiter != nil && e.config.Limits.EnableResetThrottle,
		AuditActive:            e.audit != nil,
		MetricsActive:          e.metrics.Enabled(),
		ConfirmedLoginRequired: e.config.Security.RequireConfirmedEmail,
	}
}
