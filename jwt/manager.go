package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scope names the single flow a token is valid for. [Manager.Parse]
// enforces it, so an access token can never stand in for a refresh token
// or the other way around.
type Scope string

// Wire values of the scope claim.
const (
	ScopeAccess            Scope = "access"
	ScopeRefresh           Scope = "refresh"
	ScopeResetPassword     Scope = "reset_password"
	ScopeEmailVerification Scope = "email_verification"
)

// Valid reports whether s is one of the four scopes the engine issues.
func (s Scope) Valid() bool {
	switch s {
	case ScopeAccess, ScopeRefresh, ScopeResetPassword, ScopeEmailVerification:
		return true
	default:
		return false
	}
}

// Verification failures, matched with errors.Is. ErrTokenExpired also
// covers not-yet-valid and used-before-issued windows.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrBadSignature   = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrScopeMismatch  = errors.New("token scope mismatch")
)

// SigningMethod selects the HMAC-SHA variant used for both signing and
// verification. Asymmetric methods are deliberately unsupported.
type SigningMethod string

const (
	MethodHS256 SigningMethod = "hs256"
	MethodHS384 SigningMethod = "hs384"
	MethodHS512 SigningMethod = "hs512"
)

// Config parameterizes a [Manager]. Secret is required. Leeway widens the
// exp/nbf windows during verification (at most two minutes); RequireIAT
// rejects tokens without an iat claim; MaxFutureIAT bounds how far ahead
// an iat may sit before the token is treated as malformed (default 10m).
type Config struct {
	Secret        []byte
	SigningMethod SigningMethod
	Issuer        string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
}

// Manager issues and verifies scoped tokens. It is immutable after
// [NewManager] and safe for concurrent use.
type Manager struct {
	config Config
}

// Claims is the payload of every issued token: the registered claim set
// plus the scope.
type Claims struct {
	Scope Scope `json:"scope"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a ready [Manager]. An empty
// SigningMethod selects HS256.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256, MethodHS384, MethodHS512:
	case "":
		cfg.SigningMethod = MethodHS256
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// Issue signs a token binding subject to scope for the given lifetime.
// ttl must be positive; expiry is computed from the current clock.
func (j *Manager) Issue(scope Scope, subject string, ttl time.Duration) (string, error) {
	if !scope.Valid() {
		return "", fmt.Errorf("%w: unknown scope %q", ErrScopeMismatch, scope)
	}
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrTokenMalformed)
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be > 0")
	}

	now := time.Now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps two same-second issues for one subject distinct;
			// refresh rotation relies on that.
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(j.getMethod(), claims)
	return token.SignedString(j.config.Secret)
}

// Parse verifies tokenStr, enforces the expected scope, and returns the
// subject claim. Failures map onto the package sentinels.
func (j *Manager) Parse(tokenStr string, want Scope) (string, error) {
	claims, err := j.decode(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Scope != want {
		return "", fmt.Errorf("%w: got %q, want %q", ErrScopeMismatch, claims.Scope, want)
	}
	return claims.Subject, nil
}

// Inspect decodes and verifies a token without enforcing a scope, returning
// the full claim set. It exists for diagnostics and tests; authorization
// decisions must go through [Manager.Parse] so the scope is always checked.
func (j *Manager) Inspect(tokenStr string) (*Claims, error) {
	return j.decode(tokenStr)
}

func (j *Manager) decode(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.getMethod().Alg()}),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != j.getMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return j.config.Secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrTokenMalformed)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	maxFuture := j.config.MaxFutureIAT
	if maxFuture == 0 {
		maxFuture = 10 * time.Minute
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(time.Now().Add(maxFuture)) {
		return nil, fmt.Errorf("%w: iat too far in the future", ErrTokenMalformed)
	}

	return claims, nil
}

// classifyParseError collapses the library's failure surface into the four
// kinds callers pattern-match on. Time-window failures map to expiry,
// verification failures to bad signature, everything else to malformed.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func (j *Manager) getMethod() jwt.SigningMethod {
	switch j.config.SigningMethod {
	case MethodHS384:
		return jwt.SigningMethodHS384
	case MethodHS512:
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
