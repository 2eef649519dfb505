package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:        testSecret,
		SigningMethod: MethodHS256,
		Issuer:        "authkit",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueParseRoundTripPerScope(t *testing.T) {
	m := newTestManager(t)

	for _, scope := range []Scope{ScopeAccess, ScopeRefresh, ScopeResetPassword, ScopeEmailVerification} {
		token, err := m.Issue(scope, "a@x.com", time.Minute)
		if err != nil {
			t.Fatalf("issue %s: %v", scope, err)
		}
		if strings.Count(token, ".") != 2 {
			t.Fatalf("expected compact three-segment token, got %q", token)
		}
		subject, err := m.Parse(token, scope)
		if err != nil {
			t.Fatalf("parse %s: %v", scope, err)
		}
		if subject != "a@x.com" {
			t.Fatalf("subject mismatch: got %q", subject)
		}
	}
}

func TestIssueTokensAreDistinct(t *testing.T) {
	m := newTestManager(t)

	// Same subject, scope and TTL in the same instant must still yield
	// distinct tokens, or refresh rotation degenerates into a no-op.
	first, err := m.Issue(ScopeRefresh, "a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := m.Issue(ScopeRefresh, "a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens for back-to-back issues")
	}

	claims, err := m.Inspect(first)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id claim")
	}
}

func TestParseRejectsWrongScope(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(ScopeRefresh, "a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Parse(token, ScopeAccess); !errors.Is(err, ErrScopeMismatch) {
		t.Fatalf("expected ErrScopeMismatch, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := newTestManager(t)

	claims := Claims{Scope: ScopeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "a@x.com",
		Issuer:    "authkit",
		IssuedAt:  gjwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token, ScopeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseHonorsLeeway(t *testing.T) {
	m, err := NewManager(Config{Secret: testSecret, SigningMethod: MethodHS256, Leeway: 30 * time.Second})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := Claims{Scope: ScopeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "a@x.com",
		IssuedAt:  gjwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-15 * time.Second)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token, ScopeAccess); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}
}

func TestParseRejectsTamperedSignature(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(ScopeAccess, "a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	forged, err := NewManager(Config{Secret: []byte("another-secret-another-secret!!!"), SigningMethod: MethodHS256, Issuer: "authkit"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	forgedToken, err := forged.Issue(ScopeAccess, "a@x.com", time.Minute)
	if err != nil {
		t.Fatalf("issue forged: %v", err)
	}

	if _, err := m.Parse(forgedToken, ScopeAccess); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for foreign secret, got %v", err)
	}

	// Flip a character inside the signature segment.
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)
	if _, err := m.Parse(tampered, ScopeAccess); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for tampered token, got %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	m := newTestManager(t)

	claims := Claims{Scope: ScopeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "a@x.com",
		Issuer:    "authkit",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token, ScopeAccess); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	m := newTestManager(t)

	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c.d", "...."} {
		if _, err := m.Parse(input, ScopeAccess); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("input %q: expected ErrTokenMalformed, got %v", input, err)
		}
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	m := newTestManager(t)

	claims := Claims{Scope: ScopeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "a@x.com",
		Issuer:    "someone-else",
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token, ScopeAccess); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}
}

func TestParseRejectsMissingSubject(t *testing.T) {
	m := newTestManager(t)

	claims := Claims{Scope: ScopeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "authkit",
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token, ScopeAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for missing subject, got %v", err)
	}
}

func TestInspectReturnsClaimsWithoutScopeCheck(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(ScopeEmailVerification, "a@x.com", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Inspect(token)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Scope != ScopeEmailVerification {
		t.Fatalf("scope mismatch: got %q", claims.Scope)
	}
	if claims.Subject != "a@x.com" {
		t.Fatalf("subject mismatch: got %q", claims.Subject)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected iat and exp to be populated")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h window, got %s", got)
	}
}

func TestIssueRejectsInvalidInput(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Issue(Scope("admin"), "a@x.com", time.Minute); !errors.Is(err, ErrScopeMismatch) {
		t.Fatalf("expected unknown scope rejection, got %v", err)
	}
	if _, err := m.Issue(ScopeAccess, "", time.Minute); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected empty subject rejection, got %v", err)
	}
	if _, err := m.Issue(ScopeAccess, "a@x.com", 0); err == nil {
		t.Fatal("expected zero ttl rejection")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256}); err == nil {
		t.Fatal("expected missing secret rejection")
	}
	if _, err := NewManager(Config{Secret: testSecret, SigningMethod: "rs256"}); err == nil {
		t.Fatal("expected unsupported method rejection")
	}
	if _, err := NewManager(Config{Secret: testSecret, Leeway: 5 * time.Minute}); err == nil {
		t.Fatal("expected oversized leeway rejection")
	}
	m, err := NewManager(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("expected empty method to default to hs256: %v", err)
	}
	if m.getMethod().Alg() != "HS256" {
		t.Fatalf("expected HS256 default, got %s", m.getMethod().Alg())
	}
}
