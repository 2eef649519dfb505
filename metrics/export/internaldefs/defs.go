package internaldefs

import (
	authkit "github.com/Unfeir/authkit"
)

// CounterDef names one counter for export: the snapshot ID it reads from
// plus the exposition name and help text.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram for export.
type HistogramDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in snapshot order. Both
// exporters iterate this table so their metric sets cannot drift apart.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricSignUpSuccess, Name: "authkit_signup_success_total", Help: "Successful signups."},
	{ID: authkit.MetricSignUpDuplicate, Name: "authkit_signup_duplicate_total", Help: "Signups rejected because the email is taken."},
	{ID: authkit.MetricSignUpFailure, Name: "authkit_signup_failure_total", Help: "Failed signup attempts."},
	{ID: authkit.MetricLoginSuccess, Name: "authkit_login_success_total", Help: "Successful login attempts."},
	{ID: authkit.MetricLoginFailure, Name: "authkit_login_failure_total", Help: "Failed login attempts."},
	{ID: authkit.MetricLoginRateLimited, Name: "authkit_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: authkit.MetricRefreshSuccess, Name: "authkit_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authkit.MetricRefreshFailure, Name: "authkit_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: authkit.MetricRefreshReplayDetected, Name: "authkit_refresh_replay_detected_total", Help: "Detected refresh token replays."},
	{ID: authkit.MetricConfirmEmailSuccess, Name: "authkit_confirm_email_success_total", Help: "Successful email confirmations."},
	{ID: authkit.MetricConfirmEmailRepeat, Name: "authkit_confirm_email_repeat_total", Help: "Confirmations of already confirmed identities."},
	{ID: authkit.MetricConfirmEmailFailure, Name: "authkit_confirm_email_failure_total", Help: "Failed email confirmations."},
	{ID: authkit.MetricResendConfirmation, Name: "authkit_resend_confirmation_total", Help: "Confirmation mail resend requests."},
	{ID: authkit.MetricResetRequest, Name: "authkit_reset_request_total", Help: "Password reset requests."},
	{ID: authkit.MetricResetRequestRateLimited, Name: "authkit_reset_request_rate_limited_total", Help: "Rate-limited password reset requests."},
	{ID: authkit.MetricResetExchange, Name: "authkit_reset_exchange_total", Help: "Reset token exchanges."},
	{ID: authkit.MetricPasswordSetSuccess, Name: "authkit_password_set_success_total", Help: "Successful password replacements."},
	{ID: authkit.MetricPasswordSetFailure, Name: "authkit_password_set_failure_total", Help: "Failed password replacements."},
	{ID: authkit.MetricAuthorizeSuccess, Name: "authkit_authorize_success_total", Help: "Successful access-token authorizations."},
	{ID: authkit.MetricAuthorizeFailure, Name: "authkit_authorize_failure_total", Help: "Failed access-token authorizations."},
	{ID: authkit.MetricCacheHit, Name: "authkit_cache_hit_total", Help: "Authorize lookups answered from the session cache."},
	{ID: authkit.MetricCacheMiss, Name: "authkit_cache_miss_total", Help: "Authorize lookups that missed the session cache."},
	{ID: authkit.MetricCacheDegraded, Name: "authkit_cache_degraded_total", Help: "Authorize lookups that fell back to the store after a cache error."},
	{ID: authkit.MetricHashUpgrade, Name: "authkit_hash_upgrade_total", Help: "Password digests transparently upgraded on login."},
	{ID: authkit.MetricMailSent, Name: "authkit_mail_sent_total", Help: "Delivered mail messages."},
	{ID: authkit.MetricMailFailed, Name: "authkit_mail_failed_total", Help: "Failed mail deliveries."},
	{ID: authkit.MetricRateLimitHit, Name: "authkit_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// HistogramDefs lists every exported histogram. The engine only records
// authorize latency today.
var HistogramDefs = []HistogramDef{
	{ID: authkit.MetricAuthorizeLatency, Name: "authkit_authorize_latency_seconds", Help: "Authorize latency histogram."},
}

// HistogramBounds holds the upper bucket bounds in seconds, matching the
// fixed 8-bucket layout of the recorder. The last bucket is unbounded.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with filesystem- and
// attribute-safe spellings for exporters that cannot use "." or "+".
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a snapshot bucket slice to the fixed
// 8-bucket layout, so exporters never index past a short slice.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the running totals
// Prometheus histogram exposition requires.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
