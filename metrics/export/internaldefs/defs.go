package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// Source is what the exporters read from. [*goSession.Engine] implements it.
type Source interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
}

// Def names one exported series.
type Def struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "gosession_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Audit events dropped because the dispatcher queue was full."

var CounterDefs = []Def{
	{ID: goSession.MetricSignupStarted, Name: "gosession_signup_started_total", Help: "Signups that reached OTP delivery."},
	{ID: goSession.MetricSigninStarted, Name: "gosession_signin_started_total", Help: "Signins that reached OTP delivery."},
	{ID: goSession.MetricSigninFailure, Name: "gosession_signin_failure_total", Help: "Signins rejected at the credential check."},
	{ID: goSession.MetricOTPResent, Name: "gosession_otp_resent_total", Help: "Verification codes resent."},
	{ID: goSession.MetricOTPConfirmed, Name: "gosession_otp_confirmed_total", Help: "Verifications confirmed."},
	{ID: goSession.MetricOTPFailure, Name: "gosession_otp_failure_total", Help: "Rejected OTP confirmations."},
	{ID: goSession.MetricOTPAttemptsExceeded, Name: "gosession_otp_attempts_exceeded_total", Help: "Verifications destroyed after the attempt cap."},
	{ID: goSession.MetricAccountCreated, Name: "gosession_account_created_total", Help: "Accounts created from confirmed signups."},
	{ID: goSession.MetricAccountCreationDuplicate, Name: "gosession_account_creation_duplicate_total", Help: "Confirmed signups that lost to an existing email."},
	{ID: goSession.MetricRateLimitHit, Name: "gosession_rate_limit_hit_total", Help: "Requests denied by the rate limiter."},
	{ID: goSession.MetricDeliveryFailure, Name: "gosession_delivery_failure_total", Help: "OTP messages the mailer failed to send."},
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions started."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful refresh token rotations."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Rejected refresh token rotations."},
	{ID: goSession.MetricRefreshReuseDetected, Name: "gosession_refresh_reuse_detected_total", Help: "Refresh token reuse detections."},
	{ID: goSession.MetricSignout, Name: "gosession_signout_total", Help: "Single-token signouts."},
	{ID: goSession.MetricSignoutAll, Name: "gosession_signout_all_total", Help: "Account-wide signouts."},
}

var HistogramDefs = []Def{
	{ID: goSession.MetricValidateLatency, Name: "gosession_validate_latency_seconds", Help: "Access token validation latency."},
	{ID: goSession.MetricRotateLatency, Name: "gosession_rotate_latency_seconds", Help: "Refresh token rotation latency."},
}

// Bucket pairs an upper bound label with the suffix used where labels are
// not available.
type Bucket struct {
	Le     string
	Suffix string
}

// Buckets lines up with the engine histogram slots.
var Buckets = [goSession.HistogramBuckets]Bucket{
	{Le: "0.005", Suffix: "0_005"},
	{Le: "0.01", Suffix: "0_01"},
	{Le: "0.025", Suffix: "0_025"},
	{Le: "0.05", Suffix: "0_05"},
	{Le: "0.1", Suffix: "0_1"},
	{Le: "0.25", Suffix: "0_25"},
	{Le: "0.5", Suffix: "0_5"},
	{Le: "+Inf", Suffix: "inf"},
}

// Cumulative converts per-slot counts into cumulative bucket counts. Missing
// slots count as zero and extra slots are ignored.
func Cumulative(raw []uint64) [goSession.HistogramBuckets]uint64 {
	var out [goSession.HistogramBuckets]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
