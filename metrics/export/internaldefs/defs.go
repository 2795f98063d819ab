package internaldefs

import (
	goParse "github.com/MrEthical07/goParse"
)

// CounterDef maps one client counter to its exported name.
type CounterDef struct {
	ID   goParse.MetricID
	Name string
	Help string
}

// HistogramDef maps one client histogram to its exported name.
type HistogramDef struct {
	ID   goParse.MetricID
	Name string
	Help string
}

// BucketCount is the number of latency buckets including +Inf.
const BucketCount = 8

// AuditDroppedName is exported alongside the client counters.
const (
	AuditDroppedName = "goparse_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: goParse.MetricCurrentUserSuccess, Name: "goparse_current_user_success_total", Help: "Successful current-user lookups."},
	{ID: goParse.MetricCurrentUserFailure, Name: "goparse_current_user_failure_total", Help: "Failed current-user lookups."},
	{ID: goParse.MetricSignUpSuccess, Name: "goparse_sign_up_success_total", Help: "Successful sign-ups."},
	{ID: goParse.MetricSignUpFailure, Name: "goparse_sign_up_failure_total", Help: "Failed sign-ups."},
	{ID: goParse.MetricLogInSuccess, Name: "goparse_log_in_success_total", Help: "Successful username/password log-ins."},
	{ID: goParse.MetricLogInFailure, Name: "goparse_log_in_failure_total", Help: "Failed username/password log-ins."},
	{ID: goParse.MetricLogInRateLimited, Name: "goparse_log_in_rate_limited_total", Help: "Log-ins refused by the client-side throttle."},
	{ID: goParse.MetricServiceLogInSuccess, Name: "goparse_service_log_in_success_total", Help: "Successful third-party log-ins."},
	{ID: goParse.MetricServiceLogInFailure, Name: "goparse_service_log_in_failure_total", Help: "Failed third-party log-ins."},
	{ID: goParse.MetricServiceLogInNewUser, Name: "goparse_service_log_in_new_user_total", Help: "Third-party log-ins that created a user."},
	{ID: goParse.MetricPasswordResetSuccess, Name: "goparse_password_reset_success_total", Help: "Accepted password reset requests."},
	{ID: goParse.MetricPasswordResetFailure, Name: "goparse_password_reset_failure_total", Help: "Failed password reset requests."},
	{ID: goParse.MetricPasswordResetRateLimited, Name: "goparse_password_reset_rate_limited_total", Help: "Password resets refused by the client-side throttle."},
	{ID: goParse.MetricRevocableSessionRequested, Name: "goparse_revocable_session_requested_total", Help: "Commands sent requesting a revocable session."},
	{ID: goParse.MetricInvalidSessionToken, Name: "goparse_invalid_session_token_total", Help: "Commands rejected for an invalid session token."},
	{ID: goParse.MetricTransportFailure, Name: "goparse_transport_failure_total", Help: "Commands that ended without an HTTP response."},
	{ID: goParse.MetricRetry, Name: "goparse_retry_total", Help: "Request retries after transport errors or 5xx responses."},
}

var HistogramDefs = []HistogramDef{
	{ID: goParse.MetricCommandLatency, Name: "goparse_command_latency_seconds", Help: "User command latency histogram."},
}

// HistogramUpperBounds are the bucket bounds in seconds, excluding +Inf.
// They mirror goParse.HistogramBucketBounds.
var HistogramUpperBounds = func() []float64 {
	out := make([]float64, 0, len(goParse.HistogramBucketBounds))
	for _, ms := range goParse.HistogramBucketBounds {
		out = append(out, float64(ms)/1000)
	}
	return out
}()

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
