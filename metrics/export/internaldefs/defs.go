package internaldefs

import (
	"github.com/authcore/authcore"
)

// Prefix is prepended to every exported metric name.
const Prefix = "authcore_"

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	counter(authcore.MetricLoginSuccess, "Successful logins."),
	counter(authcore.MetricLoginFailure, "Failed logins of any kind."),
	counter(authcore.MetricLoginStoreUnavailable, "Logins that failed because the session store or directory was unreachable."),
	counter(authcore.MetricRefreshSuccess, "Access tokens minted from a refresh token."),
	counter(authcore.MetricRefreshFailure, "Rejected refresh attempts."),
	counter(authcore.MetricRefreshRevoked, "Refresh attempts against a revoked session."),
	counter(authcore.MetricRefreshExpired, "Refresh attempts against an expired session."),
	counter(authcore.MetricRefreshMalformed, "Refresh attempts with an undecodable token."),
	counter(authcore.MetricAuthenticateSuccess, "Access tokens accepted."),
	counter(authcore.MetricAuthenticateFailure, "Access tokens rejected."),
	counter(authcore.MetricSessionCreated, "Sessions created."),
	counter(authcore.MetricSessionRevoked, "Sessions revoked by logout."),
	counter(authcore.MetricSessionSwept, "Session records deleted by the expiry sweep."),
	counter(authcore.MetricLogout, "Successful logouts."),
	counter(authcore.MetricLogoutFailure, "Rejected logouts."),
	counter(authcore.MetricStoreUnavailable, "Operations that hit an unreachable or timed out session store."),
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: Prefix + "validate_latency_seconds", Help: "Access-token verification latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = Prefix + "audit_dropped_total"

const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// HistogramBounds are the bucket upper bounds in seconds, matching
// authcore.HistogramBucketBounds. The final +Inf bucket is implicit.
var HistogramBounds = func() []float64 {
	out := make([]float64, len(authcore.HistogramBucketBounds))
	for i, d := range authcore.HistogramBucketBounds {
		out[i] = d.Seconds()
	}
	return out
}()

// HistogramBoundSuffix names each bucket, including +Inf, for exporters without native
// histograms.
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

const bucketCount = 8

func counter(id authcore.MetricID, help string) CounterDef {
	return CounterDef{ID: id, Name: Prefix + id.String() + "_total", Help: help}
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [bucketCount]uint64 {
	var out [bucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [bucketCount]uint64) [bucketCount]uint64 {
	var out [bucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
