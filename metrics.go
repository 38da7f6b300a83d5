package goSession

import internalmetrics "github.com/MrEthical07/goSession/internal/metrics"

type (
	// MetricID identifies one engine counter or latency histogram.
	MetricID = internalmetrics.MetricID
	// MetricsSnapshot is a point-in-time copy returned by [Engine.MetricsSnapshot].
	MetricsSnapshot = internalmetrics.Snapshot
)

const (
	MetricSignupStarted            = internalmetrics.MetricSignupStarted
	MetricSigninStarted            = internalmetrics.MetricSigninStarted
	MetricSigninFailure            = internalmetrics.MetricSigninFailure
	MetricOTPResent                = internalmetrics.MetricOTPResent
	MetricOTPConfirmed             = internalmetrics.MetricOTPConfirmed
	MetricOTPFailure               = internalmetrics.MetricOTPFailure
	MetricOTPAttemptsExceeded      = internalmetrics.MetricOTPAttemptsExceeded
	MetricAccountCreated           = internalmetrics.MetricAccountCreated
	MetricAccountCreationDuplicate = internalmetrics.MetricAccountCreationDuplicate
	MetricRateLimitHit             = internalmetrics.MetricRateLimitHit
	MetricDeliveryFailure          = internalmetrics.MetricDeliveryFailure
	MetricSessionCreated           = internalmetrics.MetricSessionCreated
	MetricRefreshSuccess           = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure           = internalmetrics.MetricRefreshFailure
	MetricRefreshReuseDetected     = internalmetrics.MetricRefreshReuseDetected
	MetricSignout                  = internalmetrics.MetricSignout
	MetricSignoutAll               = internalmetrics.MetricSignoutAll
	MetricValidateLatency          = internalmetrics.MetricValidateLatency
	MetricRotateLatency            = internalmetrics.MetricRotateLatency

	// MetricIDCount bounds every valid MetricID.
	MetricIDCount = internalmetrics.MetricIDCount
	// HistogramBuckets is the length of every histogram in a snapshot.
	HistogramBuckets = internalmetrics.BucketCount
)

// IsLatencyMetric reports whether id records a histogram instead of a counter.
func IsLatencyMetric(id MetricID) bool {
	return internalmetrics.IsLatency(id)
}
