package goSession

import (
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
)

type (
	// AuditEvent is one security-relevant outcome.
	AuditEvent = internalaudit.Event
	// AuditSink receives audit events from the dispatcher goroutine.
	AuditSink  = internalaudit.Sink

	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
	SlogSink       = internalaudit.SlogSink
)

const (
	AuditSignupStarted   = internalaudit.EventSignupStarted
	AuditSigninStarted   = internalaudit.EventSigninStarted
	AuditOTPResent       = internalaudit.EventOTPResent
	AuditOTPConfirmed    = internalaudit.EventOTPConfirmed
	AuditOTPRejected     = internalaudit.EventOTPRejected
	AuditAccountCreated  = internalaudit.EventAccountCreated
	AuditRefreshRotated  = internalaudit.EventRefreshRotated
	AuditRefreshRejected = internalaudit.EventRefreshRejected
	AuditRefreshReuse    = internalaudit.EventRefreshReuse
	AuditSignout         = internalaudit.EventSignout
	AuditSignoutAll      = internalaudit.EventSignoutAll
	AuditRateLimited     = internalaudit.EventRateLimited
)

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink logs successful events at INFO and failures at WARN.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
