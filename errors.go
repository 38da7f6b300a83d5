package goSession

import "github.com/MrEthical07/goSession/internal/autherr"

// Error is the tagged error returned by every Engine operation. Branch on it
// with errors.Is against the sentinels below, or inspect Kind and Code with
// errors.As.
type Error = autherr.Error

// ErrorKind classifies an Error for transport mapping.
type ErrorKind = autherr.Kind

const (
	KindClient = autherr.KindClient
	KindDomain = autherr.KindDomain
	KindAuth   = autherr.KindAuth
	KindServer = autherr.KindServer
)

var (
	// Client errors.
	ErrPasswordTooShort = autherr.ErrPasswordTooShort
	ErrInvalidOTPFormat = autherr.ErrInvalidOTPFormat
	ErrInvalidEmail     = autherr.ErrInvalidEmail
	ErrMissingRefresh   = autherr.ErrMissingRefresh

	// Domain errors.
	ErrEmailAlreadyExists        = autherr.ErrEmailAlreadyExists
	ErrEmailDoesNotExist         = autherr.ErrEmailDoesNotExist
	ErrTooManyAttempts           = autherr.ErrTooManyAttempts
	ErrTooManyRequests           = autherr.ErrTooManyRequests
	ErrVerificationExpired       = autherr.ErrVerificationExpired
	ErrTooManyOtpAttempts        = autherr.ErrTooManyOtpAttempts
	ErrInvalidOrExpiredOtp       = autherr.ErrInvalidOrExpiredOtp
	ErrRefreshTokenInvalid       = autherr.ErrRefreshTokenInvalid
	ErrRefreshTokenRevoked       = autherr.ErrRefreshTokenRevoked
	ErrRefreshTokenExpired       = autherr.ErrRefreshTokenExpired
	ErrRefreshTokenReuseDetected = autherr.ErrRefreshTokenReuseDetected

	// Auth errors.
	ErrInvalidCredentials = autherr.ErrInvalidCredentials
	ErrEmailNotVerified   = autherr.ErrEmailNotVerified
	ErrInvalidSignature   = autherr.ErrInvalidSignature
	ErrAccessTokenExpired = autherr.ErrAccessTokenExpired
	ErrInvalidAccessToken = autherr.ErrInvalidAccessToken
	ErrMissingAccessToken = autherr.ErrMissingAccessToken

	// Server errors. Their messages are never exposed to end users.
	ErrServer              = autherr.ErrServer
	ErrStoreUnavailable    = autherr.ErrStoreUnavailable
	ErrDeliveryFailed      = autherr.ErrDeliveryFailed
	ErrHashMisconfigured   = autherr.ErrHashMisconfigured
	ErrEngineNotReady      = autherr.ErrEngineNotReady
	ErrAccountCreateFailed = autherr.ErrAccountCreateFailed
	ErrTokenIssueFailed    = autherr.ErrTokenIssueFailed
)

// KindOf returns the kind of err. Untagged errors are KindServer.
func KindOf(err error) ErrorKind {
	return autherr.KindOf(err)
}

// ErrorCode returns the stable code of err, or SERVER_ERROR for untagged errors.
func ErrorCode(err error) string {
	return autherr.Code(err)
}
