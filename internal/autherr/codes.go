package autherr

const (
	CodeClientError       = "CLIENT_ERROR"
	CodePasswordTooShort  = "PASSWORD_TOO_SHORT"
	CodeInvalidOTPFormat  = "INVALID_OTP_FORMAT"
	CodeInvalidEmail      = "INVALID_EMAIL"
	CodeMissingRefresh    = "MISSING_REFRESH_TOKEN"
	CodeEmailExists       = "EMAIL_ALREADY_EXISTS"
	CodeEmailNotFound     = "EMAIL_DOES_NOT_EXIST"
	CodeTooManyAttempts   = "TOO_MANY_ATTEMPTS"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeVerificationGone  = "VERIFICATION_EXPIRED"
	CodeTooManyOTP        = "TOO_MANY_OTP_ATTEMPTS"
	CodeInvalidOTP        = "INVALID_OR_EXPIRED_OTP"
	CodeRefreshInvalid    = "REFRESH_TOKEN_INVALID"
	CodeRefreshRevoked    = "REFRESH_TOKEN_REVOKED"
	CodeRefreshExpired    = "REFRESH_TOKEN_EXPIRED"
	CodeRefreshReuse      = "REFRESH_TOKEN_REUSE_DETECTED"
	CodeInvalidCreds      = "INVALID_CREDENTIALS"
	CodeEmailNotVerified  = "EMAIL_NOT_VERIFIED"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeAccessExpired     = "ACCESS_TOKEN_EXPIRED"
	CodeInvalidAccess     = "INVALID_ACCESS_TOKEN"
	CodeMissingAccess     = "MISSING_ACCESS_TOKEN"
	CodeServerError       = "SERVER_ERROR"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeDeliveryFailed    = "DELIVERY_FAILED"
	CodeUnknownHash       = "UNKNOWN_HASH_ERROR"
	CodeEngineNotReady    = "ENGINE_NOT_READY"
	CodeAccountCreateFail = "ERROR_CREATING_USER_WITH_EMAIL"
	CodeTokenIssueFailed  = "TOKEN_ISSUE_FAILED"
)

// Client errors.
var (
	ErrPasswordTooShort = client(CodePasswordTooShort, "password must be at least 5 characters")
	ErrInvalidOTPFormat = client(CodeInvalidOTPFormat, "otp must be numeric with the configured length")
	ErrInvalidEmail     = client(CodeInvalidEmail, "email address is invalid")
	ErrMissingRefresh   = client(CodeMissingRefresh, "refresh token is missing")
)

// Domain errors.
var (
	ErrEmailAlreadyExists        = domain(CodeEmailExists, "can't create user, email already exists")
	ErrEmailDoesNotExist         = domain(CodeEmailNotFound, "email doesn't exist")
	ErrTooManyAttempts           = domain(CodeTooManyAttempts, "too many attempts, try again later")
	ErrTooManyRequests           = domain(CodeTooManyRequests, "too many requests, slow down")
	ErrVerificationExpired       = domain(CodeVerificationGone, "verification expired or not found")
	ErrTooManyOtpAttempts        = domain(CodeTooManyOTP, "too many otp attempts, start again")
	ErrInvalidOrExpiredOtp       = domain(CodeInvalidOTP, "invalid or expired otp")
	ErrRefreshTokenInvalid       = domain(CodeRefreshInvalid, "invalid refresh token")
	ErrRefreshTokenRevoked       = domain(CodeRefreshRevoked, "refresh token revoked")
	ErrRefreshTokenExpired       = domain(CodeRefreshExpired, "refresh token expired")
	ErrRefreshTokenReuseDetected = domain(CodeRefreshReuse, "refresh token reuse detected")
)

// Auth errors.
var (
	ErrInvalidCredentials = auth(CodeInvalidCreds, "invalid email or password")
	ErrEmailNotVerified   = auth(CodeEmailNotVerified, "email is not verified")
	ErrInvalidSignature   = auth(CodeInvalidSignature, "invalid signature")
	ErrAccessTokenExpired = auth(CodeAccessExpired, "token expired")
	ErrInvalidAccessToken = auth(CodeInvalidAccess, "invalid token")
	ErrMissingAccessToken = auth(CodeMissingAccess, "access token is missing")
)

// Server errors.
var (
	ErrServer              = server(CodeServerError, "server error", false)
	ErrStoreUnavailable    = server(CodeStoreUnavailable, "backing store unavailable", true)
	ErrDeliveryFailed      = server(CodeDeliveryFailed, "otp delivery failed", true)
	ErrHashMisconfigured   = server(CodeUnknownHash, "stored hash uses an unknown scheme", false)
	ErrEngineNotReady      = server(CodeEngineNotReady, "engine not initialized", false)
	ErrAccountCreateFailed = server(CodeAccountCreateFail, "error creating user with email", true)
	ErrTokenIssueFailed    = server(CodeTokenIssueFailed, "could not issue tokens", false)
)
