package flows

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goSession/internal/autherr"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/internal/stores"
)

// PendingDeps captures pending OTP verification dependencies.
type PendingDeps struct {
	Store             PendingStore
	Limiter           Admitter
	Hasher            SecretHasher
	NewVerificationID func() string
	NewCode           func(digits int) (int64, error)
	OTPDigits         int
	TTL               time.Duration
	MaxAttempts       int
	Warn              func(string, ...any)
}

// Challenge is a freshly issued OTP awaiting delivery. OTP is plaintext and
// must only be handed to the mail transport.
type Challenge struct {
	VerificationID string
	OTP            string
	Email          string
}

// RunBeginSignup admits the signup under the rate limiter and persists a
// pending signup record carrying the already hashed password.
func RunBeginSignup(ctx context.Context, email, username, passwordHash string, deps PendingDeps) (*Challenge, error) {
	return beginPending(ctx, rate.FlowSignup, &stores.PendingRecord{
		Kind:         stores.PendingSignup,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
	}, deps)
}

// RunBeginSignin admits the signin under the rate limiter and persists a
// pending signin record for accountID.
func RunBeginSignin(ctx context.Context, accountID, email string, deps PendingDeps) (*Challenge, error) {
	return beginPending(ctx, rate.FlowSignin, &stores.PendingRecord{
		Kind:      stores.PendingSignin,
		Email:     email,
		AccountID: accountID,
	}, deps)
}

func beginPending(ctx context.Context, flow rate.Flow, record *stores.PendingRecord, deps PendingDeps) (*Challenge, error) {
	if !deps.ready() {
		return nil, autherr.ErrEngineNotReady
	}

	if err := deps.Limiter.Admit(ctx, flow, record.Email); err != nil {
		return nil, mapLimiterErr(err)
	}

	otp, otpHash, err := deps.newOTP()
	if err != nil {
		return nil, err
	}
	record.OTPHash = otpHash

	verificationID := deps.NewVerificationID()
	if err := deps.Store.Save(ctx, verificationID, record, deps.TTL); err != nil {
		return nil, autherr.Unavailable("pending", err)
	}

	return &Challenge{
		VerificationID: verificationID,
		OTP:            otp,
		Email:          record.Email,
	}, nil
}

// RunResend issues a new OTP for an existing verification. The old code
// stops working, the attempt counter restarts and the TTL is re-armed.
func RunResend(ctx context.Context, verificationID string, deps PendingDeps) (*Challenge, error) {
	if !deps.ready() {
		return nil, autherr.ErrEngineNotReady
	}

	record, err := deps.Store.Get(ctx, verificationID)
	if err != nil {
		return nil, mapPendingErr(err)
	}

	if err := deps.Limiter.Admit(ctx, rate.FlowResend, record.Email); err != nil {
		return nil, mapLimiterErr(err)
	}

	otp, otpHash, err := deps.newOTP()
	if err != nil {
		return nil, err
	}
	if err := deps.Store.ResetOTP(ctx, verificationID, otpHash, deps.TTL); err != nil {
		return nil, mapPendingErr(err)
	}

	return &Challenge{
		VerificationID: verificationID,
		OTP:            otp,
		Email:          record.Email,
	}, nil
}

// RunConfirm checks otp against the pending record and consumes it.
//
// The attempt is counted before the hash comparison, so concurrent guesses
// cannot exceed MaxAttempts. A successful confirmation deletes the record and
// only the caller whose delete removed it succeeds.
func RunConfirm(ctx context.Context, verificationID, otp string, deps PendingDeps) (*stores.PendingRecord, error) {
	if !deps.ready() {
		return nil, autherr.ErrEngineNotReady
	}
	if deps.Warn == nil {
		deps.Warn = nopWarn
	}
	if !validOTPFormat(otp, deps.OTPDigits) {
		return nil, autherr.ErrInvalidOTPFormat
	}

	record, err := deps.Store.Get(ctx, verificationID)
	if err != nil {
		return nil, mapPendingErr(err)
	}

	attempts, err := deps.Store.IncrementAttempts(ctx, verificationID)
	if err != nil {
		return nil, mapPendingErr(err)
	}
	if attempts > int64(deps.MaxAttempts) {
		if _, err := deps.Store.Delete(ctx, verificationID); err != nil {
			deps.Warn("goSession: pending verification delete failed", "verification_id", verificationID, "error", err)
		}
		return nil, autherr.ErrTooManyOtpAttempts
	}

	ok, upgraded, err := deps.Hasher.Verify(otp, record.OTPHash)
	if err != nil {
		return nil, autherr.Wrap(autherr.ErrHashMisconfigured, err)
	}
	if !ok {
		return nil, autherr.ErrInvalidOrExpiredOtp
	}

	if upgraded != "" {
		if err := deps.Store.UpdateOTPHash(ctx, verificationID, upgraded); err != nil && !errors.Is(err, stores.ErrPendingNotFound) {
			deps.Warn("goSession: otp hash upgrade failed", "verification_id", verificationID, "error", err)
		}
	}

	removed, err := deps.Store.Delete(ctx, verificationID)
	if err != nil {
		return nil, autherr.Unavailable("pending", err)
	}
	if !removed {
		return nil, autherr.ErrVerificationExpired
	}

	record.Attempts = attempts
	return record, nil
}

func (d PendingDeps) ready() bool {
	return d.Store != nil &&
		d.Limiter != nil &&
		d.Hasher != nil &&
		d.NewVerificationID != nil &&
		d.NewCode != nil
}

func (d PendingDeps) newOTP() (string, string, error) {
	code, err := d.NewCode(d.OTPDigits)
	if err != nil {
		return "", "", autherr.Server(autherr.CodeServerError, err)
	}
	otp := strconv.FormatInt(code, 10)

	otpHash, err := d.Hasher.Hash(otp)
	if err != nil {
		return "", "", autherr.Server(autherr.CodeServerError, err)
	}
	return otp, otpHash, nil
}

func validOTPFormat(otp string, digits int) bool {
	if len(otp) != digits {
		return false
	}
	for i := 0; i < len(otp); i++ {
		if otp[i] < '0' || otp[i] > '9' {
			return false
		}
	}
	return true
}

func mapLimiterErr(err error) error {
	switch {
	case errors.Is(err, rate.ErrTooManyAttempts):
		return autherr.ErrTooManyAttempts
	case errors.Is(err, rate.ErrTooManyRequests):
		return autherr.ErrTooManyRequests
	default:
		return autherr.Unavailable("rate limiter", err)
	}
}

func mapPendingErr(err error) error {
	if errors.Is(err, stores.ErrPendingNotFound) {
		return autherr.ErrVerificationExpired
	}
	return autherr.Unavailable("pending", err)
}
