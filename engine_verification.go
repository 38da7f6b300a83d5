package goSession

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/autherr"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/stores"
)

// BeginSignup checks that req may sign up, stores a pending signup with the
// hashed password and mails a verification code. It returns the verification
// id the client must present to [Engine.ConfirmOTP].
//
// Failures: ErrInvalidEmail, ErrPasswordTooShort, ErrEmailAlreadyExists,
// ErrTooManyAttempts, ErrTooManyRequests, ErrDeliveryFailed and server errors.
func (e *Engine) BeginSignup(ctx context.Context, req SignupRequest) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return "", err
	}

	if err := flows.RunVerifySignupEligibility(ctx, email, req.Password, e.deps.Credentials); err != nil {
		return "", e.fail(ctx, "begin_signup", err)
	}

	passwordHash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return "", e.fail(ctx, "begin_signup", autherr.Server(autherr.CodeServerError, err))
	}

	challenge, err := flows.RunBeginSignup(ctx, email, req.Username, passwordHash, e.deps.Pending)
	if err != nil {
		e.rejected(ctx, email, err)
		return "", e.fail(ctx, "begin_signup", err)
	}

	if err := e.deliver(ctx, challenge); err != nil {
		return "", e.fail(ctx, "begin_signup", err)
	}

	e.metricInc(MetricSignupStarted)
	e.emitAudit(ctx, AuditEvent{
		EventType:      internalaudit.EventSignupStarted,
		VerificationID: challenge.VerificationID,
		Success:        true,
	})
	return challenge.VerificationID, nil
}

// BeginSignin verifies the email password credential, stores a pending signin
// and mails a verification code. Only verified credentials may sign in.
//
// Failures: ErrInvalidEmail, ErrEmailDoesNotExist, ErrInvalidCredentials,
// ErrEmailNotVerified, ErrTooManyAttempts, ErrTooManyRequests,
// ErrDeliveryFailed and server errors.
func (e *Engine) BeginSignin(ctx context.Context, req SigninRequest) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return "", err
	}

	cred, err := flows.RunVerifySigninCredentials(ctx, email, req.Password, e.deps.Credentials)
	if err != nil {
		e.metricInc(MetricSigninFailure)
		return "", e.fail(ctx, "begin_signin", err)
	}

	challenge, err := flows.RunBeginSignin(ctx, cred.AccountID, email, e.deps.Pending)
	if err != nil {
		e.rejected(ctx, email, err)
		return "", e.fail(ctx, "begin_signin", err)
	}

	if err := e.deliver(ctx, challenge); err != nil {
		return "", e.fail(ctx, "begin_signin", err)
	}

	e.metricInc(MetricSigninStarted)
	e.emitAudit(ctx, AuditEvent{
		EventType:      internalaudit.EventSigninStarted,
		AccountID:      cred.AccountID,
		VerificationID: challenge.VerificationID,
		Success:        true,
	})
	return challenge.VerificationID, nil
}

// ConfirmOTP consumes the pending verification and starts a session.
//
// A signup confirmation creates the account with a verified email credential
// first. A verification can be confirmed once; the attempt budget is shared by
// all concurrent callers. User agent and client IP are read from ctx.
func (e *Engine) ConfirmOTP(ctx context.Context, verificationID, otp string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	record, err := flows.RunConfirm(ctx, verificationID, otp, e.deps.Pending)
	if err != nil {
		if errors.Is(err, ErrTooManyOtpAttempts) {
			e.metricInc(MetricOTPAttemptsExceeded)
		} else {
			e.metricInc(MetricOTPFailure)
		}
		e.emitAudit(ctx, AuditEvent{
			EventType:      internalaudit.EventOTPRejected,
			VerificationID: verificationID,
			Error:          autherr.Code(err),
		})
		return nil, e.fail(ctx, "confirm_otp", err)
	}

	accountID := record.AccountID
	if record.Kind == stores.PendingSignup {
		account, _, err := flows.RunCreateAccountWithEmail(ctx, record.Username, record.Email, record.PasswordHash, e.deps.Credentials)
		if err != nil {
			if errors.Is(err, ErrEmailAlreadyExists) {
				e.metricInc(MetricAccountCreationDuplicate)
			}
			return nil, e.fail(ctx, "confirm_otp", err)
		}
		accountID = account.ID
		e.metricInc(MetricAccountCreated)
		e.emitAudit(ctx, AuditEvent{
			EventType: internalaudit.EventAccountCreated,
			AccountID: accountID,
			Success:   true,
		})
	}
	if accountID == "" {
		return nil, e.fail(ctx, "confirm_otp", autherr.Server(autherr.CodeServerError, errors.New("pending signin record without account id")))
	}

	pair, err := flows.RunIssueSession(ctx, accountID, e.client(ctx), e.deps.Tokens)
	if err != nil {
		return nil, e.fail(ctx, "confirm_otp", err)
	}

	e.metricInc(MetricOTPConfirmed)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, AuditEvent{
		EventType:      internalaudit.EventOTPConfirmed,
		AccountID:      accountID,
		SessionID:      pair.SessionID,
		VerificationID: verificationID,
		Success:        true,
		Metadata:       map[string]string{"kind": string(record.Kind)},
	})
	return toTokenPair(pair), nil
}

// ResendOTP replaces the code of a live verification, resets its attempt
// counter and TTL, and mails the new code. Resends share the rate limit
// budget of the resend flow for the record's email.
func (e *Engine) ResendOTP(ctx context.Context, verificationID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	challenge, err := flows.RunResend(ctx, verificationID, e.deps.Pending)
	if err != nil {
		e.rejected(ctx, "", err)
		return e.fail(ctx, "resend_otp", err)
	}

	if err := e.deliver(ctx, challenge); err != nil {
		return e.fail(ctx, "resend_otp", err)
	}

	e.metricInc(MetricOTPResent)
	e.emitAudit(ctx, AuditEvent{
		EventType:      internalaudit.EventOTPResent,
		VerificationID: verificationID,
		Success:        true,
	})
	return nil
}

// MarkEmailVerified sets the verified flag of the email credential for email.
// It is meant for operators moving identities created outside the OTP flow.
func (e *Engine) MarkEmailVerified(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return e.fail(ctx, "mark_email_verified", flows.RunMarkVerified(ctx, normalized, e.deps.Credentials))
}

func (e *Engine) deliver(ctx context.Context, challenge *flows.Challenge) error {
	if err := e.mailer.Send(ctx, challenge.Email, challenge.OTP); err != nil {
		e.metricInc(MetricDeliveryFailure)
		return autherr.Wrap(autherr.ErrDeliveryFailed, err)
	}
	return nil
}

// rejected records rate limit hits. Other errors are left to the caller.
func (e *Engine) rejected(ctx context.Context, email string, err error) {
	if !errors.Is(err, ErrTooManyAttempts) && !errors.Is(err, ErrTooManyRequests) {
		return
	}
	e.metricInc(MetricRateLimitHit)
	event := AuditEvent{
		EventType: internalaudit.EventRateLimited,
		Error:     autherr.Code(err),
	}
	if email != "" {
		event.Metadata = map[string]string{"email": email}
	}
	e.emitAudit(ctx, event)
}
