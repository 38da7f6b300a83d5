package flows

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/internal/autherr"
)

// CredentialDeps captures credential verification dependencies.
type CredentialDeps struct {
	Store             CredentialStore
	Hasher            SecretHasher
	MinPasswordLength int
	Warn              func(string, ...any)
}

// RunVerifySignupEligibility checks the password policy and that no
// credential of any provider already claims email.
func RunVerifySignupEligibility(ctx context.Context, email, password string, deps CredentialDeps) error {
	if deps.Store == nil {
		return autherr.ErrEngineNotReady
	}
	if utf8.RuneCountInString(password) < deps.MinPasswordLength {
		return autherr.ErrPasswordTooShort
	}

	used, err := deps.Store.EmailInUse(ctx, email)
	if err != nil {
		return autherr.Unavailable("credentials", err)
	}
	if used {
		return autherr.ErrEmailAlreadyExists
	}
	return nil
}

// RunVerifySigninCredentials loads the EMAIL credential for email and checks
// password against it. An outdated stored hash is replaced on a match; a
// failed replacement is logged and does not fail the signin.
func RunVerifySigninCredentials(ctx context.Context, email, password string, deps CredentialDeps) (*credential.Credential, error) {
	if deps.Store == nil || deps.Hasher == nil {
		return nil, autherr.ErrEngineNotReady
	}
	if deps.Warn == nil {
		deps.Warn = nopWarn
	}

	cred, err := deps.Store.FindByEmail(ctx, credential.ProviderEmail, email)
	if errors.Is(err, credential.ErrNotFound) {
		return nil, autherr.ErrEmailDoesNotExist
	}
	if err != nil {
		return nil, autherr.Unavailable("credentials", err)
	}

	ok, upgraded, err := deps.Hasher.Verify(password, cred.PasswordHash)
	if err != nil {
		return nil, autherr.Wrap(autherr.ErrHashMisconfigured, err)
	}
	if !ok {
		return nil, autherr.ErrInvalidCredentials
	}

	if upgraded != "" {
		if err := deps.Store.UpdatePasswordHash(ctx, cred.ID, upgraded); err != nil {
			deps.Warn("goSession: password hash upgrade failed", "credential_id", cred.ID, "error", err)
		} else {
			cred.PasswordHash = upgraded
		}
	}

	if !cred.Verified {
		return nil, autherr.ErrEmailNotVerified
	}
	return cred, nil
}

// RunCreateAccountWithEmail inserts the account and its verified EMAIL
// credential. Losing a race with a concurrent signup for the same email
// reports ErrEmailAlreadyExists.
func RunCreateAccountWithEmail(ctx context.Context, username, email, passwordHash string, deps CredentialDeps) (*credential.Account, *credential.Credential, error) {
	if deps.Store == nil {
		return nil, nil, autherr.ErrEngineNotReady
	}

	account, cred, err := deps.Store.CreateAccountWithEmail(ctx, username, email, passwordHash)
	if errors.Is(err, credential.ErrDuplicate) {
		return nil, nil, autherr.ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, nil, autherr.Wrap(autherr.ErrAccountCreateFailed, err)
	}
	return account, cred, nil
}

// RunMarkVerified flips the verified flag on the EMAIL credential for email.
func RunMarkVerified(ctx context.Context, email string, deps CredentialDeps) error {
	if deps.Store == nil {
		return autherr.ErrEngineNotReady
	}
	err := deps.Store.MarkVerified(ctx, credential.ProviderEmail, email)
	if errors.Is(err, credential.ErrNotFound) {
		return autherr.ErrEmailDoesNotExist
	}
	if err != nil {
		return autherr.Unavailable("credentials", err)
	}
	return nil
}
