// Package password implements secret hashing and verification with Argon2id.
//
// The same hasher is used for account passwords and for one-time passcodes,
// so brute forcing a stored OTP costs as much as brute forcing a password.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.Verify] reports parameter upgrades inline: when a stored hash was
// produced with weaker parameters it returns a fresh hash alongside a
// successful result, and the caller persists it. Legacy bcrypt hashes can be
// accepted with [Config.AcceptLegacyBcrypt]; they always upgrade.
//
// # Failure classes
//
//   - Malformed hash of a known scheme: not a match, no error.
//   - Unrecognized scheme: [ErrUnknownHashFormat], a configuration fault.
//
// # What this package must NOT do
//
//   - Store or retrieve secrets. Callers supply plaintext and receive hashes.
//   - Enforce password policy such as minimum length.
//   - Import any other goSession package.
package password
