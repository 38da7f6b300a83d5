// Package rate provides the Redis-backed two-tier limiter used by the signup,
// signin and OTP resend flows.
//
// # Window semantics
//
// Fixed-window counter: INCR + PEXPIRE on first hit, run as one Lua script.
// Cooldown: SET NX EX, rejecting while the flag exists. Key prefixes:
//   - <prefix>:c:<flow>:<email>  attempt counter
//   - <prefix>:cd:<flow>:<email> cooldown flag
//
// # What this package must NOT do
//
//   - Map its errors to caller-facing error kinds (internal/flows does that).
//   - Be imported outside the goSession module.
package rate
