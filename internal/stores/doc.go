// Package stores provides the Redis-backed, short-lived pending verification
// records used by the OTP signup and signin flows.
//
// # Design
//
// Each record is a Redis hash with a TTL. Writes that create a record set the
// fields and the TTL inside one MULTI. Mutations of an existing record
// (attempt increments, OTP hash replacement) run as Lua scripts that refuse to
// touch a missing key, so an expired record is never resurrected without a TTL.
//
// # Architecture boundaries
//
// This package owns persistence and atomicity for pending records. It does NOT
// generate or verify OTPs, enforce rate limits, or decide outcomes. Those belong
// to the flow functions in internal/flows.
//
// # What this package must NOT do
//
//   - Import goSession or any sibling internal package.
//   - Store plaintext OTPs.
package stores
