// Package refresh persists refresh-token records in Postgres.
//
// # Record states
//
// A record is Active while rotated_at and revoked_at are both null, Rotated
// once a successor in the same session lineage has been issued, and Revoked
// (terminal) once revoked_at is set. Raw tokens are never stored; rows are
// looked up by the SHA-256 digest of the raw value.
//
// # Architecture boundaries
//
// This package owns the SQL and the transactional guarantees: rotation stamps
// the prior row and inserts its successor in one transaction, and the stamp is
// conditional so exactly one concurrent rotation of a record can win. Reuse
// policy (what to do when a Rotated record is presented) lives in
// internal/flows.
//
// # What this package must NOT do
//
//   - Generate or hash raw tokens.
//   - Import goSession, jwt or internal/flows.
package refresh
