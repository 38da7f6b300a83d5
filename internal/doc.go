// Package internal contains helpers private to goSession:
// secure random tokens, refresh-token digests and numeric OTP generation.
//
// # Sub-packages
//
//   - audit - async event dispatch (Dispatcher + Sink implementations)
//   - autherr - tagged error kinds shared by every layer
//   - dbx - database/sql transaction helpers and constraint detection
//   - flows - flow orchestrators for every Engine operation
//   - logging - slog levels and handler helpers
//   - memstore - in-memory credential and refresh token stores
//   - metrics - lock-free counters and latency histograms
//   - migrations - embedded goose migrations for the relational schema
//   - rate - Redis-backed attempt counter and cooldown gate
//   - stores - Redis-backed pending verification records
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
