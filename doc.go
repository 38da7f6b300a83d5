// Package goSession is a session and credential-verification engine: email
// signup and signin confirmed by a one-time code, JWT access tokens, and
// rotating opaque refresh tokens with stolen-token reuse detection.
//
// Engine methods are safe for concurrent use after [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config]
// and value types ([TokenPair], [AccessClaims], [MetricsSnapshot]). Flow
// orchestration, pending verification records, rate limiting and audit
// dispatch live under internal/ and are never exported.
//
// Durable state (accounts, credentials, refresh tokens) lives in Postgres
// through the [credential] and [refresh] packages. Ephemeral state (pending
// verifications, rate limit counters) lives in Redis.
//
// # Consistency
//
// Every invariant is enforced by a store-native atomic primitive: unique
// constraints and a conditional UPDATE in Postgres, Lua scripts and SET NX in
// Redis. The engine keeps no shared mutable state besides metrics counters
// and the audit queue.
package goSession
