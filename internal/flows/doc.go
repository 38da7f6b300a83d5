// Package flows contains the orchestration behind every Engine operation.
//
// Each flow function (RunBeginSignup, RunConfirm, RunRotate, ...) takes a
// typed dependency struct and touches state only through it. Stores, the
// rate limiter, the hasher and the token signer are owned by the Engine.
//
// Flows return *autherr.Error values; store-level sentinels never cross this
// boundary.
//
// This package must not import the root goSession package.
package flows
