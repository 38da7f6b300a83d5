// Package autherr defines the tagged error type shared by every goSession layer.
//
// Each error carries a Kind (client, domain, auth, server), a stable Code for
// caller branching, whether a retry can succeed, and whether the message is
// safe to show an end user. Sentinels compare by Code, so a wrapped or
// re-messaged instance still matches with errors.Is.
package autherr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind uint8

const (
	// KindClient marks malformed or out-of-policy input.
	KindClient Kind = iota + 1
	// KindDomain marks business-rule violations.
	KindDomain
	// KindAuth marks identity or credential mismatches.
	KindAuth
	// KindServer marks store, transport and configuration failures.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindDomain:
		return "domain"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

const genericServerMessage = "internal server error"

// Error is the tagged error value returned across goSession boundaries.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Retriable bool
	Expose    bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// PublicMessage is the text safe to return to an end user.
func (e *Error) PublicMessage() string {
	if !e.Expose {
		return genericServerMessage
	}
	return e.Message
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	out := *sentinel
	out.Err = cause
	return &out
}

// Server wraps an unclassified failure as a non-exposed server error.
// Errors that already carry a Kind are returned unchanged.
func Server(code string, cause error) error {
	if cause == nil {
		return nil
	}
	var tagged *Error
	if errors.As(cause, &tagged) {
		return cause
	}
	return &Error{Kind: KindServer, Code: code, Message: "server error", Err: cause}
}

// Unavailable wraps a store failure as a retriable server error.
func Unavailable(store string, cause error) error {
	if cause == nil {
		return nil
	}
	var tagged *Error
	if errors.As(cause, &tagged) {
		return cause
	}
	return Wrap(ErrStoreUnavailable, fmt.Errorf("%s: %w", store, cause))
}

// KindOf returns the Kind of err, or KindServer for untagged errors.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindServer
}

// Code returns the Code of err, or the generic server code for untagged errors.
func Code(err error) string {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Code
	}
	return CodeServerError
}

func client(code, msg string) *Error {
	return &Error{Kind: KindClient, Code: code, Message: msg, Expose: true}
}

func domain(code, msg string) *Error {
	return &Error{Kind: KindDomain, Code: code, Message: msg, Expose: true}
}

func auth(code, msg string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: msg, Expose: true}
}

func server(code, msg string, retriable bool) *Error {
	return &Error{Kind: KindServer, Code: code, Message: msg, Retriable: retriable}
}
