package autherr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	wrapped := Wrap(ErrTooManyAttempts, errors.New("counter=6"))
	if !errors.Is(wrapped, ErrTooManyAttempts) {
		t.Fatal("expected wrapped error to match sentinel")
	}
	if errors.Is(wrapped, ErrTooManyRequests) {
		t.Fatal("expected distinct codes not to match")
	}

	outer := fmt.Errorf("begin signup: %w", wrapped)
	if !errors.Is(outer, ErrTooManyAttempts) {
		t.Fatal("expected fmt-wrapped error to match sentinel")
	}
}

func TestWrapDoesNotMutateSentinel(t *testing.T) {
	_ = Wrap(ErrDeliveryFailed, errors.New("502"))
	if ErrDeliveryFailed.Err != nil {
		t.Fatal("sentinel must stay unwrapped")
	}
}

func TestServerErrorsHideMessage(t *testing.T) {
	err := Server(CodeServerError, errors.New("pq: connection refused"))

	var tagged *Error
	if !errors.As(err, &tagged) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if tagged.Kind != KindServer {
		t.Fatalf("kind = %v, want server", tagged.Kind)
	}
	if tagged.PublicMessage() != genericServerMessage {
		t.Fatalf("server message leaked: %q", tagged.PublicMessage())
	}
	if ErrInvalidCredentials.PublicMessage() != ErrInvalidCredentials.Message {
		t.Fatal("auth errors should expose their message")
	}
}

func TestServerKeepsTaggedErrors(t *testing.T) {
	err := Server(CodeServerError, ErrEmailAlreadyExists)
	if !errors.Is(err, ErrEmailAlreadyExists) || KindOf(err) != KindDomain {
		t.Fatalf("expected tagged error to pass through, got %v", err)
	}
	if Server(CodeServerError, nil) != nil {
		t.Fatal("nil cause must stay nil")
	}
}

func TestUnavailableIsRetriable(t *testing.T) {
	err := Unavailable("redis", errors.New("i/o timeout"))
	var tagged *Error
	if !errors.As(err, &tagged) || !tagged.Retriable {
		t.Fatalf("expected retriable store error, got %v", err)
	}
	if Code(err) != CodeStoreUnavailable {
		t.Fatalf("code = %s", Code(err))
	}
}

func TestKindOfUntagged(t *testing.T) {
	if KindOf(errors.New("boom")) != KindServer {
		t.Fatal("untagged errors classify as server")
	}
	if Code(errors.New("boom")) != CodeServerError {
		t.Fatal("untagged errors use generic server code")
	}
}
