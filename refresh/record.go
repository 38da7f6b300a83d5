package refresh

import (
	"errors"
	"time"
)

// State is the lifecycle position of a refresh-token record.
type State uint8

const (
	StateActive State = iota
	StateRotated
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateRotated:
		return "rotated"
	case StateRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound         = errors.New("refresh token not found")
	ErrDuplicate        = errors.New("refresh token already exists")
	ErrRotationConflict = errors.New("refresh token is no longer active")
)

// Record is one row of the refresh_tokens table.
type Record struct {
	ID        string
	AccountID string
	SessionID string
	TokenHash string
	UserAgent string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
	RotatedAt *time.Time
	RevokedAt *time.Time
}

// State derives the lifecycle state from the timestamps. Revocation wins over
// rotation because it is terminal.
func (r *Record) State() State {
	switch {
	case r.RevokedAt != nil:
		return StateRevoked
	case r.RotatedAt != nil:
		return StateRotated
	default:
		return StateActive
	}
}

// Expired reports whether the record is past expires_at at now.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
