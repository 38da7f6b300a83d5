// Package credential persists accounts and their login credentials in Postgres.
//
// A credential is unique per (provider, email). Only EMAIL credentials carry a
// password hash; GOOGLE and GITHUB are modeled as provider tags only.
package credential

import (
	"errors"
	"time"
)

// Provider tags the identity source of a credential.
type Provider string

const (
	ProviderEmail  Provider = "EMAIL"
	ProviderGoogle Provider = "GOOGLE"
	ProviderGitHub Provider = "GITHUB"
)

// Valid reports whether p is a known provider tag.
func (p Provider) Valid() bool {
	switch p {
	case ProviderEmail, ProviderGoogle, ProviderGitHub:
		return true
	}
	return false
}

var (
	ErrNotFound  = errors.New("credential not found")
	ErrDuplicate = errors.New("credential already exists")
)

// Account owns credentials and refresh tokens; deleting it cascades to both.
type Account struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// Credential is a login identity of an account.
type Credential struct {
	ID           string
	AccountID    string
	Provider     Provider
	Email        string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}
