// Package memstore holds in-process credential and refresh token stores with
// the same conflict semantics as the Postgres stores. They back tests and the
// daemon's development mode.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/google/uuid"
)

// Credentials is an in-memory credential store keyed by (provider, email).
type Credentials struct {
	mu        sync.Mutex
	accounts  map[string]*credential.Account
	creds     map[string]*credential.Credential
	updated   map[string]string
	failWrite error
}

func NewCredentials() *Credentials {
	return &Credentials{
		accounts: map[string]*credential.Account{},
		creds:    map[string]*credential.Credential{},
		updated:  map[string]string{},
	}
}

func credKey(provider credential.Provider, email string) string {
	return string(provider) + "|" + email
}

// Put inserts or replaces c.
func (m *Credentials) Put(c *credential.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.creds[credKey(c.Provider, c.Email)] = &cp
}

// Updated returns the last hash written by UpdatePasswordHash for id.
func (m *Credentials) Updated(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updated[id]
}

// FailWrites makes every later write return err. A nil err clears it.
func (m *Credentials) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = err
}

// Count returns the number of stored credentials.
func (m *Credentials) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.creds)
}

func (m *Credentials) FindByEmail(_ context.Context, provider credential.Provider, email string) (*credential.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[credKey(provider, email)]
	if !ok {
		return nil, credential.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Credentials) EmailInUse(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.creds {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *Credentials) UpdatePasswordHash(_ context.Context, credentialID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	for _, c := range m.creds {
		if c.ID == credentialID {
			c.PasswordHash = passwordHash
			m.updated[credentialID] = passwordHash
			return nil
		}
	}
	return credential.ErrNotFound
}

func (m *Credentials) MarkVerified(_ context.Context, provider credential.Provider, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	c, ok := m.creds[credKey(provider, email)]
	if !ok {
		return credential.ErrNotFound
	}
	c.Verified = true
	return nil
}

func (m *Credentials) CreateAccountWithEmail(_ context.Context, username, email, passwordHash string) (*credential.Account, *credential.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return nil, nil, m.failWrite
	}
	key := credKey(credential.ProviderEmail, email)
	if _, ok := m.creds[key]; ok {
		return nil, nil, credential.ErrDuplicate
	}

	now := time.Now().UTC()
	account := &credential.Account{ID: uuid.NewString(), Username: username, CreatedAt: now}
	cred := &credential.Credential{
		ID:           uuid.NewString(),
		AccountID:    account.ID,
		Provider:     credential.ProviderEmail,
		Email:        email,
		PasswordHash: passwordHash,
		Verified:     true,
		CreatedAt:    now,
	}
	m.accounts[account.ID] = account
	m.creds[key] = cred

	acp, ccp := *account, *cred
	return &acp, &ccp, nil
}

// RefreshTokens is an in-memory refresh token store. Like the Postgres store
// it enforces a unique token hash, one active row per (account, session) and
// a conditional rotation that only succeeds on an active prior.
type RefreshTokens struct {
	mu   sync.Mutex
	rows map[string]*refresh.Record
}

func NewRefreshTokens() *RefreshTokens {
	return &RefreshTokens{rows: map[string]*refresh.Record{}}
}

func (m *RefreshTokens) insertLocked(rec *refresh.Record) error {
	for _, r := range m.rows {
		if r.TokenHash == rec.TokenHash {
			return refresh.ErrDuplicate
		}
		if r.AccountID == rec.AccountID && r.SessionID == rec.SessionID && r.State() == refresh.StateActive {
			return refresh.ErrDuplicate
		}
	}
	cp := *rec
	m.rows[rec.ID] = &cp
	return nil
}

func (m *RefreshTokens) Insert(_ context.Context, rec *refresh.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(rec)
}

func (m *RefreshTokens) FindByHash(_ context.Context, tokenHash string) (*refresh.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TokenHash == tokenHash {
			cp := *r
			return &cp, nil
		}
	}
	return nil, refresh.ErrNotFound
}

func (m *RefreshTokens) Rotate(_ context.Context, prior, next *refresh.Record, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[prior.ID]
	if !ok || row.RotatedAt != nil || row.RevokedAt != nil {
		return refresh.ErrRotationConflict
	}
	t := now
	row.RotatedAt = &t
	if err := m.insertLocked(next); err != nil {
		row.RotatedAt = nil
		return err
	}
	prior.RotatedAt = &t
	return nil
}

func (m *RefreshTokens) RevokeAll(_ context.Context, accountID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if r.AccountID == accountID && r.RevokedAt == nil {
			t := now
			r.RevokedAt = &t
			n++
		}
	}
	return n, nil
}

func (m *RefreshTokens) RevokeOne(_ context.Context, rec *refresh.Record, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[rec.ID]
	if ok && row.RevokedAt == nil {
		t := now
		row.RevokedAt = &t
		if rec.RevokedAt == nil {
			rec.RevokedAt = &t
		}
	}
	return nil
}

// States counts accountID's rows by state.
func (m *RefreshTokens) States(accountID string) map[refresh.State]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[refresh.State]int{}
	for _, r := range m.rows {
		if r.AccountID == accountID {
			out[r.State()]++
		}
	}
	return out
}
