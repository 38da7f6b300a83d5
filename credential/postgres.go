package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal/dbx"
	"github.com/google/uuid"
)

// PostgresStore implements account and credential persistence over database/sql.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore binds a store to db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// FindByEmail returns the credential for (provider, email) or ErrNotFound.
func (s *PostgresStore) FindByEmail(ctx context.Context, provider Provider, email string) (*Credential, error) {
	query := `
		SELECT id, account_id, provider, email, password_hash, is_verified, created_at
		FROM credentials
		WHERE provider = $1 AND email = $2
	`
	var (
		c    Credential
		hash sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, string(provider), email).Scan(
		&c.ID, &c.AccountID, &c.Provider, &c.Email, &hash, &c.Verified, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	c.PasswordHash = hash.String
	return &c, nil
}

// EmailInUse reports whether any provider already holds a credential for email.
func (s *PostgresStore) EmailInUse(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM credentials WHERE email = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// UpdatePasswordHash replaces the stored hash of credentialID.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, credentialID, passwordHash string) error {
	query := `UPDATE credentials SET password_hash = $1 WHERE id = $2`

	res, err := s.db.ExecContext(ctx, query, passwordHash, credentialID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// MarkVerified flips is_verified for (provider, email). It is idempotent.
func (s *PostgresStore) MarkVerified(ctx context.Context, provider Provider, email string) error {
	query := `UPDATE credentials SET is_verified = TRUE WHERE provider = $1 AND email = $2`

	res, err := s.db.ExecContext(ctx, query, string(provider), email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// CreateAccountWithEmail inserts an account and its verified EMAIL credential
// in one transaction. A concurrent signup for the same email loses with
// ErrDuplicate and leaves no account row behind.
func (s *PostgresStore) CreateAccountWithEmail(ctx context.Context, username, email, passwordHash string) (*Account, *Credential, error) {
	now := s.now().UTC()
	account := &Account{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
	}
	cred := &Credential{
		ID:           uuid.NewString(),
		AccountID:    account.ID,
		Provider:     ProviderEmail,
		Email:        email,
		PasswordHash: passwordHash,
		Verified:     true,
		CreatedAt:    now,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (id, username, created_at) VALUES ($1, $2, $3)`,
			account.ID, account.Username, account.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO credentials (id, account_id, provider, email, password_hash, is_verified, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			cred.ID, cred.AccountID, string(cred.Provider), cred.Email, cred.PasswordHash, cred.Verified, cred.CreatedAt,
		)
		return err
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, nil, ErrDuplicate
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}

	return account, cred, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
