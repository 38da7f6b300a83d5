package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal/dbx"
)

// PostgresStore implements refresh-token persistence over database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore binds a store to db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertQuery = `
	INSERT INTO refresh_tokens (id, account_id, session_id, token_hash, user_agent, ip_address, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// Insert stores a new Active record.
func (s *PostgresStore) Insert(ctx context.Context, rec *Record) error {
	if err := insert(ctx, s.db, rec); err != nil {
		if dbx.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByHash returns the record whose token_hash equals tokenHash.
func (s *PostgresStore) FindByHash(ctx context.Context, tokenHash string) (*Record, error) {
	query := `
		SELECT id, account_id, session_id, token_hash, user_agent, ip_address,
		       created_at, expires_at, rotated_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	var (
		rec              Record
		ip               sql.NullString
		rotated, revoked sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&rec.ID, &rec.AccountID, &rec.SessionID, &rec.TokenHash, &rec.UserAgent, &ip,
		&rec.CreatedAt, &rec.ExpiresAt, &rotated, &revoked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.IPAddress = ip.String
	if rotated.Valid {
		t := rotated.Time
		rec.RotatedAt = &t
	}
	if revoked.Valid {
		t := revoked.Time
		rec.RevokedAt = &t
	}
	return &rec, nil
}

// Rotate stamps prior.rotated_at and inserts next in one transaction.
//
// The stamp only applies while prior is still Active. If another request
// rotated or revoked it first, Rotate returns ErrRotationConflict and nothing
// is written. prior is updated in memory only after the commit succeeds, so on
// any error it still mirrors the stored row.
func (s *PostgresStore) Rotate(ctx context.Context, prior, next *Record, now time.Time) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE refresh_tokens SET rotated_at = $2
			 WHERE id = $1 AND rotated_at IS NULL AND revoked_at IS NULL`,
			prior.ID, now,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrRotationConflict
		}
		return insert(ctx, tx, next)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRotationConflict):
			return ErrRotationConflict
		case dbx.IsUniqueViolation(err):
			return ErrDuplicate
		default:
			return fmt.Errorf("db error: %w", err)
		}
	}

	stamped := now
	prior.RotatedAt = &stamped
	return nil
}

// RevokeAll revokes every non-revoked record of accountID in one statement and
// returns how many rows changed.
func (s *PostgresStore) RevokeAll(ctx context.Context, accountID string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2 WHERE account_id = $1 AND revoked_at IS NULL`,
		accountID, now,
	)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// RevokeOne revokes rec. Revoking an already revoked record is a no-op.
func (s *PostgresStore) RevokeOne(ctx context.Context, rec *Record, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		rec.ID, now,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 && rec.RevokedAt == nil {
		stamped := now
		rec.RevokedAt = &stamped
	}
	return nil
}

func insert(ctx context.Context, db dbx.DBTX, rec *Record) error {
	var ip sql.NullString
	if rec.IPAddress != "" {
		ip = sql.NullString{String: rec.IPAddress, Valid: true}
	}
	_, err := db.ExecContext(ctx, insertQuery,
		rec.ID, rec.AccountID, rec.SessionID, rec.TokenHash, rec.UserAgent, ip, rec.CreatedAt, rec.ExpiresAt,
	)
	return err
}
