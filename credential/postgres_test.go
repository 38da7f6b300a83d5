package credential

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newStoreWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	store := NewPostgresStore(db)
	store.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return store, mock, db
}

var credentialColumns = []string{"id", "account_id", "provider", "email", "password_hash", "is_verified", "created_at"}

func TestFindByEmail_Success(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(credentialColumns).
		AddRow("c1", "a1", "EMAIL", "a@x.com", "$argon2id$h", false, created)
	mock.ExpectQuery(`(?s)SELECT\s+id,\s*account_id.*FROM\s+credentials\s+WHERE\s+provider\s*=\s*\$1\s+AND\s+email\s*=\s*\$2`).
		WithArgs("EMAIL", "a@x.com").
		WillReturnRows(rows)

	got, err := store.FindByEmail(context.Background(), ProviderEmail, "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != "c1" || got.AccountID != "a1" || got.Provider != ProviderEmail || got.PasswordHash != "$argon2id$h" || got.Verified {
		t.Fatalf("unexpected credential: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByEmail_NullPasswordHash(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(credentialColumns).
		AddRow("c2", "a2", "GOOGLE", "g@x.com", nil, true, time.Now())
	mock.ExpectQuery(`FROM\s+credentials`).WithArgs("GOOGLE", "g@x.com").WillReturnRows(rows)

	got, err := store.FindByEmail(context.Background(), ProviderGoogle, "g@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.PasswordHash != "" {
		t.Fatalf("expected empty hash for third-party credential, got %q", got.PasswordHash)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+credentials`).WithArgs("EMAIL", "none@x.com").WillReturnError(sql.ErrNoRows)

	if _, err := store.FindByEmail(context.Background(), ProviderEmail, "none@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmailInUse(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	used, err := store.EmailInUse(context.Background(), "a@x.com")
	if err != nil || !used {
		t.Fatalf("EmailInUse = %v, %v; want true, nil", used, err)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+credentials\s+SET\s+password_hash\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2`).
		WithArgs("$argon2id$new", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.UpdatePasswordHash(context.Background(), "c1", "$argon2id$new"); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}

	mock.ExpectExec(`UPDATE\s+credentials`).WithArgs("h", "gone").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.UpdatePasswordHash(context.Background(), "gone", "h"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkVerified(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+credentials\s+SET\s+is_verified\s*=\s*TRUE`).
		WithArgs("EMAIL", "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.MarkVerified(context.Background(), ProviderEmail, "a@x.com"); err != nil {
		t.Fatalf("MarkVerified error: %v", err)
	}
}

func TestCreateAccountWithEmail_Success(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).
		WithArgs(sqlmock.AnyArg(), "alice", store.now()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+credentials`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "EMAIL", "a@x.com", "$argon2id$h", true, store.now()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	account, cred, err := store.CreateAccountWithEmail(context.Background(), "alice", "a@x.com", "$argon2id$h")
	if err != nil {
		t.Fatalf("CreateAccountWithEmail error: %v", err)
	}
	if account.ID == "" || cred.AccountID != account.ID || !cred.Verified || cred.Provider != ProviderEmail {
		t.Fatalf("unexpected rows: %+v %+v", account, cred)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAccountWithEmail_DuplicateRollsBack(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+credentials`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "credentials_provider_email_key"})
	mock.ExpectRollback()

	_, _, err := store.CreateAccountWithEmail(context.Background(), "bob", "a@x.com", "h")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateAccountWithEmail_DBError(t *testing.T) {
	store, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	_, _, err := store.CreateAccountWithEmail(context.Background(), "bob", "b@x.com", "h")
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestProviderValid(t *testing.T) {
	for _, p := range []Provider{ProviderEmail, ProviderGoogle, ProviderGitHub} {
		if !p.Valid() {
			t.Fatalf("%s should be valid", p)
		}
	}
	if Provider("FACEBOOK").Valid() {
		t.Fatal("unknown provider should be invalid")
	}
}
