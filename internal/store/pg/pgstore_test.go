package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"praxis.legal/internal/authz"
	"praxis.legal/internal/practice"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestFindUserByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select id, email, role").
		WithArgs("admin@firm-a.example").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "account_id", "is_active", "created_at", "updated_at"}).
			AddRow("u1", "admin@firm-a.example", "admin", "acct-a", true, now, now))

	u, err := store.FindUserByEmail(context.Background(), "admin@firm-a.example")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if u.Role != authz.RoleAdmin {
		t.Fatalf("role = %q, want %q", u.Role, authz.RoleAdmin)
	}
	if u.AccountID != "acct-a" {
		t.Fatalf("account id = %q, want acct-a", u.AccountID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindUserByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, email, role").
		WithArgs("ghost@nowhere.example").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "account_id", "is_active", "created_at", "updated_at"}))

	if _, err := store.FindUserByEmail(context.Background(), "ghost@nowhere.example"); !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCountUsersOnlyActive(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select count\\(\\*\\) from users where account_id = \\$1 and is_active").
		WithArgs("acct-a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := store.CountUsers(context.Background(), "acct-a")
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertUserDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into users").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	u := authz.User{ID: "u9", Email: "dup@firm-a.example", Role: authz.RoleMember, AccountID: "acct-a", IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := store.InsertUser(context.Background(), u, "hash"); !errors.Is(err, authz.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestFindProcessNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, account_id, client_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "client_id", "tribunal_id", "number", "subject", "status", "created_at", "updated_at"}))

	if _, err := store.FindProcess(context.Background(), "missing"); !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateProcessPartialSet(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	subject := "amended subject"

	mock.ExpectExec("update processes set subject = \\$1, updated_at = now\\(\\) where id = \\$2").
		WithArgs(subject, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select id, account_id, client_id").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "client_id", "tribunal_id", "number", "subject", "status", "created_at", "updated_at"}).
			AddRow("p1", "acct-a", "c1", "", "0001/2026", subject, practice.ProcessStatusActive, now, now))

	p, err := store.UpdateProcess(context.Background(), "p1", practice.ProcessUpdate{Subject: &subject})
	if err != nil {
		t.Fatalf("UpdateProcess: %v", err)
	}
	if p.Subject != subject {
		t.Fatalf("subject = %q, want %q", p.Subject, subject)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteProcessMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from processes where id").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteProcess(context.Background(), "missing"); !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendActivityMetadata(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into activity_log").
		WithArgs("a1", "process.create", "process", "p1", "u1", "admin@firm-a.example", "admin",
			sqlmock.AnyArg(), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := authz.ActivityEntry{
		ID:         "a1",
		Action:     "process.create",
		EntityType: "process",
		EntityID:   "p1",
		ActorID:    "u1",
		ActorEmail: "admin@firm-a.example",
		ActorRole:  authz.RoleAdmin,
		AccountID:  "acct-a",
		Metadata:   map[string]string{"number": "0001/2026"},
		CreatedAt:  now,
	}
	if err := store.AppendActivity(context.Background(), entry); err != nil {
		t.Fatalf("AppendActivity: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
