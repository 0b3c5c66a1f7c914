package pg

import (
	"context"
	"database/sql"
	"errors"

	"praxis.legal/internal/authz"
)

var _ authz.Store = (*Store)(nil)

func (s *Store) FindUser(ctx context.Context, id string) (authz.User, error) {
	return s.userRow(ctx, `
		select id, email, role, coalesce(account_id, ''), is_active, created_at, updated_at
		from users
		where id = $1
	`, id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (authz.User, error) {
	return s.userRow(ctx, `
		select id, email, role, coalesce(account_id, ''), is_active, created_at, updated_at
		from users
		where email = $1
	`, email)
}

func (s *Store) userRow(ctx context.Context, query, arg string) (authz.User, error) {
	if s.db == nil {
		return authz.User{}, errors.New("database connection unavailable")
	}
	var (
		user authz.User
		role string
	)
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &role, &user.AccountID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return authz.User{}, authz.ErrNotFound
	}
	if err != nil {
		return authz.User{}, err
	}
	user.Role, err = authz.ParseRole(role)
	if err != nil {
		return authz.User{}, err
	}
	return user, nil
}

func (s *Store) FindAccount(ctx context.Context, id string) (authz.Account, error) {
	if s.db == nil {
		return authz.Account{}, errors.New("database connection unavailable")
	}
	var account authz.Account
	err := s.db.QueryRowContext(ctx, `
		select id, name, is_active, max_users, max_products, created_at, updated_at
		from accounts
		where id = $1
	`, id).Scan(&account.ID, &account.Name, &account.IsActive, &account.MaxUsers, &account.MaxProducts, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return authz.Account{}, authz.ErrNotFound
	}
	if err != nil {
		return authz.Account{}, err
	}
	return account, nil
}

// CountUsers counts live (active) users of the account via the account_id
// index; disabled users do not consume quota.
func (s *Store) CountUsers(ctx context.Context, accountID string) (int, error) {
	return s.countRows(ctx, `
		select count(*) from users where account_id = $1 and is_active
	`, accountID)
}

func (s *Store) CountProducts(ctx context.Context, accountID string) (int, error) {
	return s.countRows(ctx, `
		select count(*) from products where account_id = $1
	`, accountID)
}

func (s *Store) countRows(ctx context.Context, query, accountID string) (int, error) {
	if s.db == nil {
		return 0, errors.New("database connection unavailable")
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, accountID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// InsertUser persists a provisioned user. Unique email violations surface as
// authz.ErrConflict.
func (s *Store) InsertUser(ctx context.Context, u authz.User, passwordHash string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, email, role, account_id, password_hash, is_active, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Email, string(u.Role), nullIfEmpty(u.AccountID), passwordHash, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return authz.ErrConflict
			case pgErrForeignKeyViolation:
				return authz.ErrNotFound
			}
		}
		return err
	}
	return nil
}

// FindPasswordHash returns the stored hash for an active user. Disabled
// accounts cannot log in.
func (s *Store) FindPasswordHash(ctx context.Context, email string) (string, error) {
	if s.db == nil {
		return "", errors.New("database connection unavailable")
	}
	var hash string
	err := s.db.QueryRowContext(ctx, `
		select password_hash from users where email = $1 and is_active
	`, email).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", authz.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}
