package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"praxis.legal/internal/authz"
	"praxis.legal/internal/practice"
)

var _ practice.Store = (*Store)(nil)

// --- processes ---

func (s *Store) InsertProcess(ctx context.Context, p practice.Process) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into processes (id, account_id, client_id, tribunal_id, number, subject, status, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.AccountID, p.ClientID, nullIfEmpty(p.TribunalID), p.Number, p.Subject, p.Status, p.CreatedAt, p.UpdatedAt)
	return insertErr(err)
}

func (s *Store) FindProcess(ctx context.Context, id string) (practice.Process, error) {
	if s.db == nil {
		return practice.Process{}, errors.New("database connection unavailable")
	}
	var p practice.Process
	err := s.db.QueryRowContext(ctx, `
		select id, account_id, client_id, coalesce(tribunal_id, ''), number, subject, status, created_at, updated_at
		from processes
		where id = $1
	`, id).Scan(&p.ID, &p.AccountID, &p.ClientID, &p.TribunalID, &p.Number, &p.Subject, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return practice.Process{}, authz.ErrNotFound
	}
	if err != nil {
		return practice.Process{}, err
	}
	return p, nil
}

func (s *Store) ListProcesses(ctx context.Context, accountID string) ([]practice.Process, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, account_id, client_id, coalesce(tribunal_id, ''), number, subject, status, created_at, updated_at
		from processes
		where account_id = $1
		order by created_at desc
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []practice.Process
	for rows.Next() {
		var p practice.Process
		if err := rows.Scan(&p.ID, &p.AccountID, &p.ClientID, &p.TribunalID, &p.Number, &p.Subject, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateProcess(ctx context.Context, id string, upd practice.ProcessUpdate) (practice.Process, error) {
	if s.db == nil {
		return practice.Process{}, errors.New("database connection unavailable")
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Subject != nil {
		sets = append(sets, fmt.Sprintf("subject = $%d", idx))
		args = append(args, *upd.Subject)
		idx++
	}
	if upd.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", idx))
		args = append(args, *upd.Status)
		idx++
	}
	if upd.TribunalID != nil {
		sets = append(sets, fmt.Sprintf("tribunal_id = $%d", idx))
		args = append(args, nullIfEmpty(*upd.TribunalID))
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update processes set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return practice.Process{}, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return practice.Process{}, err
		}
		if aff == 0 {
			return practice.Process{}, authz.ErrNotFound
		}
	}
	return s.FindProcess(ctx, id)
}

func (s *Store) DeleteProcess(ctx context.Context, id string) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `delete from processes where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return authz.ErrNotFound
	}
	return nil
}

// --- clients ---

func (s *Store) InsertClient(ctx context.Context, c practice.Client) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into clients (id, account_id, name, email, phone, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.AccountID, c.Name, nullIfEmpty(c.Email), nullIfEmpty(c.Phone), c.CreatedAt, c.UpdatedAt)
	return insertErr(err)
}

func (s *Store) FindClient(ctx context.Context, id string) (practice.Client, error) {
	if s.db == nil {
		return practice.Client{}, errors.New("database connection unavailable")
	}
	var c practice.Client
	err := s.db.QueryRowContext(ctx, `
		select id, account_id, name, coalesce(email, ''), coalesce(phone, ''), created_at, updated_at
		from clients
		where id = $1
	`, id).Scan(&c.ID, &c.AccountID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return practice.Client{}, authz.ErrNotFound
	}
	if err != nil {
		return practice.Client{}, err
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context, accountID string) ([]practice.Client, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, account_id, name, coalesce(email, ''), coalesce(phone, ''), created_at, updated_at
		from clients
		where account_id = $1
		order by name
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []practice.Client
	for rows.Next() {
		var c practice.Client
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- deadlines ---

func (s *Store) InsertDeadline(ctx context.Context, d practice.Deadline) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into deadlines (id, account_id, process_id, title, due_at, done, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.AccountID, d.ProcessID, d.Title, d.DueAt, d.Done, d.CreatedAt, d.UpdatedAt)
	return insertErr(err)
}

func (s *Store) FindDeadline(ctx context.Context, id string) (practice.Deadline, error) {
	if s.db == nil {
		return practice.Deadline{}, errors.New("database connection unavailable")
	}
	var d practice.Deadline
	err := s.db.QueryRowContext(ctx, `
		select id, account_id, process_id, title, due_at, done, created_at, updated_at
		from deadlines
		where id = $1
	`, id).Scan(&d.ID, &d.AccountID, &d.ProcessID, &d.Title, &d.DueAt, &d.Done, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return practice.Deadline{}, authz.ErrNotFound
	}
	if err != nil {
		return practice.Deadline{}, err
	}
	return d, nil
}

func (s *Store) ListDeadlines(ctx context.Context, accountID string) ([]practice.Deadline, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, account_id, process_id, title, due_at, done, created_at, updated_at
		from deadlines
		where account_id = $1
		order by due_at
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []practice.Deadline
	for rows.Next() {
		var d practice.Deadline
		if err := rows.Scan(&d.ID, &d.AccountID, &d.ProcessID, &d.Title, &d.DueAt, &d.Done, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) MarkDeadlineDone(ctx context.Context, id string) (practice.Deadline, error) {
	if s.db == nil {
		return practice.Deadline{}, errors.New("database connection unavailable")
	}
	res, err := s.db.ExecContext(ctx, `
		update deadlines set done = true, updated_at = now() where id = $1
	`, id)
	if err != nil {
		return practice.Deadline{}, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return practice.Deadline{}, err
	}
	if aff == 0 {
		return practice.Deadline{}, authz.ErrNotFound
	}
	return s.FindDeadline(ctx, id)
}

// --- products ---

func (s *Store) InsertProduct(ctx context.Context, p practice.Product) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into products (id, account_id, name, description, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.AccountID, p.Name, nullIfEmpty(p.Description), p.CreatedAt, p.UpdatedAt)
	return insertErr(err)
}

func (s *Store) ListProducts(ctx context.Context, accountID string) ([]practice.Product, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, account_id, name, coalesce(description, ''), created_at, updated_at
		from products
		where account_id = $1
		order by name
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []practice.Product
	for rows.Next() {
		var p practice.Product
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- tribunals ---

func (s *Store) InsertTribunal(ctx context.Context, t practice.Tribunal) error {
	if s.db == nil {
		return errors.New("database connection unavailable")
	}
	_, err := s.db.ExecContext(ctx, `
		insert into tribunals (id, name, jurisdiction, region, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.Name, t.Jurisdiction, nullIfEmpty(t.Region), t.CreatedAt, t.UpdatedAt)
	return insertErr(err)
}

func (s *Store) FindTribunal(ctx context.Context, id string) (practice.Tribunal, error) {
	if s.db == nil {
		return practice.Tribunal{}, errors.New("database connection unavailable")
	}
	var t practice.Tribunal
	err := s.db.QueryRowContext(ctx, `
		select id, name, jurisdiction, coalesce(region, ''), created_at, updated_at
		from tribunals
		where id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Jurisdiction, &t.Region, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return practice.Tribunal{}, authz.ErrNotFound
	}
	if err != nil {
		return practice.Tribunal{}, err
	}
	return t, nil
}

func (s *Store) ListTribunals(ctx context.Context) ([]practice.Tribunal, error) {
	if s.db == nil {
		return nil, errors.New("database connection unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, name, jurisdiction, coalesce(region, ''), created_at, updated_at
		from tribunals
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []practice.Tribunal
	for rows.Next() {
		var t practice.Tribunal
		if err := rows.Scan(&t.ID, &t.Name, &t.Jurisdiction, &t.Region, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func insertErr(err error) error {
	if err == nil {
		return nil
	}
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
