package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
)

type accountsRepo struct {
	db execer
}

const accountColumns = `id, name, email, password_hash, role, verified, protected,
	login_attempts, lock_until, last_login, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account
	var role string
	var lockUntil, lastLogin sql.NullTime
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.Verified, &a.Protected,
		&a.LoginAttempts, &lockUntil, &lastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	a.Role = domain.Role(role)
	a.LockUntil = mapNullTimePtr(lockUntil)
	a.LastLogin = mapNullTimePtr(lastLogin)
	return a, nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, password_hash, role, verified, protected,
			login_attempts, lock_until, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.PasswordHash, string(a.Role), a.Verified, a.Protected,
		a.LoginAttempts, mapOptionalTime(a.LockUntil), mapOptionalTime(a.LastLogin), now, now,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) ListWithStats(ctx context.Context) ([]domain.AccountStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.email, a.role, a.protected, a.created_at,
			COUNT(s.id) AS approvals
		FROM accounts a
		LEFT JOIN submissions s ON s.approved_by = a.id
		GROUP BY a.id
		ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AccountStats
	for rows.Next() {
		var st domain.AccountStats
		var role string
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &role, &st.Protected, &st.CreatedAt, &st.ApprovalsCount); err != nil {
			return nil, err
		}
		st.Role = domain.Role(role)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *accountsRepo) UpdateRole(ctx context.Context, accountID string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(role), accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *accountsRepo) SetLoginAttempts(ctx context.Context, accountID string, attempts int, lockUntil *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET login_attempts = ?, lock_until = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		attempts, mapOptionalTime(lockUntil), accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *accountsRepo) IncrementLoginAttempts(ctx context.Context, accountID string, now time.Time) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET login_attempts = CASE WHEN lock_until IS NOT NULL AND lock_until <= ? THEN 1 ELSE login_attempts + 1 END,
			lock_until = CASE WHEN lock_until IS NOT NULL AND lock_until <= ? THEN NULL ELSE lock_until END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING login_attempts`,
		now, now, accountID)

	var attempts int
	if err := row.Scan(&attempts); err != nil {
		return 0, mapNotFound(err)
	}
	return attempts, nil
}

func (r *accountsRepo) RecordLogin(ctx context.Context, accountID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET last_login = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at, accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *accountsRepo) Delete(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM accounts`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sqlNoRows()
	}
	return nil
}

func sqlNoRows() error { return mapNotFound(sql.ErrNoRows) }
