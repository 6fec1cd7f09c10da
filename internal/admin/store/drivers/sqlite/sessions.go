package sqlite

import (
	"context"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
)

type sessionsRepo struct {
	db execer
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, account_id, token_hash, ip_address, user_agent, device_id, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AccountID, s.TokenHash, s.IPAddress, s.UserAgent, s.DeviceID, s.CreatedAt, s.ExpiresAt,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetActiveByTokenHash(ctx context.Context, hash string, now time.Time) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, token_hash, ip_address, user_agent, device_id, created_at, expires_at
		FROM sessions
		WHERE token_hash = ? AND expires_at > ?`,
		hash, now)

	var s domain.Session
	err := row.Scan(&s.ID, &s.AccountID, &s.TokenHash, &s.IPAddress, &s.UserAgent, &s.DeviceID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) DeleteByTokenHash(ctx context.Context, accountID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE account_id = ? AND token_hash = ?`,
		accountID, hash)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
