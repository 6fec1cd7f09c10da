package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
)

type invitesRepo struct {
	db execer
}

const inviteColumns = `i.id, i.code, i.email, i.role, i.created_by, i.expires_at,
	i.status, i.used_at, i.used_by, i.created_at, i.updated_at`

func scanInvite(row interface{ Scan(...any) error }) (domain.Invite, error) {
	var inv domain.Invite
	var role, status string
	var createdBy, usedBy sql.NullString
	var usedAt sql.NullTime
	err := row.Scan(
		&inv.ID, &inv.Code, &inv.Email, &role, &createdBy, &inv.ExpiresAt,
		&status, &usedAt, &usedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invite{}, err
	}
	inv.Role = domain.Role(role)
	inv.Status = domain.InviteStatus(status)
	inv.CreatedBy = mapNullString(createdBy)
	inv.UsedBy = mapNullString(usedBy)
	inv.UsedAt = mapNullTimePtr(usedAt)
	return inv, nil
}

func (r *invitesRepo) Create(ctx context.Context, inv domain.Invite) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invites (id, code, email, role, created_by, expires_at, status, used_at, used_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Code, inv.Email, string(inv.Role), mapStringNull(inv.CreatedBy),
		inv.ExpiresAt, string(inv.Status), mapOptionalTime(inv.UsedAt), mapStringNull(inv.UsedBy), now, now,
	)
	return mapConstraint(err)
}

func (r *invitesRepo) GetByID(ctx context.Context, id string) (domain.Invite, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites i WHERE i.id = ?`, id)
	inv, err := scanInvite(row)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitesRepo) GetByCode(ctx context.Context, code string) (domain.Invite, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites i WHERE i.code = ?`, code)
	inv, err := scanInvite(row)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitesRepo) GetActiveByEmail(ctx context.Context, email string) (domain.Invite, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+inviteColumns+` FROM invites i
		WHERE i.email = ? AND i.status IN ('pending', 'sent')`, email)
	inv, err := scanInvite(row)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitesRepo) List(ctx context.Context) ([]domain.Invite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+inviteColumns+`,
			COALESCE(c.name, ''), COALESCE(c.email, ''), COALESCE(u.name, '')
		FROM invites i
		LEFT JOIN accounts c ON c.id = i.created_by
		LEFT JOIN accounts u ON u.id = i.used_by
		ORDER BY i.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invite
	for rows.Next() {
		var inv domain.Invite
		var role, status string
		var createdBy, usedBy sql.NullString
		var usedAt sql.NullTime
		err := rows.Scan(
			&inv.ID, &inv.Code, &inv.Email, &role, &createdBy, &inv.ExpiresAt,
			&status, &usedAt, &usedBy, &inv.CreatedAt, &inv.UpdatedAt,
			&inv.CreatorName, &inv.CreatorMail, &inv.RedeemerName,
		)
		if err != nil {
			return nil, err
		}
		inv.Role = domain.Role(role)
		inv.Status = domain.InviteStatus(status)
		inv.CreatedBy = mapNullString(createdBy)
		inv.UsedBy = mapNullString(usedBy)
		inv.UsedAt = mapNullTimePtr(usedAt)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitesRepo) UpdateStatus(ctx context.Context, inviteID string, status domain.InviteStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invites SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), inviteID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *invitesRepo) Extend(ctx context.Context, inviteID string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invites SET expires_at = ?, status = 'sent', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		expiresAt, inviteID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *invitesRepo) MarkAccepted(ctx context.Context, inviteID, usedBy string, usedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invites SET status = 'accepted', used_by = ?, used_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'sent'`,
		usedBy, usedAt, inviteID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *invitesRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invites SET status = 'expired', updated_at = CURRENT_TIMESTAMP
		WHERE status IN ('pending', 'sent') AND expires_at < ?`,
		now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
