package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/metamasonz/backoffice/internal/admin/domain"
	"github.com/metamasonz/backoffice/internal/admin/store"
)

type submissionsRepo struct {
	db execer
}

const submissionColumns = `id, project_name, description, email, x_handle, telegram,
	discord, founder_tg, code, status, status_locked, approved_by, rejected_by,
	submitted_at, created_at, updated_at`

func scanSubmission(row interface{ Scan(...any) error }) (domain.Submission, error) {
	var s domain.Submission
	var status string
	var approvedBy, rejectedBy sql.NullString
	err := row.Scan(
		&s.ID, &s.ProjectName, &s.Description, &s.Email, &s.Socials.X, &s.Socials.Telegram,
		&s.Socials.Discord, &s.Socials.FounderTg, &s.Code, &status, &s.StatusLocked,
		&approvedBy, &rejectedBy, &s.SubmittedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Submission{}, err
	}
	s.Status = domain.SubmissionStatus(status)
	s.ApprovedBy = mapNullString(approvedBy)
	s.RejectedBy = mapNullString(rejectedBy)
	return s, nil
}

func (r *submissionsRepo) Create(ctx context.Context, s domain.Submission) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO submissions (id, project_name, description, email, x_handle, telegram,
			discord, founder_tg, code, status, status_locked, approved_by, rejected_by,
			submitted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ProjectName, s.Description, s.Email, s.Socials.X, s.Socials.Telegram,
		s.Socials.Discord, s.Socials.FounderTg, s.Code, string(s.Status), s.StatusLocked,
		mapStringNull(s.ApprovedBy), mapStringNull(s.RejectedBy), s.SubmittedAt, now, now,
	)
	return mapConstraint(err)
}

func (r *submissionsRepo) GetByID(ctx context.Context, id string) (domain.Submission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	s, err := scanSubmission(row)
	if err != nil {
		return domain.Submission{}, mapNotFound(err)
	}

	history, err := r.listHistory(ctx, id)
	if err != nil {
		return domain.Submission{}, err
	}
	s.History = history
	return s, nil
}

func (r *submissionsRepo) listHistory(ctx context.Context, submissionID string) ([]domain.StatusChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, submission_id, status, changed_by, changed_at
		FROM submission_history
		WHERE submission_id = ?
		ORDER BY changed_at ASC, id ASC`,
		submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var h domain.StatusChange
		var status string
		if err := rows.Scan(&h.ID, &h.SubmissionID, &status, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, err
		}
		h.Status = domain.SubmissionStatus(status)
		out = append(out, h)
	}
	return out, rows.Err()
}

// maxListLimit caps listings regardless of what the caller asks for.
const maxListLimit = 100

func (r *submissionsRepo) List(ctx context.Context, f store.SubmissionFilter) ([]domain.Submission, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	order := "DESC"
	if f.Oldest {
		order = "ASC"
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions`
	args := []any{}
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY submitted_at ` + order + ` LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *submissionsRepo) Search(ctx context.Context, term string, limit int) ([]domain.Submission, error) {
	if limit <= 0 {
		limit = 10
	}
	like := "%" + term + "%"

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE code = UPPER(?)
		   OR project_name LIKE ? COLLATE NOCASE
		   OR email LIKE ? COLLATE NOCASE
		   OR founder_tg LIKE ? COLLATE NOCASE
		LIMIT ?`,
		term, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *submissionsRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.SubmissionStatus,
	locked bool,
	approvedBy, rejectedBy string,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE submissions
		SET status = ?, status_locked = ?,
			approved_by = COALESCE(?, approved_by),
			rejected_by = COALESCE(?, rejected_by),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status_locked = 0`,
		string(status), locked, mapStringNull(approvedBy), mapStringNull(rejectedBy), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *submissionsRepo) AppendHistory(ctx context.Context, entry domain.StatusChange) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO submission_history (id, submission_id, status, changed_by, changed_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.SubmissionID, string(entry.Status), entry.ChangedBy, entry.ChangedAt,
	)
	return err
}

func (r *submissionsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
