package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klucly/NeonasBot/internal/domain"
)

// Verifications is the authoritative index of outstanding admin-approval
// requests: one row per (cohort, admin, candidate), pointing at the admin's
// notification message.
type Verifications struct{ pool *pgxpool.Pool }

func NewVerifications(p *pgxpool.Pool) *Verifications { return &Verifications{pool: p} }

func (r *Verifications) Add(ctx context.Context, v domain.PendingVerification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verifications(cohort, admin_id, candidate_id, message_id)
		VALUES($1,$2,$3,$4)
		ON CONFLICT (cohort, admin_id, candidate_id) DO UPDATE
		SET message_id=EXCLUDED.message_id
	`, v.Cohort, v.AdminID, v.CandidateID, v.MessageID)
	return err
}

func (r *Verifications) HasPending(ctx context.Context, candidateID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM verifications WHERE candidate_id=$1)
	`, candidateID).Scan(&exists)
	return exists, err
}

// FindCandidateByMessage resolves the candidate from the admin notification
// the button was pressed on.
func (r *Verifications) FindCandidateByMessage(ctx context.Context, adminID int64, messageID int) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT candidate_id FROM verifications
		WHERE admin_id=$1 AND message_id=$2
	`, adminID, messageID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (r *Verifications) ListByCandidate(ctx context.Context, candidateID int64) ([]domain.PendingVerification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cohort, admin_id, candidate_id, message_id
		FROM verifications
		WHERE candidate_id=$1
	`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingVerification
	for rows.Next() {
		var v domain.PendingVerification
		if e := rows.Scan(&v.Cohort, &v.AdminID, &v.CandidateID, &v.MessageID); e != nil {
			return nil, e
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Verifications) DeleteForCandidate(ctx context.Context, candidateID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM verifications WHERE candidate_id=$1`, candidateID)
	return err
}
