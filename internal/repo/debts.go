package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klucly/NeonasBot/internal/domain"
)

type Debts struct{ pool *pgxpool.Pool }

func NewDebts(p *pgxpool.Pool) *Debts { return &Debts{pool: p} }

// AddBatch fans one deadline out to every given student in a single
// transaction: one row per (deadline, student).
func (r *Debts) AddBatch(ctx context.Context, d domain.Debt, studentIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, id := range studentIDs {
		batch.Queue(`
			INSERT INTO debts(student_id, subject, body, due_date)
			VALUES($1,$2,$3,$4)
		`, id, d.Subject, d.Body, d.DueDate.Format("2006-01-02"))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListByStudent returns the student's deadlines ordered by due date; the
// order is what mark-as-done indexes refer to.
func (r *Debts) ListByStudent(ctx context.Context, studentID int64) ([]domain.Debt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, subject, body, due_date, done
		FROM debts
		WHERE student_id=$1
		ORDER BY due_date, id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDebts(rows)
}

func (r *Debts) MarkDone(ctx context.Context, debtID, studentID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE debts SET done=true
		WHERE id=$1 AND student_id=$2
	`, debtID, studentID)
	return err
}

// DueForCohort returns the distinct deadlines of a cohort falling exactly on
// (today + offsetDays), for the group-chat reminder push.
func (r *Debts) DueForCohort(ctx context.Context, cohort string, offsetDays int) ([]domain.Debt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (d.subject, d.body, d.due_date)
			d.id, d.student_id, d.subject, d.body, d.due_date, d.done
		FROM debts d
		JOIN students s ON s.id = d.student_id
		WHERE s.cohort=$1
		  AND d.done=false
		  AND d.due_date = (CURRENT_DATE + $2::int)
	`, cohort, offsetDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDebts(rows)
}

func scanDebts(rows pgx.Rows) ([]domain.Debt, error) {
	var out []domain.Debt
	for rows.Next() {
		var d domain.Debt
		var due time.Time
		if e := rows.Scan(&d.ID, &d.StudentID, &d.Subject, &d.Body, &due, &d.Done); e != nil {
			return nil, e
		}
		d.DueDate = due
		out = append(out, d)
	}
	return out, rows.Err()
}
