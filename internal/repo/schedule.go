package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klucly/NeonasBot/internal/domain"
)

type Schedule struct{ pool *pgxpool.Pool }

func NewSchedule(p *pgxpool.Pool) *Schedule { return &Schedule{pool: p} }

func (r *Schedule) Lessons(ctx context.Context, cohort, day string, week int) ([]domain.Lesson, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cohort, day_of_week, week, start_time, subject, class_type, url
		FROM lessons
		WHERE cohort=$1 AND day_of_week=$2 AND week=$3
		ORDER BY start_time
	`, cohort, day, week)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lesson
	for rows.Next() {
		var l domain.Lesson
		if e := rows.Scan(&l.Cohort, &l.Day, &l.Week, &l.StartTime, &l.Subject, &l.ClassType, &l.URL); e != nil {
			return nil, e
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the whole table for the freshly fetched dataset in one
// transaction, so readers never observe a half-loaded schedule.
func (r *Schedule) ReplaceAll(ctx context.Context, lessons []domain.Lesson) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM lessons`); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, l := range lessons {
		batch.Queue(`
			INSERT INTO lessons(cohort, day_of_week, week, start_time, subject, class_type, url)
			VALUES($1,$2,$3,$4,$5,$6,$7)
		`, l.Cohort, l.Day, l.Week, l.StartTime, l.Subject, l.ClassType, l.URL)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
