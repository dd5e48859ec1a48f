package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klucly/NeonasBot/internal/domain"
)

type Groups struct{ pool *pgxpool.Pool }

func NewGroups(p *pgxpool.Pool) *Groups { return &Groups{pool: p} }

func (r *Groups) Get(ctx context.Context, chatID int64) (*domain.GroupChat, error) {
	var g domain.GroupChat
	err := r.pool.QueryRow(ctx, `
		SELECT chat_id, cohort, morning_schedule, deadline_reminder
		FROM group_chats
		WHERE chat_id=$1
	`, chatID).Scan(&g.ChatID, &g.Cohort, &g.MorningSchedule, &g.DeadlineReminder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Bind inserts a chat↔cohort binding; a second bind for the same chat is
// rejected with ErrAlreadyBound.
func (r *Groups) Bind(ctx context.Context, chatID int64, cohort string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO group_chats(chat_id, cohort)
		VALUES($1,$2)
		ON CONFLICT (chat_id) DO NOTHING
	`, chatID, cohort)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyBound
	}
	return nil
}

func (r *Groups) Unbind(ctx context.Context, chatID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM group_chats WHERE chat_id=$1`, chatID)
	return err
}

func (r *Groups) ListByCohort(ctx context.Context, cohort string) ([]domain.GroupChat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chat_id, cohort, morning_schedule, deadline_reminder
		FROM group_chats
		WHERE cohort=$1
	`, cohort)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GroupChat
	for rows.Next() {
		var g domain.GroupChat
		if e := rows.Scan(&g.ChatID, &g.Cohort, &g.MorningSchedule, &g.DeadlineReminder); e != nil {
			return nil, e
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Groups) SetMorningSchedule(ctx context.Context, chatID int64, on bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE group_chats SET morning_schedule=$2 WHERE chat_id=$1`, chatID, on)
	return err
}

func (r *Groups) SetDeadlineReminder(ctx context.Context, chatID int64, on bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE group_chats SET deadline_reminder=$2 WHERE chat_id=$1`, chatID, on)
	return err
}
