package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klucly/NeonasBot/internal/domain"
)

type Students struct{ pool *pgxpool.Pool }

func NewStudents(p *pgxpool.Pool) *Students { return &Students{pool: p} }

const studentColumns = `id, verified, real_name, cohort, is_inputting, continuation, main_message, main_message_fresh, is_admin, created_at`

// Get returns nil without an error when the student is unknown.
func (r *Students) Get(ctx context.Context, id int64) (*domain.Student, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE id=$1`, id)
	st, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return st, err
}

func (r *Students) Create(ctx context.Context, id int64) (*domain.Student, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO students(id)
		VALUES($1)
		ON CONFLICT (id) DO UPDATE SET id=EXCLUDED.id
		RETURNING `+studentColumns, id)
	return scanStudent(row)
}

// Patch applies the non-nil fields of p as a single UPDATE, so paired fields
// (is_inputting + continuation) commit atomically.
func (r *Students) Patch(ctx context.Context, id int64, p domain.StudentPatch) error {
	var sets []string
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}

	if p.Verified != nil {
		add("verified", *p.Verified)
	}
	if p.RealName != nil {
		add("real_name", *p.RealName)
	}
	if p.Group != nil {
		add("cohort", *p.Group)
	}
	if p.IsInputting != nil {
		add("is_inputting", *p.IsInputting)
	}
	if p.Continuation != nil {
		add("continuation", *p.Continuation)
	}
	if p.MainMessage != nil {
		add("main_message", *p.MainMessage)
	}
	if p.MainMessageFresh != nil {
		add("main_message_fresh", *p.MainMessageFresh)
	}
	if p.IsAdmin != nil {
		add("is_admin", *p.IsAdmin)
	}
	if len(sets) == 0 {
		return nil
	}

	_, err := r.pool.Exec(ctx, `UPDATE students SET `+strings.Join(sets, ", ")+` WHERE id=$1`, args...)
	return err
}

func (r *Students) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id=$1`, id)
	return err
}

func (r *Students) ListByGroup(ctx context.Context, group string) ([]domain.Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE cohort=$1
		ORDER BY real_name
	`, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Student
	for rows.Next() {
		st, e := scanStudent(rows)
		if e != nil {
			return nil, e
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// Admins returns the ids of every admin of a cohort.
func (r *Students) Admins(ctx context.Context, group string) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM students
		WHERE cohort=$1 AND is_admin=true
	`, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if e := rows.Scan(&id); e != nil {
			return nil, e
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var st domain.Student
	err := row.Scan(
		&st.ID,
		&st.Verified,
		&st.RealName,
		&st.Group,
		&st.IsInputting,
		&st.Continuation,
		&st.MainMessage,
		&st.MainMessageFresh,
		&st.IsAdmin,
		&st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
