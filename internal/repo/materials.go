package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klucly/NeonasBot/internal/domain"
)

type Materials struct{ pool *pgxpool.Pool }

func NewMaterials(p *pgxpool.Pool) *Materials { return &Materials{pool: p} }

func (r *Materials) ListByCohort(ctx context.Context, cohort string) ([]domain.Material, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cohort, name, url
		FROM materials
		WHERE cohort=$1
		ORDER BY name
	`, cohort)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Material
	for rows.Next() {
		var m domain.Material
		if e := rows.Scan(&m.Cohort, &m.Name, &m.URL); e != nil {
			return nil, e
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Materials) ReplaceAll(ctx context.Context, materials []domain.Material) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM materials`); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, m := range materials {
		batch.Queue(`
			INSERT INTO materials(cohort, name, url)
			VALUES($1,$2,$3)
		`, m.Cohort, m.Name, m.URL)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
