package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klucly/NeonasBot/internal/config"
	"github.com/klucly/NeonasBot/internal/domain"
)

type MaterialStore interface {
	ReplaceAll(ctx context.Context, materials []domain.Material) error
}

type Materials struct {
	cfg    config.Config
	log    *zap.Logger
	store  MaterialStore
	client *sheetsClient
}

func NewMaterials(ctx context.Context, cfg config.Config, log *zap.Logger, store MaterialStore) (*Materials, error) {
	client, err := newSheetsClient(ctx, []byte(cfg.GoogleCreds))
	if err != nil {
		return nil, fmt.Errorf("materials fetcher: %w", err)
	}
	return &Materials{cfg: cfg, log: log, store: store, client: client}, nil
}

func (m *Materials) Run(ctx context.Context) error {
	m.log.Info("materials fetcher: starting")

	ticker := time.NewTicker(m.cfg.FetchInterval)
	defer ticker.Stop()

	for {
		if err := m.iteration(ctx); err != nil {
			m.log.Error("materials fetcher: iteration failed", zap.Error(err))
			if rerr := m.client.reset(ctx); rerr != nil {
				m.log.Error("materials fetcher: credential reset failed", zap.Error(rerr))
			}
		}

		select {
		case <-ctx.Done():
			m.log.Info("materials fetcher: shutdown")
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Materials) iteration(ctx context.Context) error {
	started := time.Now()

	ranges := make([]string, 0, len(m.cfg.Groups))
	for _, cohort := range m.cfg.Groups {
		ranges = append(ranges, fmt.Sprintf("%s!B3:C15", strings.ToUpper(cohort)))
	}

	fetched, err := m.client.batchGet(ctx, m.cfg.MaterialSpreadsheetID, ranges)
	if err != nil {
		return err
	}

	var materials []domain.Material
	for i, cohort := range m.cfg.Groups {
		materials = append(materials, parseMaterialRows(fetched[i].Values, cohort)...)
	}

	if err := m.store.ReplaceAll(ctx, materials); err != nil {
		return fmt.Errorf("store materials: %w", err)
	}

	m.log.Info("materials fetcher: done",
		zap.Int("materials", len(materials)),
		zap.Duration("took", time.Since(started)))
	return nil
}
