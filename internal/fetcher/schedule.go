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

type ScheduleStore interface {
	ReplaceAll(ctx context.Context, lessons []domain.Lesson) error
}

// Schedule pulls two ranges per cohort (week 1 and week 2 halves of the
// sheet) and replaces the lessons table every tick.
type Schedule struct {
	cfg    config.Config
	log    *zap.Logger
	store  ScheduleStore
	client *sheetsClient
}

func NewSchedule(ctx context.Context, cfg config.Config, log *zap.Logger, store ScheduleStore) (*Schedule, error) {
	client, err := newSheetsClient(ctx, []byte(cfg.GoogleCreds))
	if err != nil {
		return nil, fmt.Errorf("schedule fetcher: %w", err)
	}
	return &Schedule{cfg: cfg, log: log, store: store, client: client}, nil
}

func (s *Schedule) Run(ctx context.Context) error {
	s.log.Info("schedule fetcher: starting")

	ticker := time.NewTicker(s.cfg.FetchInterval)
	defer ticker.Stop()

	for {
		if err := s.iteration(ctx); err != nil {
			// Transient upstream fault: log, refresh credentials, retry on
			// the next tick.
			s.log.Error("schedule fetcher: iteration failed", zap.Error(err))
			if rerr := s.client.reset(ctx); rerr != nil {
				s.log.Error("schedule fetcher: credential reset failed", zap.Error(rerr))
			}
		}

		select {
		case <-ctx.Done():
			s.log.Info("schedule fetcher: shutdown")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Schedule) iteration(ctx context.Context) error {
	started := time.Now()

	var ranges []string
	for _, cohort := range s.cfg.Groups {
		tab := strings.ToUpper(cohort)
		ranges = append(ranges,
			fmt.Sprintf("%s!A3:E32", tab), // week 1
			fmt.Sprintf("%s!G3:K32", tab), // week 2
		)
	}

	fetched, err := s.client.batchGet(ctx, s.cfg.ScheduleSpreadsheetID, ranges)
	if err != nil {
		return err
	}

	var lessons []domain.Lesson
	for i, cohort := range s.cfg.Groups {
		for week := 1; week <= 2; week++ {
			rows := fetched[i*2+week-1].Values
			lessons = append(lessons, parseScheduleRows(rows, cohort, week)...)
		}
	}

	if err := s.store.ReplaceAll(ctx, lessons); err != nil {
		return fmt.Errorf("store lessons: %w", err)
	}

	s.log.Info("schedule fetcher: done",
		zap.Int("lessons", len(lessons)),
		zap.Duration("took", time.Since(started)))
	return nil
}
