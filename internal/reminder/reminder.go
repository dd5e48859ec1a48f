// Package reminder pushes the day's schedule and upcoming deadlines into
// bound group chats, honoring each chat's toggles.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klucly/NeonasBot/internal/config"
	"github.com/klucly/NeonasBot/internal/domain"
)

// Pusher is the slice of the bot service the reminder needs.
type Pusher interface {
	PushDaySchedule(ctx context.Context, cohort string, chatID int64, day string) error
	PushGroupText(ctx context.Context, chatID int64, text string) error
}

type GroupStore interface {
	ListByCohort(ctx context.Context, cohort string) ([]domain.GroupChat, error)
}

type DebtStore interface {
	DueForCohort(ctx context.Context, cohort string, offsetDays int) ([]domain.Debt, error)
}

type Service struct {
	cfg    config.Config
	log    *zap.Logger
	pusher Pusher
	groups GroupStore
	debts  DebtStore

	now func() time.Time
}

func New(cfg config.Config, log *zap.Logger, pusher Pusher, groups GroupStore, debts DebtStore) *Service {
	return &Service{
		cfg:    cfg,
		log:    log,
		pusher: pusher,
		groups: groups,
		debts:  debts,
		now:    time.Now,
	}
}

func (s *Service) Run(ctx context.Context) error {
	s.log.Info("reminder: starting")

	ticker := time.NewTicker(s.cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		if err := s.iteration(ctx); err != nil {
			s.log.Error("reminder: iteration failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			s.log.Info("reminder: shutdown")
			return nil
		case <-ticker.C:
		}
	}
}

// iteration fires only inside the weekday morning window, which at a
// 30-minute tick means exactly once per morning.
func (s *Service) iteration(ctx context.Context) error {
	now := s.now().In(s.cfg.Location())
	if !inMorningWindow(now) {
		return nil
	}

	for _, cohort := range s.cfg.Groups {
		chats, err := s.groups.ListByCohort(ctx, cohort)
		if err != nil {
			return err
		}
		for _, chat := range chats {
			if chat.MorningSchedule {
				if err := s.pusher.PushDaySchedule(ctx, cohort, chat.ChatID, domain.DayName(now.Weekday())); err != nil {
					s.log.Warn("reminder: schedule push failed",
						zap.Int64("chat", chat.ChatID), zap.Error(err))
				}
			}
			if chat.DeadlineReminder {
				if err := s.pushDeadlines(ctx, cohort, chat.ChatID); err != nil {
					s.log.Warn("reminder: deadline push failed",
						zap.Int64("chat", chat.ChatID), zap.Error(err))
				}
			}
		}
	}
	return nil
}

func (s *Service) pushDeadlines(ctx context.Context, cohort string, chatID int64) error {
	for _, offset := range s.cfg.RemindDaysBefore {
		debts, err := s.debts.DueForCohort(ctx, cohort, offset)
		if err != nil {
			return err
		}
		if len(debts) == 0 {
			continue
		}
		if err := s.pusher.PushGroupText(ctx, chatID, deadlineText(offset, debts)); err != nil {
			return err
		}
	}
	return nil
}

func deadlineText(offset int, debts []domain.Debt) string {
	var b strings.Builder
	switch offset {
	case 0:
		b.WriteString("⏰ Сьогодні дедлайн:\n\n")
	default:
		fmt.Fprintf(&b, "⏰ Дедлайн через %d дн.:\n\n", offset)
	}
	for _, d := range debts {
		fmt.Fprintf(&b, "%s: %s (%s)\n", d.Subject, d.Body, d.DueDate.Format("02/01/2006"))
	}
	return b.String()
}

func inMorningWindow(now time.Time) bool {
	return now.Hour() == 8 && now.Minute() < 30 && now.Weekday() >= time.Monday && now.Weekday() <= time.Friday
}
