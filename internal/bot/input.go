package bot

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/klucly/NeonasBot/internal/domain"
)

// Continuation ids stored in the session. A closed set: the session record
// holds one of these identifiers, never code.
const (
	contEnterName = "enter_name"
	contNewDebt   = "new_debt"
	contMarkDone  = "mark_done"
	contBroadcast = "broadcast"
)

type continuationFunc func(ctx context.Context, st *domain.Student, input string) error

func (s *Service) continuationTable() map[string]continuationFunc {
	return map[string]continuationFunc{
		contEnterName: s.contConfirmName,
		contNewDebt:   s.contConfirmNewDebt,
		contMarkDone:  s.contMarkDone,
		contBroadcast: s.contBroadcast,
	}
}

// requestInput renders a prompt and arms the continuation. Both session
// fields change in one patch, after the prompt is on screen.
func (s *Service) requestInput(ctx context.Context, st *domain.Student, continuation string, prompt screen) error {
	if err := s.send(ctx, st, prompt); err != nil {
		return err
	}
	st.IsInputting = true
	st.Continuation = continuation
	return s.students.Patch(ctx, st.ID, domain.StudentPatch{
		IsInputting:  ptr(true),
		Continuation: ptr(continuation),
	})
}

// handleText consumes a free-text message. Without a pending continuation
// the message is deleted and dropped. With one, the capture state is cleared
// before the continuation runs, so a re-entrant message cannot double-fire.
func (s *Service) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	s.deleteMessage(msg.Chat.ID, msg.MessageID)

	st, err := s.students.Get(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if st == nil || !st.IsInputting || st.Continuation == "" {
		return nil
	}

	continuation := st.Continuation
	if err := s.clearInput(ctx, st); err != nil {
		return err
	}

	fn, ok := s.continuations[continuation]
	if !ok {
		// Internal invariant violation: an id was stored that nothing
		// registered. Terminate this interaction cleanly.
		s.log.Error("bot: unregistered continuation",
			zap.String("continuation", continuation), zap.Int64("user", st.ID))
		return nil
	}

	return fn(ctx, st, msg.Text)
}

func (s *Service) contConfirmName(ctx context.Context, st *domain.Student, input string) error {
	st.RealName = input
	if err := s.students.Patch(ctx, st.ID, domain.StudentPatch{RealName: ptr(input)}); err != nil {
		return err
	}
	return s.send(ctx, st, nameConfirmMenu(st))
}

func (s *Service) contConfirmNewDebt(ctx context.Context, st *domain.Student, input string) error {
	draft, err := parseDebtInput(input)
	if err != nil {
		return s.send(ctx, st, backWithNoteMenu("Не зрозумів. Формат: <тема>: <текст> | <день>/<місяць>/<рік>"))
	}
	s.drafts.put(st.ID, draft)
	return s.send(ctx, st, confirmDebtMenu(draft))
}

func (s *Service) contMarkDone(ctx context.Context, st *domain.Student, input string) error {
	debts, err := s.debts.ListByStudent(ctx, st.ID)
	if err != nil {
		return err
	}

	index, err := strconv.Atoi(input)
	if err != nil || index < 1 || index > len(debts) {
		return s.send(ctx, st, backWithNoteMenu("Некоректний номер"))
	}

	if err := s.debts.MarkDone(ctx, debts[index-1].ID, st.ID); err != nil {
		return err
	}
	debts[index-1].Done = true
	return s.send(ctx, st, debtsListMenu(debts))
}

func (s *Service) contBroadcast(ctx context.Context, st *domain.Student, input string) error {
	students, err := s.students.ListByGroup(ctx, st.Group)
	if err != nil {
		return err
	}

	for i := range students {
		member := &students[i]
		if member.ID == st.ID {
			continue
		}
		if _, err := s.sendRaw(ctx, member, screen{text: input}); err != nil {
			s.log.Warn("bot: broadcast delivery failed",
				zap.Int64("student", member.ID), zap.Error(err))
		}
	}

	s.log.Info("bot: broadcast sent",
		zap.String("cohort", st.Group), zap.Int64("admin", st.ID))
	return s.send(ctx, st, backWithNoteMenu("Повідомлення відправлено!"))
}
