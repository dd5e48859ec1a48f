package bot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/klucly/NeonasBot/internal/domain"
)

type verificationOutcome int

const (
	outcomeVerified verificationOutcome = iota
	outcomeDiscarded
)

// The candidate id is embedded as [id] in every admin notification so a
// resolution stays possible even when the verification index has no row for
// the pressed message (e.g. the row predates a schema reset). The index is
// the source of truth; this is the fallback.
var candidateIDPattern = regexp.MustCompile(`\[(\d+)\]`)

// submitVerification notifies every admin of the candidate's cohort and
// records one pending entry per notified admin. A candidate with a request
// already pending is rejected without re-notifying anyone.
func (s *Service) submitVerification(ctx context.Context, candidate *domain.Student) error {
	pending, err := s.verifications.HasPending(ctx, candidate.ID)
	if err != nil {
		return err
	}
	if pending {
		return s.send(ctx, candidate, screen{text: "Запит вже на перевірці. Чекайте підтвердження!"})
	}

	admins, err := s.students.Admins(ctx, candidate.Group)
	if err != nil {
		return err
	}

	handle := s.displayName(candidate.ID)
	text := fmt.Sprintf("Підтвердити нового користувача %s [%d] %s до %s?",
		handle, candidate.ID, candidate.RealName, candidate.Group)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Підтвердити", "verify_user")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Відхилити", "discard_user")),
	)

	notified := 0
	for _, adminID := range admins {
		admin, err := s.students.Get(ctx, adminID)
		if err != nil || admin == nil {
			s.log.Warn("bot: verification admin lookup failed",
				zap.Int64("admin", adminID), zap.Error(err))
			continue
		}
		messageID, err := s.sendRaw(ctx, admin, screen{text: text, keyboard: &kb})
		if err != nil {
			s.log.Warn("bot: verification notify failed",
				zap.Int64("admin", adminID), zap.Error(err))
			continue
		}
		if err := s.verifications.Add(ctx, domain.PendingVerification{
			Cohort:      candidate.Group,
			AdminID:     adminID,
			CandidateID: candidate.ID,
			MessageID:   messageID,
		}); err != nil {
			return err
		}
		notified++
	}

	s.log.Info("bot: verification requested",
		zap.Int64("candidate", candidate.ID),
		zap.String("cohort", candidate.Group),
		zap.Int("admins", notified))

	return s.send(ctx, candidate, screen{text: "Запит на перевірку надіслано. Чекайте підтвердження!"})
}

// resolveVerification applies an admin's verdict. Resolving an already
// verified candidate is a no-op, so a second admin pressing a stale button
// re-notifies no one.
func (s *Service) resolveVerification(ctx context.Context, verifier *domain.Student, q *tgbotapi.CallbackQuery, outcome verificationOutcome) error {
	candidate, err := s.candidateFromMessage(ctx, q)
	if err != nil {
		return err
	}
	if candidate == nil {
		s.log.Warn("bot: verification target not found",
			zap.Int64("admin", verifier.ID))
		return nil
	}
	if candidate.Verified {
		return nil
	}

	switch outcome {
	case outcomeVerified:
		candidate.Verified = true
		if err := s.students.Patch(ctx, candidate.ID, domain.StudentPatch{Verified: ptr(true)}); err != nil {
			return err
		}
		menu := mainMenu(candidate)
		menu.text = "Вас було підтверджено! " + menu.text
		if err := s.send(ctx, candidate, menu); err != nil {
			s.log.Warn("bot: verified notice failed",
				zap.Int64("candidate", candidate.ID), zap.Error(err))
		}
		s.log.Info("bot: user verified",
			zap.Int64("candidate", candidate.ID), zap.Int64("admin", verifier.ID))

	case outcomeDiscarded:
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Назад до реєстрації", "restart")),
		)
		if err := s.send(ctx, candidate, screen{
			text:     "Ваш запит на перевірку відхилено.",
			keyboard: &kb,
		}); err != nil {
			s.log.Warn("bot: discard notice failed",
				zap.Int64("candidate", candidate.ID), zap.Error(err))
		}
		s.log.Info("bot: user discarded",
			zap.Int64("candidate", candidate.ID), zap.Int64("admin", verifier.ID))
	}

	return s.settleAdminMessages(ctx, verifier, candidate, outcome)
}

// settleAdminMessages rewrites every recorded admin notification with the
// verdict and clears the index. Individual edit failures are expected: an
// admin may have deleted the message.
func (s *Service) settleAdminMessages(ctx context.Context, verifier, candidate *domain.Student, outcome verificationOutcome) error {
	verb := "підтвердив"
	if outcome == outcomeDiscarded {
		verb = "відхилив запит"
	}
	text := fmt.Sprintf("%s %s користувача %s [%d] %s до %s.",
		verifier.RealName, verb, s.displayName(candidate.ID),
		candidate.ID, candidate.RealName, candidate.Group)

	entries, err := s.verifications.ListByCandidate(ctx, candidate.ID)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := s.editMessage(entry.AdminID, entry.MessageID, text); err != nil {
			s.log.Debug("bot: admin notification edit failed",
				zap.Int64("admin", entry.AdminID), zap.Error(err))
		}
	}

	return s.verifications.DeleteForCandidate(ctx, candidate.ID)
}

// candidateFromMessage resolves whose request the pressed notification is
// about: first the verification index, then the [id] token in the text.
func (s *Service) candidateFromMessage(ctx context.Context, q *tgbotapi.CallbackQuery) (*domain.Student, error) {
	if q.Message == nil {
		return nil, nil
	}

	candidateID, err := s.verifications.FindCandidateByMessage(ctx, q.From.ID, q.Message.MessageID)
	if err != nil {
		return nil, err
	}
	if candidateID == 0 {
		m := candidateIDPattern.FindStringSubmatch(q.Message.Text)
		if m == nil {
			return nil, nil
		}
		candidateID, err = strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return nil, nil
		}
	}

	return s.students.Get(ctx, candidateID)
}
