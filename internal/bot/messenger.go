package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/klucly/NeonasBot/internal/domain"
)

// screen is what the menu renderer produces: text plus an optional inline
// keyboard and parse mode.
type screen struct {
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
	mode     string
}

// send renders sc into the user's main message, editing it in place when the
// recorded message is still fresh. Any edit rejection (message gone, text
// unchanged, whatever the transport dislikes) falls back to a fresh send; a
// failure of the fallback send itself propagates.
//
// Rendering a screen also cancels any pending free-text capture, so a user
// who navigates away mid-input does not leave a live continuation behind.
func (s *Service) send(ctx context.Context, st *domain.Student, sc screen) error {
	if st.IsInputting {
		if err := s.clearInput(ctx, st); err != nil {
			return err
		}
	}

	if st.MainMessage != 0 && st.MainMessageFresh {
		edit := tgbotapi.NewEditMessageText(st.ID, st.MainMessage, sc.text)
		edit.ParseMode = sc.mode
		edit.ReplyMarkup = sc.keyboard
		if _, err := s.api.Send(edit); err == nil {
			return nil
		}
		// Expected: the message may be deleted, too old, or identical.
	}

	return s.resetAndSend(ctx, st, sc)
}

// resetAndSend sends a fresh main message, best-effort deletes the replaced
// one and records the new id. The old id is never written to again.
func (s *Service) resetAndSend(ctx context.Context, st *domain.Student, sc screen) error {
	msg := tgbotapi.NewMessage(st.ID, sc.text)
	msg.ParseMode = sc.mode
	if sc.keyboard != nil {
		msg.ReplyMarkup = *sc.keyboard
	}

	sent, err := s.api.Send(msg)
	if err != nil {
		return fmt.Errorf("send to %d: %w", st.ID, err)
	}

	if old := st.MainMessage; old != 0 && old != sent.MessageID {
		s.deleteMessage(st.ID, old)
	}

	st.MainMessage = sent.MessageID
	st.MainMessageFresh = true
	return s.students.Patch(ctx, st.ID, domain.StudentPatch{
		MainMessage:      ptr(sent.MessageID),
		MainMessageFresh: ptr(true),
	})
}

// sendRaw delivers a standalone message to the user, outside the main
// message slot. The slot is marked stale so the next send() re-sends instead
// of editing underneath the notification.
func (s *Service) sendRaw(ctx context.Context, st *domain.Student, sc screen) (int, error) {
	msg := tgbotapi.NewMessage(st.ID, sc.text)
	msg.ParseMode = sc.mode
	if sc.keyboard != nil {
		msg.ReplyMarkup = *sc.keyboard
	}

	sent, err := s.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send raw to %d: %w", st.ID, err)
	}

	st.MainMessageFresh = false
	if err := s.students.Patch(ctx, st.ID, domain.StudentPatch{MainMessageFresh: ptr(false)}); err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// sendGroup posts into a group chat; no session bookkeeping.
func (s *Service) sendGroup(_ context.Context, chatID int64, sc screen) error {
	msg := tgbotapi.NewMessage(chatID, sc.text)
	msg.ParseMode = sc.mode
	if sc.keyboard != nil {
		msg.ReplyMarkup = *sc.keyboard
	}
	_, err := s.api.Send(msg)
	return err
}

func (s *Service) editMessage(chatID int64, messageID int, text string) error {
	_, err := s.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

// deleteMessage is best effort; the message may already be gone.
func (s *Service) deleteMessage(chatID int64, messageID int) {
	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		s.log.Debug("bot: delete message failed",
			zap.Int64("chat", chatID), zap.Int("message", messageID), zap.Error(err))
	}
}

// clearInput drops a pending continuation together with the inputting flag,
// in one patch.
func (s *Service) clearInput(ctx context.Context, st *domain.Student) error {
	st.IsInputting = false
	st.Continuation = ""
	return s.students.Patch(ctx, st.ID, domain.StudentPatch{
		IsInputting:  ptr(false),
		Continuation: ptr(""),
	})
}
