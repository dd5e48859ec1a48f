package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/klucly/NeonasBot/internal/domain"
)

// Callback data grammar:
//
//	token := name | name "(" arg ("," arg)* ")"
//
// name is a bare identifier, args are the raw substrings between delimiters
// (no escaping). FormatButton and parseButton round-trip losslessly.
func parseButton(data string) (name string, args []string, err error) {
	open := strings.IndexByte(data, '(')
	if open < 0 {
		return data, nil, nil
	}
	if !strings.HasSuffix(data, ")") {
		return "", nil, fmt.Errorf("bad button token %q: expected trailing ')'", data)
	}
	return data[:open], strings.Split(data[open+1:len(data)-1], ","), nil
}

// FormatButton builds callback data in the router grammar.
func FormatButton(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + "(" + strings.Join(args, ",") + ")"
}

type buttonFunc func(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, args []string) error

// buttonTable is the static dispatch table: every reachable callback name
// maps here; anything else answers "invalid option".
func (s *Service) buttonTable() map[string]buttonFunc {
	return map[string]buttonFunc{
		"choose_group":        s.btnChooseGroup,
		"restart":             s.btnRestart,
		"menu":                s.btnMenu,
		"admin_panel":         s.btnAdminPanel,
		"schedule":            s.btnSchedule,
		"schedule_day":        s.btnScheduleDay,
		"submit_verification": s.btnSubmitVerification,
		"verify_user":         s.btnVerifyUser,
		"discard_user":        s.btnDiscardUser,
		"debts":               s.btnDebts,
		"debts_list":          s.btnDebtsList,
		"add_debt":            s.btnAddDebt,
		"confirm_debt":        s.btnConfirmDebt,
		"mark_done":           s.btnMarkDone,
		"back_with_note":      s.btnBackWithNote,
		"materials":           s.btnMaterials,
		"view_materials":      s.btnViewMaterials,
		"links":               s.btnLinks,
		"broadcast":           s.btnBroadcast,
		"delete_student_menu": s.btnDeleteStudentMenu,
		"delete_student":      s.btnDeleteStudent,
		"list_students":       s.btnListStudents,
		"chats":               s.btnChats,
		"choose_chat":         s.btnChooseChat,
		"toggle_chat":         s.btnToggleChat,
		"unbind_chat":         s.btnUnbindChat,
	}
}

// handleCallback parses the pressed button and dispatches it. The press is
// always acknowledged, with a notice text on the failure paths; dispatch is
// total — no token is dropped silently.
func (s *Service) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	notice := ""
	defer func() {
		if _, err := s.api.Request(tgbotapi.NewCallback(q.ID, notice)); err != nil {
			s.log.Debug("bot: callback ack failed", zap.Error(err))
		}
	}()

	st, err := s.students.Get(ctx, q.From.ID)
	if err != nil {
		return err
	}
	if st == nil {
		notice = "Натисніть /start щоб почати"
		return nil
	}

	name, args, err := parseButton(q.Data)
	if err != nil {
		s.log.Warn("bot: malformed button token",
			zap.Int64("user", q.From.ID), zap.String("data", q.Data))
		notice = "Некоректна опція"
		return nil
	}

	fn, ok := s.buttons[name]
	if !ok {
		s.log.Error("bot: unknown button",
			zap.String("name", name), zap.Int64("user", q.From.ID))
		notice = "Некоректна опція"
		return nil
	}

	return fn(ctx, st, q, args)
}

func (s *Service) btnChooseGroup(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 1 || !s.knownGroup(args[0]) {
		return fmt.Errorf("choose_group: bad args %v", args)
	}
	st.Group = args[0]
	if err := s.students.Patch(ctx, st.ID, domain.StudentPatch{Group: ptr(args[0])}); err != nil {
		return err
	}
	return s.requestInput(ctx, st, contEnterName, screen{text: "Введіть ваше повне ім'я:"})
}

func (s *Service) btnRestart(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.startPrivate(ctx, st.ID)
}

func (s *Service) btnMenu(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.send(ctx, st, mainMenu(st))
}

func (s *Service) btnAdminPanel(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.send(ctx, st, adminPanelMenu())
}

func (s *Service) btnSchedule(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.send(ctx, st, scheduleDayMenu())
}

func (s *Service) btnScheduleDay(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("schedule_day: bad args %v", args)
	}
	text, err := s.scheduleText(ctx, st.Group, args[0])
	if err != nil {
		return err
	}
	return s.send(ctx, st, screen{text: text, mode: tgbotapi.ModeMarkdown})
}

func (s *Service) btnSubmitVerification(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.submitVerification(ctx, st)
}

func (s *Service) btnVerifyUser(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, _ []string) error {
	return s.resolveVerification(ctx, st, q, outcomeVerified)
}

func (s *Service) btnDiscardUser(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, _ []string) error {
	return s.resolveVerification(ctx, st, q, outcomeDiscarded)
}

func (s *Service) btnDebts(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, args []string) error {
	if st.IsAdmin {
		return s.send(ctx, st, debtsAdminMenu())
	}
	return s.btnDebtsList(ctx, st, q, args)
}

func (s *Service) btnDebtsList(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	debts, err := s.debts.ListByStudent(ctx, st.ID)
	if err != nil {
		return err
	}
	return s.send(ctx, st, debtsListMenu(debts))
}

func (s *Service) btnAddDebt(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.requestInput(ctx, st, contNewDebt,
		screen{text: "Введіть <тема>: <текст> | <день>/<місяць>/<рік>"})
}

func (s *Service) btnConfirmDebt(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	draft, ok := s.drafts.take(st.ID)
	if !ok {
		return s.send(ctx, st, backWithNoteMenu("Чернетку втрачено, спробуйте ще раз"))
	}

	students, err := s.students.ListByGroup(ctx, st.Group)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(students))
	for _, member := range students {
		ids = append(ids, member.ID)
	}
	if err := s.debts.AddBatch(ctx, draft, ids); err != nil {
		return err
	}

	s.log.Info("bot: deadline added",
		zap.String("cohort", st.Group), zap.String("subject", draft.Subject),
		zap.Int("students", len(ids)))
	return s.send(ctx, st, backWithNoteMenu("Дедлайн додано"))
}

func (s *Service) btnMarkDone(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.requestInput(ctx, st, contMarkDone, screen{text: "Введіть номер:"})
}

func (s *Service) btnBackWithNote(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, args []string) error {
	note := "Готово"
	if len(args) > 0 {
		note = strings.Join(args, ",")
	}
	return s.send(ctx, st, backWithNoteMenu(note))
}

func (s *Service) btnMaterials(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, args []string) error {
	if st.IsAdmin {
		return s.send(ctx, st, adminMaterialsMenu())
	}
	return s.btnViewMaterials(ctx, st, q, args)
}

func (s *Service) btnViewMaterials(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	materials, err := s.materials.ListByCohort(ctx, st.Group)
	if err != nil {
		return err
	}
	return s.send(ctx, st, screen{
		text: materialsText(st.Group, materials),
		mode: tgbotapi.ModeMarkdown,
	})
}

func (s *Service) btnLinks(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.send(ctx, st, linksMenu())
}

func (s *Service) btnBroadcast(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	return s.requestInput(ctx, st, contBroadcast,
		screen{text: "Введіть повідомлення для відправки студентам:"})
}

func (s *Service) btnDeleteStudentMenu(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	students, err := s.students.ListByGroup(ctx, st.Group)
	if err != nil {
		return err
	}
	return s.send(ctx, st, deleteStudentMenu(students))
}

func (s *Service) btnDeleteStudent(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete_student: bad args %v", args)
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("delete_student: bad id %q", args[0])
	}

	if target, err := s.students.Get(ctx, targetID); err == nil && target != nil {
		_, _ = s.sendRaw(ctx, target, screen{text: "Вас було видалено з бази даних."})
	}
	if err := s.students.Delete(ctx, targetID); err != nil {
		return err
	}
	s.log.Info("bot: student removed",
		zap.Int64("student", targetID), zap.Int64("admin", st.ID))
	return s.send(ctx, st, backWithNoteMenu("Студента видалено з бази даних."))
}

func (s *Service) btnListStudents(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	students, err := s.students.ListByGroup(ctx, st.Group)
	if err != nil {
		return err
	}
	return s.send(ctx, st, screen{text: studentListText(students)})
}

func (s *Service) btnChats(ctx context.Context, st *domain.Student, _ *tgbotapi.CallbackQuery, _ []string) error {
	chats, err := s.groups.ListByCohort(ctx, st.Group)
	if err != nil {
		return err
	}
	titles := make(map[int64]string, len(chats))
	for _, c := range chats {
		titles[c.ChatID] = s.chatTitle(c.ChatID)
	}
	return s.send(ctx, st, chatsMenu(chats, titles))
}

func (s *Service) btnChooseChat(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("choose_chat: bad args %v", args)
	}
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("choose_chat: bad id %q", args[0])
	}
	return s.showChat(ctx, st, chatID)
}

func (s *Service) showChat(ctx context.Context, st *domain.Student, chatID int64) error {
	g, err := s.groups.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if g == nil {
		return s.send(ctx, st, backWithNoteMenu("Чат не знайдено"))
	}
	return s.send(ctx, st, chatOptionsMenu(*g, s.chatTitle(chatID)))
}

func (s *Service) btnToggleChat(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("toggle_chat: bad args %v", args)
	}
	option := args[0]
	chatID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("toggle_chat: bad id %q", args[1])
	}

	g, err := s.groups.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if g == nil {
		return s.send(ctx, st, backWithNoteMenu("Чат не знайдено"))
	}

	switch option {
	case optMorningSchedule:
		err = s.groups.SetMorningSchedule(ctx, chatID, !g.MorningSchedule)
	case optDeadlineReminder:
		err = s.groups.SetDeadlineReminder(ctx, chatID, !g.DeadlineReminder)
	default:
		s.log.Error("bot: unknown chat option", zap.String("option", option))
		return nil
	}
	if err != nil {
		return err
	}
	return s.showChat(ctx, st, chatID)
}

func (s *Service) btnUnbindChat(ctx context.Context, st *domain.Student, q *tgbotapi.CallbackQuery, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("unbind_chat: bad args %v", args)
	}
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("unbind_chat: bad id %q", args[0])
	}
	if err := s.groups.Unbind(ctx, chatID); err != nil {
		return err
	}
	return s.btnChats(ctx, st, q, nil)
}

func (s *Service) knownGroup(g string) bool {
	for _, known := range s.cfg.Groups {
		if known == g {
			return true
		}
	}
	return false
}
