package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/klucly/NeonasBot/internal/config"
	"github.com/klucly/NeonasBot/internal/domain"
)

// API is the slice of tgbotapi.BotAPI the service uses; tests substitute a
// fake.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(c tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetChatMember(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(c tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type StudentStore interface {
	Get(ctx context.Context, id int64) (*domain.Student, error)
	Create(ctx context.Context, id int64) (*domain.Student, error)
	Patch(ctx context.Context, id int64, p domain.StudentPatch) error
	Delete(ctx context.Context, id int64) error
	ListByGroup(ctx context.Context, group string) ([]domain.Student, error)
	Admins(ctx context.Context, group string) ([]int64, error)
}

type GroupStore interface {
	Get(ctx context.Context, chatID int64) (*domain.GroupChat, error)
	Bind(ctx context.Context, chatID int64, cohort string) error
	Unbind(ctx context.Context, chatID int64) error
	ListByCohort(ctx context.Context, cohort string) ([]domain.GroupChat, error)
	SetMorningSchedule(ctx context.Context, chatID int64, on bool) error
	SetDeadlineReminder(ctx context.Context, chatID int64, on bool) error
}

type DebtStore interface {
	AddBatch(ctx context.Context, d domain.Debt, studentIDs []int64) error
	ListByStudent(ctx context.Context, studentID int64) ([]domain.Debt, error)
	MarkDone(ctx context.Context, debtID, studentID int64) error
}

type VerificationStore interface {
	Add(ctx context.Context, v domain.PendingVerification) error
	HasPending(ctx context.Context, candidateID int64) (bool, error)
	FindCandidateByMessage(ctx context.Context, adminID int64, messageID int) (int64, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]domain.PendingVerification, error)
	DeleteForCandidate(ctx context.Context, candidateID int64) error
}

type ScheduleStore interface {
	Lessons(ctx context.Context, cohort, day string, week int) ([]domain.Lesson, error)
}

type MaterialStore interface {
	ListByCohort(ctx context.Context, cohort string) ([]domain.Material, error)
}

type Stores struct {
	Students      StudentStore
	Groups        GroupStore
	Debts         DebtStore
	Verifications VerificationStore
	Schedule      ScheduleStore
	Materials     MaterialStore
}

type Service struct {
	api API
	cfg config.Config
	log *zap.Logger

	students      StudentStore
	groups        GroupStore
	debts         DebtStore
	verifications VerificationStore
	schedule      ScheduleStore
	materials     MaterialStore

	buttons       map[string]buttonFunc
	continuations map[string]continuationFunc

	locks  userLocks
	drafts debtDrafts
}

func New(api API, cfg config.Config, log *zap.Logger, st Stores) *Service {
	s := &Service{
		api:           api,
		cfg:           cfg,
		log:           log,
		students:      st.Students,
		groups:        st.Groups,
		debts:         st.Debts,
		verifications: st.Verifications,
		schedule:      st.Schedule,
		materials:     st.Materials,
		locks:         userLocks{m: make(map[int64]*sync.Mutex)},
		drafts:        debtDrafts{m: make(map[int64]domain.Debt)},
	}
	s.buttons = s.buttonTable()
	s.continuations = s.continuationTable()
	return s
}

// Run installs the command list and consumes the update long poll until ctx
// is cancelled. Every update is handled on its own goroutine, serialized per
// user by a keyed mutex so two events for the same session never interleave.
func (s *Service) Run(ctx context.Context) error {
	if _, err := s.api.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Почати роботу з ботом"},
		tgbotapi.BotCommand{Command: "menu", Description: "Відкрити меню"},
		tgbotapi.BotCommand{Command: "schedule", Description: "Розклад на сьогодні"},
	)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.api.GetUpdatesChan(u)

	s.log.Info("bot: started")

	for {
		select {
		case <-ctx.Done():
			s.api.StopReceivingUpdates()
			s.log.Info("bot: shutdown")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			go s.handleLocked(ctx, upd)
		}
	}
}

func (s *Service) handleLocked(ctx context.Context, upd tgbotapi.Update) {
	uid := updateUserID(upd)
	if uid != 0 {
		unlock := s.locks.lock(uid)
		defer unlock()
	}

	if err := s.HandleUpdate(ctx, upd); err != nil {
		s.log.Error("bot: update failed", zap.Int64("user", uid), zap.Error(err))
	}
}

// HandleUpdate routes one inbound event. A fault here concerns a single
// user's interaction and never takes the service down.
func (s *Service) HandleUpdate(ctx context.Context, upd tgbotapi.Update) error {
	if upd.CallbackQuery != nil {
		return s.handleCallback(ctx, upd.CallbackQuery)
	}
	if upd.Message == nil {
		return nil
	}

	msg := upd.Message
	if !msg.Chat.IsPrivate() {
		return s.handleGroupMessage(ctx, msg)
	}

	if msg.IsCommand() {
		return s.handleCommand(ctx, msg)
	}
	if msg.Text != "" {
		return s.handleText(ctx, msg)
	}

	// Stickers, photos and the like have no place in the dialog.
	s.deleteMessage(msg.Chat.ID, msg.MessageID)
	return nil
}

func (s *Service) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	// The screen is rendered in place; the command itself is noise.
	s.deleteMessage(msg.Chat.ID, msg.MessageID)

	switch msg.Command() {
	case "start":
		return s.startPrivate(ctx, msg.From.ID)
	case "menu":
		return s.openMenu(ctx, msg.From.ID)
	case "admin":
		return s.selfPromote(ctx, msg.From.ID)
	case "forgetme":
		return s.forgetMe(ctx, msg.From.ID)
	case "schedule":
		return s.sendTodaySchedule(ctx, msg.From.ID)
	default:
		return nil
	}
}

func (s *Service) startPrivate(ctx context.Context, userID int64) error {
	st, err := s.students.Get(ctx, userID)
	if err != nil {
		return err
	}
	if st != nil && st.Verified {
		return s.send(ctx, st, mainMenu(st))
	}

	if st == nil {
		if st, err = s.students.Create(ctx, userID); err != nil {
			return err
		}
		s.log.Info("bot: new student", zap.Int64("user", userID))
	}

	return s.send(ctx, st, groupChoiceMenu(s.cfg.Groups))
}

func (s *Service) openMenu(ctx context.Context, userID int64) error {
	st, err := s.students.Get(ctx, userID)
	if err != nil || st == nil || !st.Verified {
		return err
	}
	return s.send(ctx, st, mainMenu(st))
}

func (s *Service) selfPromote(ctx context.Context, userID int64) error {
	st, err := s.students.Get(ctx, userID)
	if err != nil || st == nil {
		return err
	}
	return s.students.Patch(ctx, userID, domain.StudentPatch{IsAdmin: ptr(true)})
}

func (s *Service) forgetMe(ctx context.Context, userID int64) error {
	return s.students.Delete(ctx, userID)
}

func (s *Service) sendTodaySchedule(ctx context.Context, userID int64) error {
	st, err := s.students.Get(ctx, userID)
	if err != nil || st == nil {
		return err
	}
	text, err := s.scheduleText(ctx, st.Group, s.currentDay())
	if err != nil {
		return err
	}
	return s.send(ctx, st, screen{text: text, mode: tgbotapi.ModeMarkdown})
}

// handleGroupMessage serves /start (bind) and /schedule inside group chats;
// everything else in a group is ignored.
func (s *Service) handleGroupMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return nil
	}
	switch msg.Command() {
	case "start":
		return s.bindChat(ctx, msg)
	case "schedule":
		return s.sendGroupSchedule(ctx, msg)
	default:
		return nil
	}
}

func (s *Service) bindChat(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	st, err := s.students.Get(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if st == nil {
		return s.sendGroup(ctx, chatID, screen{text: "Ви маєте бути зареєстрованими для активації бота в групі"})
	}
	if !st.IsAdmin {
		return s.sendGroup(ctx, chatID, screen{text: "Ви маєте бути адміністратором для активації бота в групі"})
	}

	switch err := s.groups.Bind(ctx, chatID, st.Group); {
	case err == nil:
		s.log.Info("bot: chat bound",
			zap.Int64("chat", chatID), zap.String("cohort", st.Group))
		return s.sendGroup(ctx, chatID, screen{text: fmt.Sprintf("Групу встановлено для %s", st.Group)})
	case errors.Is(err, domain.ErrAlreadyBound):
		return s.sendGroup(ctx, chatID, screen{text: "Групу вже встановлено"})
	default:
		return err
	}
}

func (s *Service) sendGroupSchedule(ctx context.Context, msg *tgbotapi.Message) error {
	g, err := s.groups.Get(ctx, msg.Chat.ID)
	if err != nil {
		return err
	}
	if g == nil {
		return s.sendGroup(ctx, msg.Chat.ID, screen{text: "Чат не прив'язано до групи. Напишіть /start щоб прив'язати"})
	}
	return s.PushDaySchedule(ctx, g.Cohort, g.ChatID, s.currentDay())
}

// PushDaySchedule renders one day of a cohort's schedule into a chat. Used
// by the /schedule command in groups and by the morning reminder.
func (s *Service) PushDaySchedule(ctx context.Context, cohort string, chatID int64, day string) error {
	text, err := s.scheduleText(ctx, cohort, day)
	if err != nil {
		return err
	}
	return s.sendGroup(ctx, chatID, screen{text: text, mode: tgbotapi.ModeMarkdown})
}

// PushGroupText sends a standalone text into a chat (reminder pushes).
func (s *Service) PushGroupText(ctx context.Context, chatID int64, text string) error {
	return s.sendGroup(ctx, chatID, screen{text: text})
}

func (s *Service) scheduleText(ctx context.Context, cohort, day string) (string, error) {
	lessons, err := s.schedule.Lessons(ctx, cohort, day, currentWeek(time.Now()))
	if err != nil {
		return "", err
	}
	return scheduleScreenText(day, lessons), nil
}

func (s *Service) currentDay() string {
	return domain.DayName(time.Now().In(s.cfg.Location()).Weekday())
}

// currentWeek maps the ISO week parity onto the schedule's week 1/2 split.
func currentWeek(now time.Time) int {
	_, week := now.ISOWeek()
	return week%2 + 1
}

// displayName resolves the user's Telegram handle for admin-facing texts.
func (s *Service) displayName(userID int64) string {
	member, err := s.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: userID, UserID: userID},
	})
	if err != nil || member.User == nil {
		return "unknown"
	}
	if member.User.UserName != "" {
		return "@" + member.User.UserName
	}
	return member.User.FirstName
}

func (s *Service) chatTitle(chatID int64) string {
	chat, err := s.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return fmt.Sprintf("chat %d", chatID)
	}
	return chat.Title
}

func updateUserID(upd tgbotapi.Update) int64 {
	if upd.CallbackQuery != nil {
		return upd.CallbackQuery.From.ID
	}
	if upd.Message != nil && upd.Message.From != nil {
		return upd.Message.From.ID
	}
	return 0
}

// userLocks serializes handlers per user so two concurrent events cannot
// interleave writes to the same session record.
type userLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func (l *userLocks) lock(id int64) (unlock func()) {
	l.mu.Lock()
	mu, ok := l.m[id]
	if !ok {
		mu = &sync.Mutex{}
		l.m[id] = mu
	}
	l.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// debtDrafts holds per-admin deadline drafts between the free-text input and
// the confirmation press. In-memory only: a restart just asks the admin to
// re-enter the draft.
type debtDrafts struct {
	mu sync.Mutex
	m  map[int64]domain.Debt
}

func (d *debtDrafts) put(id int64, debt domain.Debt) {
	d.mu.Lock()
	d.m[id] = debt
	d.mu.Unlock()
}

func (d *debtDrafts) take(id int64) (domain.Debt, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	debt, ok := d.m[id]
	delete(d.m, id)
	return debt, ok
}

func ptr[T any](v T) *T { return &v }
