package bot

import (
	"context"
	"errors"
	"sort"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/klucly/NeonasBot/internal/config"
	"github.com/klucly/NeonasBot/internal/domain"
)

// fakeAPI records outbound traffic instead of talking to Telegram. Message
// ids are handed out sequentially starting from 1.
type fakeAPI struct {
	mu       sync.Mutex
	nextID   int
	messages []tgbotapi.MessageConfig
	edits    []tgbotapi.EditMessageTextConfig
	deletes  []tgbotapi.DeleteMessageConfig
	acks     []tgbotapi.CallbackConfig

	editErr error
	sendErr error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := c.(type) {
	case tgbotapi.EditMessageTextConfig:
		if f.editErr != nil {
			return tgbotapi.Message{}, f.editErr
		}
		f.edits = append(f.edits, v)
		return tgbotapi.Message{MessageID: v.MessageID}, nil
	case tgbotapi.MessageConfig:
		if f.sendErr != nil {
			return tgbotapi.Message{}, f.sendErr
		}
		f.nextID++
		f.messages = append(f.messages, v)
		return tgbotapi.Message{MessageID: f.nextID}, nil
	default:
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := c.(type) {
	case tgbotapi.DeleteMessageConfig:
		f.deletes = append(f.deletes, v)
	case tgbotapi.CallbackConfig:
		f.acks = append(f.acks, v)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChat(c tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	return tgbotapi.Chat{ID: c.ChatID, Title: "test chat"}, nil
}

func (f *fakeAPI) GetChatMember(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	return tgbotapi.ChatMember{User: &tgbotapi.User{ID: c.UserID, UserName: "someone"}}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return nil }

func (f *fakeAPI) StopReceivingUpdates() {}

type fakeStudents struct {
	m map[int64]*domain.Student
}

func newFakeStudents(students ...domain.Student) *fakeStudents {
	f := &fakeStudents{m: make(map[int64]*domain.Student)}
	for i := range students {
		st := students[i]
		f.m[st.ID] = &st
	}
	return f
}

func (f *fakeStudents) Get(_ context.Context, id int64) (*domain.Student, error) {
	st, ok := f.m[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStudents) Create(_ context.Context, id int64) (*domain.Student, error) {
	if _, ok := f.m[id]; !ok {
		f.m[id] = &domain.Student{ID: id}
	}
	cp := *f.m[id]
	return &cp, nil
}

func (f *fakeStudents) Patch(_ context.Context, id int64, p domain.StudentPatch) error {
	st, ok := f.m[id]
	if !ok {
		return errors.New("no such student")
	}
	if p.Verified != nil {
		st.Verified = *p.Verified
	}
	if p.RealName != nil {
		st.RealName = *p.RealName
	}
	if p.Group != nil {
		st.Group = *p.Group
	}
	if p.IsInputting != nil {
		st.IsInputting = *p.IsInputting
	}
	if p.Continuation != nil {
		st.Continuation = *p.Continuation
	}
	if p.MainMessage != nil {
		st.MainMessage = *p.MainMessage
	}
	if p.MainMessageFresh != nil {
		st.MainMessageFresh = *p.MainMessageFresh
	}
	if p.IsAdmin != nil {
		st.IsAdmin = *p.IsAdmin
	}
	return nil
}

func (f *fakeStudents) Delete(_ context.Context, id int64) error {
	delete(f.m, id)
	return nil
}

func (f *fakeStudents) ListByGroup(_ context.Context, group string) ([]domain.Student, error) {
	var out []domain.Student
	for _, st := range f.m {
		if st.Group == group {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStudents) Admins(_ context.Context, group string) ([]int64, error) {
	var out []int64
	for _, st := range f.m {
		if st.Group == group && st.IsAdmin {
			out = append(out, st.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

type fakeGroups struct {
	m map[int64]*domain.GroupChat
}

func newFakeGroups(chats ...domain.GroupChat) *fakeGroups {
	f := &fakeGroups{m: make(map[int64]*domain.GroupChat)}
	for i := range chats {
		c := chats[i]
		f.m[c.ChatID] = &c
	}
	return f
}

func (f *fakeGroups) Get(_ context.Context, chatID int64) (*domain.GroupChat, error) {
	g, ok := f.m[chatID]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGroups) Bind(_ context.Context, chatID int64, cohort string) error {
	if _, ok := f.m[chatID]; ok {
		return domain.ErrAlreadyBound
	}
	f.m[chatID] = &domain.GroupChat{ChatID: chatID, Cohort: cohort}
	return nil
}

func (f *fakeGroups) Unbind(_ context.Context, chatID int64) error {
	delete(f.m, chatID)
	return nil
}

func (f *fakeGroups) ListByCohort(_ context.Context, cohort string) ([]domain.GroupChat, error) {
	var out []domain.GroupChat
	for _, g := range f.m {
		if g.Cohort == cohort {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func (f *fakeGroups) SetMorningSchedule(_ context.Context, chatID int64, on bool) error {
	if g, ok := f.m[chatID]; ok {
		g.MorningSchedule = on
	}
	return nil
}

func (f *fakeGroups) SetDeadlineReminder(_ context.Context, chatID int64, on bool) error {
	if g, ok := f.m[chatID]; ok {
		g.DeadlineReminder = on
	}
	return nil
}

type fakeDebts struct {
	nextID int64
	debts  []domain.Debt
}

func (f *fakeDebts) AddBatch(_ context.Context, d domain.Debt, studentIDs []int64) error {
	for _, id := range studentIDs {
		f.nextID++
		row := d
		row.ID = f.nextID
		row.StudentID = id
		f.debts = append(f.debts, row)
	}
	return nil
}

func (f *fakeDebts) ListByStudent(_ context.Context, studentID int64) ([]domain.Debt, error) {
	var out []domain.Debt
	for _, d := range f.debts {
		if d.StudentID == studentID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDebts) MarkDone(_ context.Context, debtID, studentID int64) error {
	for i := range f.debts {
		if f.debts[i].ID == debtID && f.debts[i].StudentID == studentID {
			f.debts[i].Done = true
			return nil
		}
	}
	return errors.New("no such debt")
}

type fakeVerifications struct {
	entries []domain.PendingVerification
}

func (f *fakeVerifications) Add(_ context.Context, v domain.PendingVerification) error {
	f.entries = append(f.entries, v)
	return nil
}

func (f *fakeVerifications) HasPending(_ context.Context, candidateID int64) (bool, error) {
	for _, e := range f.entries {
		if e.CandidateID == candidateID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVerifications) FindCandidateByMessage(_ context.Context, adminID int64, messageID int) (int64, error) {
	for _, e := range f.entries {
		if e.AdminID == adminID && e.MessageID == messageID {
			return e.CandidateID, nil
		}
	}
	return 0, nil
}

func (f *fakeVerifications) ListByCandidate(_ context.Context, candidateID int64) ([]domain.PendingVerification, error) {
	var out []domain.PendingVerification
	for _, e := range f.entries {
		if e.CandidateID == candidateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeVerifications) DeleteForCandidate(_ context.Context, candidateID int64) error {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.CandidateID != candidateID {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

type fakeSchedule struct {
	lessons []domain.Lesson
}

func (f *fakeSchedule) Lessons(_ context.Context, cohort, day string, week int) ([]domain.Lesson, error) {
	var out []domain.Lesson
	for _, l := range f.lessons {
		if l.Cohort == cohort && l.Day == day && l.Week == week {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeMaterials struct {
	materials []domain.Material
}

func (f *fakeMaterials) ListByCohort(_ context.Context, cohort string) ([]domain.Material, error) {
	var out []domain.Material
	for _, m := range f.materials {
		if m.Cohort == cohort {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestService(api *fakeAPI, st Stores) *Service {
	if st.Students == nil {
		st.Students = newFakeStudents()
	}
	if st.Groups == nil {
		st.Groups = newFakeGroups()
	}
	if st.Debts == nil {
		st.Debts = &fakeDebts{}
	}
	if st.Verifications == nil {
		st.Verifications = &fakeVerifications{}
	}
	if st.Schedule == nil {
		st.Schedule = &fakeSchedule{}
	}
	if st.Materials == nil {
		st.Materials = &fakeMaterials{}
	}

	cfg := config.Config{
		Groups:           []string{"km31", "km32", "km33"},
		RemindDaysBefore: []int{7, 1, 0},
		Timezone:         "UTC",
	}
	return New(api, cfg, zap.NewNop(), st)
}
