package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klucly/NeonasBot/internal/domain"
)

func TestStartCreatesSessionAndAsksForGroup(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	students := newFakeStudents()
	s := newTestService(api, Stores{Students: students})

	require.NoError(t, s.startPrivate(ctx, 1))

	got, err := students.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Verified)

	require.Len(t, api.messages, 1)
	assert.Equal(t, "Виберіть свою групу:", api.messages[0].Text)
}

func TestStartForVerifiedUserOpensMenu(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	students := newFakeStudents(domain.Student{ID: 1, Verified: true, Group: "km31"})
	s := newTestService(api, Stores{Students: students})

	require.NoError(t, s.startPrivate(ctx, 1))

	require.Len(t, api.messages, 1)
	assert.Equal(t, "Вітаю у меню", api.messages[0].Text)
}

func groupCommand(userID, chatID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 9,
		From:      &tgbotapi.User{ID: userID},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "supergroup", Title: "KM-31"},
		Text:      "/start",
	}
}

func TestBindChatRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	students := newFakeStudents(domain.Student{ID: 1, Verified: true, Group: "km31"})
	groups := newFakeGroups()
	s := newTestService(api, Stores{Students: students, Groups: groups})

	require.NoError(t, s.bindChat(ctx, groupCommand(1, -100)))

	g, err := groups.Get(ctx, -100)
	require.NoError(t, err)
	assert.Nil(t, g)
	require.Len(t, api.messages, 1)
	assert.Contains(t, api.messages[0].Text, "адміністратором")
}

func TestBindChatOncePerChat(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	students := newFakeStudents(domain.Student{ID: 1, Verified: true, IsAdmin: true, Group: "km31"})
	groups := newFakeGroups()
	s := newTestService(api, Stores{Students: students, Groups: groups})

	require.NoError(t, s.bindChat(ctx, groupCommand(1, -100)))

	g, err := groups.Get(ctx, -100)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "km31", g.Cohort)

	require.NoError(t, s.bindChat(ctx, groupCommand(1, -100)))
	require.Len(t, api.messages, 2)
	assert.Equal(t, "Групу вже встановлено", api.messages[1].Text)
}

func TestCurrentWeekFollowsISOParity(t *testing.T) {
	// 2026-08-24 falls in ISO week 35, 2026-08-31 in week 36.
	assert.Equal(t, 2, currentWeek(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, currentWeek(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)))
}

func TestUpdateUserID(t *testing.T) {
	assert.Equal(t, int64(7), updateUserID(tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 7}},
	}))
	assert.Equal(t, int64(8), updateUserID(tgbotapi.Update{
		Message: &tgbotapi.Message{From: &tgbotapi.User{ID: 8}},
	}))
	assert.Equal(t, int64(0), updateUserID(tgbotapi.Update{}))
}
