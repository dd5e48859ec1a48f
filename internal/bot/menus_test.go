package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/klucly/NeonasBot/internal/domain"
)

func TestMainMenuAdminRow(t *testing.T) {
	plain := mainMenu(&domain.Student{ID: 1})
	admin := mainMenu(&domain.Student{ID: 1, IsAdmin: true})

	assert.Len(t, plain.keyboard.InlineKeyboard, 3)
	assert.Len(t, admin.keyboard.InlineKeyboard, 4)
}

func TestDebtsListTextNumbersAndStrikes(t *testing.T) {
	due := time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC)
	text := debtsListText([]domain.Debt{
		{Subject: "Матан", Body: "дз 3", DueDate: due},
		{Subject: "Фізика", Body: "лаба", DueDate: due, Done: true},
	})

	assert.Contains(t, text, "1\\. 07/10/2026: Матан, дз 3")
	assert.Contains(t, text, "~2\\. 07/10/2026: Фізика, лаба~")
	assert.Equal(t, "Дедлайнів немає", debtsListText(nil))
}

func TestScheduleScreenText(t *testing.T) {
	text := scheduleScreenText("Понеділок", []domain.Lesson{
		{StartTime: "8:30", Subject: "Матан", ClassType: "Лекція", URL: "https://a"},
	})
	assert.Contains(t, text, "Розклад на понеділок:")
	assert.Contains(t, text, "8:30 Матан - [Лекція](https://a)")

	assert.Equal(t, "Не знайдено розкладу на Субота.",
		scheduleScreenText("Субота", nil))
}

func TestChatOptionsMenuCheckboxes(t *testing.T) {
	sc := chatOptionsMenu(domain.GroupChat{
		ChatID: -100, MorningSchedule: true, DeadlineReminder: false,
	}, "KM-31")

	rows := sc.keyboard.InlineKeyboard
	assert.Contains(t, rows[0][0].Text, "🗹")
	assert.Contains(t, rows[1][0].Text, "☐")
	assert.Equal(t, "toggle_chat(morning_schedule,-100)", *rows[0][0].CallbackData)
	assert.Equal(t, "toggle_chat(deadline_reminder,-100)", *rows[1][0].CallbackData)
	assert.Equal(t, "unbind_chat(-100)", *rows[2][0].CallbackData)
}

func TestEveryMenuButtonIsRoutable(t *testing.T) {
	s := newTestService(&fakeAPI{}, Stores{})
	admin := &domain.Student{ID: 1, IsAdmin: true, Group: "km31"}

	screens := []screen{
		groupChoiceMenu([]string{"km31", "km32"}),
		nameConfirmMenu(admin),
		mainMenu(admin),
		adminPanelMenu(),
		scheduleDayMenu(),
		debtsAdminMenu(),
		debtsListMenu(nil),
		confirmDebtMenu(domain.Debt{DueDate: time.Now()}),
		backWithNoteMenu("note"),
		adminMaterialsMenu(),
		linksMenu(),
		deleteStudentMenu([]domain.Student{{ID: 5, RealName: "Хтось"}}),
		chatsMenu([]domain.GroupChat{{ChatID: -100}}, map[int64]string{-100: "KM-31"}),
		chatOptionsMenu(domain.GroupChat{ChatID: -100}, "KM-31"),
	}

	for _, sc := range screens {
		for _, row := range sc.keyboard.InlineKeyboard {
			for _, btn := range row {
				if btn.CallbackData == nil {
					continue // URL buttons
				}
				name, _, err := parseButton(*btn.CallbackData)
				assert.NoError(t, err, *btn.CallbackData)
				assert.Contains(t, s.buttons, name, *btn.CallbackData)
			}
		}
	}
}
