package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/klucly/NeonasBot/internal/domain"
)

// Chat option names carried inside toggle_chat(...) tokens.
const (
	optMorningSchedule  = "morning_schedule"
	optDeadlineReminder = "deadline_reminder"
)

const (
	materialsSheetURL = "https://docs.google.com/spreadsheets/d/1bfFIgVgv-dDK0HOcMw1qr861vWI8IXJyTEzcDGYMDDc/edit"
	scheduleSheetURL  = "https://docs.google.com/spreadsheets/d/1gsxm1onrT76UYZxuT7b-qyO-haWiWk7igKwvSB0LLbg/edit"
)

// Menus are pure: (session state, args) in, screen out. All delivery goes
// through the messenger.

func groupChoiceMenu(groups []string) screen {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(strings.ToUpper(g), FormatButton("choose_group", g)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return screen{text: "Виберіть свою групу:", keyboard: &kb}
}

func nameConfirmMenu(st *domain.Student) screen {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Надіслати на перевірку", "submit_verification")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Змінити дані", "restart")),
	)
	return screen{
		text:     fmt.Sprintf("Ви %s з %s. Правильно?", st.RealName, st.Group),
		keyboard: &kb,
	}
}

func mainMenu(st *domain.Student) screen {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Розклад", "schedule")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Матеріали", "materials")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Дедлайни", "debts")),
	}
	if st.IsAdmin {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Адмін-панель", "admin_panel")))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return screen{text: "Вітаю у меню", keyboard: &kb}
}

func adminPanelMenu() screen {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Повідомлення студентам", "broadcast")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Видалити студента", "delete_student_menu")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Список студентів", "list_students")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Посилання", "links")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Чати", "chats")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Назад", "menu")),
	)
	return screen{text: "Вітаю у меню для старост", keyboard: &kb}
}

func scheduleDayMenu() screen {
	days := []string{"Понеділок", "Вівторок", "Середа", "Четвер", "П'ятниця"}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(days)+1)
	for _, d := range days {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(d, FormatButton("schedule_day", d))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Назад", "menu")))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return screen{text: "Оберіть день:", keyboard: &kb}
}

func scheduleScreenText(day string, lessons []domain.Lesson) string {
	if len(lessons) == 0 {
		return fmt.Sprintf("Не знайдено розкладу на %s.", day)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Розклад на %s:\n\n", strings.ToLower(day))
	for _, l := range lessons {
		fmt.Fprintf(&b, "%s %s - [%s](%s)\n\n", l.StartTime, l.Subject, l.ClassType, l.URL)
	}
	return b.String()
}

func debtsAdminMenu() screen {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Мої дедлайни", "debts_list")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Додати дедлайн", "add_debt")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Назад", "menu")),
	)
	return screen{text: "Дедлайни:", keyboard: &kb}
}

func debtsListMenu(debts []domain.Debt) screen {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Позначити готовим", "mark_done")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Повернутися в меню", "menu")),
	)
	return screen{
		text:     debtsListText(debts),
		keyboard: &kb,
		mode:     tgbotapi.ModeMarkdownV2,
	}
}

// debtsListText renders the numbered deadline list; done items are struck
// through. The numbering is what mark_done input refers to.
func debtsListText(debts []domain.Debt) string {
	if len(debts) == 0 {
		return "Дедлайнів немає"
	}

	var b strings.Builder
	for i, d := range debts {
		line := fmt.Sprintf("%d. %s: %s, %s",
			i+1, d.DueDate.Format("02/01/2006"), d.Subject, d.Body)
		line = escapeMarkdownV2(line)
		if d.Done {
			line = "~" + line + "~"
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func confirmDebtMenu(d domain.Debt) screen {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Так", "confirm_debt")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Ні", FormatButton("back_with_note", "Додавання скасовано"))),
	)
	return screen{
		text: fmt.Sprintf("Тема: %s\nТекст: %s\nДата: %s\nПравильно?",
			d.Subject, d.Body, d.DueDate.Format("02/01/2006")),
		keyboard: &kb,
	}
}

func backWithNoteMenu(note string) screen {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Повернутися в меню", "menu")),
	)
	return screen{text: note, keyboard: &kb}
}

func adminMaterialsMenu() screen {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Таблиця з матеріалами", materialsSheetURL)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Подивитися матеріали", "view_materials")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Назад", "menu")),
	)
	return screen{text: "Оберіть опцію:", keyboard: &kb}
}

func materialsText(cohort string, materials []domain.Material) string {
	if len(materials) == 0 {
		return fmt.Sprintf("Немає матеріалів для %s.", cohort)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Матеріали для *%s*:\n", cohort)
	for _, m := range materials {
		fmt.Fprintf(&b, "[%s](%s)\n%s\n", m.Name, m.URL, strings.Repeat("=", 10))
	}
	return b.String()
}

func linksMenu() screen {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Матеріали (Посилання)", materialsSheetURL)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Розклад (Посилання)", scheduleSheetURL)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Назад", "admin_panel")),
	)
	return screen{text: "Оберіть опцію:", keyboard: &kb}
}

func deleteStudentMenu(students []domain.Student) screen {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(students)+1)
	for _, st := range students {
		name := st.RealName
		if name == "" {
			name = strconv.FormatInt(st.ID, 10)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(name,
				FormatButton("delete_student", strconv.FormatInt(st.ID, 10)))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Назад", "admin_panel")))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return screen{text: "Оберіть людину для видалення", keyboard: &kb}
}

func studentListText(students []domain.Student) string {
	if len(students) == 0 {
		return "Студентів не знайдено"
	}
	var b strings.Builder
	for _, st := range students {
		fmt.Fprintf(&b, "%s  [%d]\n\n", st.RealName, st.ID)
	}
	return b.String()
}

func chatsMenu(chats []domain.GroupChat, titles map[int64]string) screen {
	if len(chats) == 0 {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Назад", "admin_panel")),
		)
		return screen{
			text:     "Чатів не знайдено. Напишіть /start у чаті щоб прив'язати",
			keyboard: &kb,
		}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(chats)+1)
	for _, c := range chats {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(titles[c.ChatID],
				FormatButton("choose_chat", strconv.FormatInt(c.ChatID, 10)))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Назад", "admin_panel")))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return screen{text: "Оберіть чат:", keyboard: &kb}
}

func chatOptionsMenu(g domain.GroupChat, title string) screen {
	chatArg := strconv.FormatInt(g.ChatID, 10)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			checkbox(g.MorningSchedule)+" Надсилати розклад зранку",
			FormatButton("toggle_chat", optMorningSchedule, chatArg))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			checkbox(g.DeadlineReminder)+" Нагадування про дедлайн",
			FormatButton("toggle_chat", optDeadlineReminder, chatArg))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			"Відв'язати чат", FormatButton("unbind_chat", chatArg))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Назад", "chats")),
	)
	return screen{text: title, keyboard: &kb}
}

func checkbox(on bool) string {
	if on {
		return "🗹"
	}
	return "☐"
}

var markdownV2Escaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdownV2(s string) string {
	return markdownV2Escaper.Replace(s)
}
