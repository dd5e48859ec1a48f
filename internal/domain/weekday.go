package domain

import "time"

// DayName maps a weekday onto the localized day names used by the schedule
// sheet and the schedule_day buttons.
func DayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "Понеділок"
	case time.Tuesday:
		return "Вівторок"
	case time.Wednesday:
		return "Середа"
	case time.Thursday:
		return "Четвер"
	case time.Friday:
		return "П'ятниця"
	case time.Saturday:
		return "Субота"
	default:
		return "Неділя"
	}
}
