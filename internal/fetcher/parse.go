package fetcher

import "github.com/klucly/NeonasBot/internal/domain"

// parseScheduleRows turns one spreadsheet range (one cohort, one week) into
// lessons. The day-of-week column is sparse: a day cell applies to every
// following row until the next one. Rows of a single cell are day headers;
// rows that are not exactly day/time/subject/type/url are decoration and
// skipped.
func parseScheduleRows(rows [][]string, cohort string, week int) []domain.Lesson {
	var out []domain.Lesson
	day := ""

	for _, row := range rows {
		if len(row) == 1 {
			if row[0] != "" {
				day = row[0]
			}
			continue
		}
		if len(row) != 5 {
			continue
		}

		possibleDay, start, subject, classType, link := row[0], row[1], row[2], row[3], row[4]
		if start == "" || subject == "" || classType == "" || link == "" {
			continue
		}
		if possibleDay != "" {
			day = possibleDay
		}
		if day == "" {
			continue
		}

		out = append(out, domain.Lesson{
			Cohort:    cohort,
			Day:       day,
			Week:      week,
			StartTime: start,
			Subject:   subject,
			ClassType: classType,
			URL:       link,
		})
	}
	return out
}

// parseMaterialRows reads name/url pairs; rows without a name are skipped.
func parseMaterialRows(rows [][]string, cohort string) []domain.Material {
	var out []domain.Material
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		m := domain.Material{Cohort: cohort, Name: row[0]}
		if len(row) > 1 {
			m.URL = row[1]
		}
		out = append(out, m)
	}
	return out
}
