package bot

import (
	"errors"
	"strings"
	"time"

	"github.com/klucly/NeonasBot/internal/domain"
)

// Deadline input format: "<subject>: <text> | <dd>/<mm>/<yyyy>".

var errBadDebtInput = errors.New("bad deadline input")

func parseDebtInput(input string) (domain.Debt, error) {
	subject, rest, ok := strings.Cut(input, ":")
	if !ok {
		return domain.Debt{}, errBadDebtInput
	}
	body, date, ok := strings.Cut(rest, "|")
	if !ok {
		return domain.Debt{}, errBadDebtInput
	}

	due, err := time.Parse("2/1/2006", strings.TrimSpace(date))
	if err != nil {
		return domain.Debt{}, errBadDebtInput
	}

	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" || body == "" {
		return domain.Debt{}, errBadDebtInput
	}

	return domain.Debt{Subject: subject, Body: body, DueDate: due}, nil
}
