package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDebtInput(t *testing.T) {
	d, err := parseDebtInput("Матан: здати дз 3 | 7/10/2026")
	require.NoError(t, err)
	assert.Equal(t, "Матан", d.Subject)
	assert.Equal(t, "здати дз 3", d.Body)
	assert.Equal(t, time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC), d.DueDate)

	// Zero-padded dates parse too.
	d, err = parseDebtInput("Фізика: лаба | 07/01/2027")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 1, 7, 0, 0, 0, 0, time.UTC), d.DueDate)
}

func TestParseDebtInputRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"без розділювачів",
		"Тема: текст без дати",
		"Тема: текст | не дата",
		"Тема: текст | 40/40/2026",
		": текст | 1/1/2026",
		"Тема:  | 1/1/2026",
	} {
		_, err := parseDebtInput(input)
		assert.Error(t, err, "input %q", input)
	}
}
