package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cohorts served by the bot, lowercase (also the spreadsheet tab names,
	// uppercased).
	Groups []string `env:"GROUPS" envDefault:"km31,km32,km33"`

	// Offsets (in days before due date) at which deadline reminders fire.
	RemindDaysBefore []int `env:"REMIND_DAYS_BEFORE" envDefault:"7,1,0"`

	// Google service-account key (JSON) for the spreadsheet fetchers.
	// Fetchers are disabled when empty.
	GoogleCreds           string `env:"GOOGLE_API_CREDS"`
	ScheduleSpreadsheetID string `env:"SCHEDULE_SPREADSHEET_ID"`
	MaterialSpreadsheetID string `env:"MATERIAL_SPREADSHEET_ID"`

	FetchInterval    time.Duration `env:"FETCH_INTERVAL" envDefault:"2m"`
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"30m"`

	Timezone string `env:"TZ" envDefault:"Europe/Kyiv"`
}

func Load() (Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
