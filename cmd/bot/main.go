package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klucly/NeonasBot/internal/bot"
	"github.com/klucly/NeonasBot/internal/config"
	"github.com/klucly/NeonasBot/internal/db"
	"github.com/klucly/NeonasBot/internal/fetcher"
	"github.com/klucly/NeonasBot/internal/reminder"
	"github.com/klucly/NeonasBot/internal/repo"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("boot: config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := db.MustConnect(ctx, cfg.DatabaseURL)
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, "./migrations"); err != nil {
		logger.Fatal("boot: migrations", zap.Error(err))
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("boot: bot init", zap.Error(err))
	}

	rGroups := repo.NewGroups(pool)
	rDebts := repo.NewDebts(pool)
	rSchedule := repo.NewSchedule(pool)
	rMaterials := repo.NewMaterials(pool)

	svc := bot.New(api, cfg, logger, bot.Stores{
		Students:      repo.NewStudents(pool),
		Groups:        rGroups,
		Debts:         rDebts,
		Verifications: repo.NewVerifications(pool),
		Schedule:      rSchedule,
		Materials:     rMaterials,
	})

	logger.Info("boot: running services", zap.String("bot", api.Self.UserName))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error {
		return reminder.New(cfg, logger, svc, rGroups, rDebts).Run(ctx)
	})

	// The spreadsheet fetchers only run with a service-account key.
	if cfg.GoogleCreds == "" {
		logger.Warn("boot: GOOGLE_API_CREDS not set, fetchers disabled")
	} else {
		schedFetcher, err := fetcher.NewSchedule(ctx, cfg, logger, rSchedule)
		if err != nil {
			logger.Fatal("boot: schedule fetcher", zap.Error(err))
		}
		matFetcher, err := fetcher.NewMaterials(ctx, cfg, logger, rMaterials)
		if err != nil {
			logger.Fatal("boot: materials fetcher", zap.Error(err))
		}
		g.Go(func() error { return schedFetcher.Run(ctx) })
		g.Go(func() error { return matFetcher.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("boot: service failed", zap.Error(err))
	}
	logger.Info("boot: exiting")
}
