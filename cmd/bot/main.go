package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"ethiopian-history-bot/internal/adapter/filestore"
	"ethiopian-history-bot/internal/adapter/filewatch"
	"ethiopian-history-bot/internal/adapter/memory"
	"ethiopian-history-bot/internal/adapter/openai"
	"ethiopian-history-bot/internal/adapter/telegram"
	"ethiopian-history-bot/internal/config"
	"ethiopian-history-bot/internal/scheduler"
	"ethiopian-history-bot/internal/usecase/dispatch"
	"ethiopian-history-bot/internal/usecase/fact"
	"ethiopian-history-bot/internal/usecase/quiz"
	"ethiopian-history-bot/internal/usecase/theme"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg, err := config.Load(".env", log)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		os.Exit(1)
	}
	log.SetLevel(cfg.LogLevel)
	log.Info("starting Ethiopian history bot")

	subscribers := filestore.NewSubscribers(cfg.SubscribersFile, log)
	themeSvc := theme.NewService(filestore.NewThemes(cfg.ThemesFile, log), cfg.ThemesEnabled, cfg.Location, log)
	factSvc := fact.NewService(openai.NewClient(cfg.LLMKey, cfg.LLMBaseURL), fact.Config{
		Model:       cfg.LLMModel,
		Timeout:     cfg.LLMTimeout,
		Concurrency: cfg.LLMConcurrency,
	}, log)

	bank, err := quiz.NewBank()
	if err != nil {
		log.WithError(err).Fatal("failed to load quiz questions")
	}
	if cfg.QuizFile != "" {
		w, err := filewatch.LoadAndWatch(cfg.QuizFile, bank, log)
		if err != nil {
			log.WithError(err).WithField("path", cfg.QuizFile).Warn("using built-in quiz questions")
		} else {
			defer w.Close()
		}
	}
	quizSvc := quiz.NewService(bank, memory.NewStore(), cfg.QuizTTL, log)

	handler := telegram.NewHandler(telegram.HandlerConfig{
		Subscriptions: subscribers,
		Facts:         factSvc,
		Themes:        themeSvc,
		Quiz:          quizSvc,
		IsAdmin:       cfg.IsThemeAdmin,
		SendTime:      cfg.DailySendTime.String(),
	}, log)
	bot, err := telegram.NewBot(telegram.Config{
		Token:       cfg.TelegramToken,
		SendRate:    cfg.SendRate,
		SendTimeout: cfg.SendTimeout,
	}, handler, log)
	if err != nil {
		log.WithError(err).Fatal("failed to init telegram bot")
	}

	dispatchSvc := dispatch.NewService(subscribers, themeSvc, factSvc, bot, log)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := bot.RegisterCommands(ctx); err != nil {
		log.WithError(err).Warn("failed to register command menu")
	}

	jobs := []scheduler.Job{
		{
			Name: "daily_fact",
			Spec: scheduler.DailySpec(cfg.DailySendTime.Hour, cfg.DailySendTime.Minute),
			Run: func(ctx context.Context) error {
				_, err := dispatchSvc.Daily(ctx)
				return err
			},
		},
		{
			Name: "quiz_sweep",
			Spec: "@hourly",
			Run: func(context.Context) error {
				quizSvc.Sweep()
				return nil
			},
		},
	}
	if cfg.ThemesEnabled {
		jobs = append(jobs, scheduler.Job{
			Name: "weekly_summary",
			Spec: scheduler.WeeklySummarySpec,
			Run: func(ctx context.Context) error {
				_, err := dispatchSvc.WeeklySummary(ctx)
				return err
			},
		})
	}
	log.WithFields(logrus.Fields{
		"send_time": cfg.DailySendTime.String(),
		"timezone":  cfg.Location.String(),
		"themes":    cfg.ThemesEnabled,
	}).Info("scheduling daily facts")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx)
	})
	g.Go(func() error {
		return scheduler.New(cfg.Location, log).Run(ctx, jobs...)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("bot stopped with error")
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
