package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"agro-attendance/internal/config"
	"agro-attendance/internal/handler"
	"agro-attendance/internal/repository"
	"agro-attendance/internal/service"
	"agro-attendance/pkg/attendanceapi"
	"agro-attendance/pkg/telegram"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	logrus.Info("Config initialized...")

	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	operatorRepo, err := repository.NewGormOperatorRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create operator repository")
	}
	settingsRepo, err := repository.NewGormDefaultSettingsRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create default settings repository")
	}
	submissionRepo, err := repository.NewGormSubmissionRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create submission repository")
	}
	totalsRepo, err := repository.NewGormDailyTotalsRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create daily totals repository")
	}
	calendarRepo, err := repository.NewGormNonWorkingDayRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create calendar repository")
	}

	operatorService := service.NewOperatorService(operatorRepo)
	if err := operatorService.InitializeAdmin(cfg.BaseAdminChatID); err != nil {
		logrus.Warnf("Failed to initialize admin: %v", err)
	} else if cfg.BaseAdminChatID > 0 {
		logrus.Infof("Admin initialized with chat ID: %d", cfg.BaseAdminChatID)
	}

	settingsService := service.NewDefaultSettingsService(settingsRepo, service.FallbackFromConfig(cfg))
	if err := service.ValidateDefaults(settingsService.Current()); err != nil {
		logrus.WithError(err).Fatal("Invalid default settings")
	}

	calendarService := service.NewCalendarService(calendarRepo)
	if cfg.CalendarFile != "" {
		if n, err := calendarService.LoadFromFile(cfg.CalendarFile); err != nil {
			logrus.Warnf("Failed to load calendar %s: %v", cfg.CalendarFile, err)
		} else {
			logrus.Infof("Loaded %d non-working days", n)
		}
	}

	api, err := attendanceapi.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.APITimeout)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create attendance API client")
	}

	client, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
	if err != nil {
		logrus.Fatal("Failed to create Telegram client:", err)
	}
	logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)

	botHandler := handler.NewHandler(
		client,
		api,
		operatorService,
		settingsService,
		service.NewReportService(totalsRepo),
		calendarService,
		submissionRepo,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		botHandler.HandleUpdates(ctx, client.Updates())
	}()

	logrus.Info("Bot started. Press Ctrl+C to stop.")
	<-ctx.Done()

	client.Stop()
	<-done

	if err := sqlDB.Close(); err != nil {
		logrus.Warnf("Error closing database: %v", err)
	}

	logrus.Info("Bot stopped gracefully")
}
