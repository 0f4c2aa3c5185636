package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/wytlabs/cardops/internal/core/events"
	entrypostgres "github.com/wytlabs/cardops/internal/entry/postgres"
	"github.com/wytlabs/cardops/internal/notification"
	notificationpostgres "github.com/wytlabs/cardops/internal/notification/postgres"
	"github.com/wytlabs/cardops/internal/ratesource"
	"github.com/wytlabs/cardops/internal/renewal"
	renewalpostgres "github.com/wytlabs/cardops/internal/renewal/postgres"
	userpostgres "github.com/wytlabs/cardops/internal/user/postgres"
	"github.com/wytlabs/cardops/pkg/logger"
)

var (
	schedulerCmd = &cobra.Command{
		Use:   "scheduler",
		Short: "Run the renewal lifecycle jobs on their cron schedules",
		Long:  `Runs reminder, auto-cancel notice, rollover, exchange-rate refresh, and retention cleanup jobs in-process.`,
		Run: func(cmd *cobra.Command, args []string) {
			startScheduler()
		},
	}
	reminderLeadOverride   int
	autoCancelLeadOverride int
)

func init() {
	schedulerCmd.Flags().IntVar(&reminderLeadOverride, "reminder-lead-days", 0, "override reminder lead days from config")
	schedulerCmd.Flags().IntVar(&autoCancelLeadOverride, "auto-cancel-lead-days", 0, "override auto-cancel lead days from config")
}

func startScheduler() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		lg.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := initGorm(db)
	if err != nil {
		lg.Error("failed to initialize orm", "error", err)
		os.Exit(1)
	}

	if reminderLeadOverride > 0 {
		config.Scheduler.ReminderLeadDays = reminderLeadOverride
	}
	if autoCancelLeadOverride > 0 {
		config.Scheduler.AutoCancelLeadDays = autoCancelLeadOverride
	}

	bus := events.NewEventBus(lg)

	var mailer notification.Mailer = notification.NoopMailer{}
	if config.Mail.Host != "" {
		mailer = notification.NewSMTPMailer(
			config.Mail.Host, config.Mail.Port,
			config.Mail.Username, config.Mail.Password,
			config.Mail.FromAddress)
	}
	dispatcher := notification.NewDispatcher(notification.DispatcherConfig{}, mailer, lg)
	dispatcher.SubscribeTo(bus)
	defer dispatcher.Shutdown()

	notificationService := notification.NewService(
		notificationpostgres.NewNotificationRepository(gormDB), bus, lg)

	rateClient := ratesource.NewClient(ratesource.Config{
		QuoteURL: config.Rates.QuoteURL,
		APIKey:   config.Rates.APIKey,
		Timeout:  config.Rates.Timeout,
	}, lg)

	renewalService := renewal.NewService(
		entrypostgres.NewEntryRepository(gormDB),
		renewalpostgres.NewRenewalLogRepository(gormDB),
		userpostgres.NewUserRepository(gormDB),
		notificationService,
		rateClient,
		bus,
		renewal.Config{
			ReminderLeadDays:   config.Scheduler.ReminderLeadDays,
			AutoCancelLeadDays: config.Scheduler.AutoCancelLeadDays,
			RetentionDays:      config.Scheduler.RetentionDays,
			BaseCurrency:       config.Rates.BaseCurrency,
		}, lg)

	engine := cron.New()
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"renewal-reminders", config.Scheduler.ReminderSpec, renewalService.RunReminderJob},
		{"auto-cancel-notices", config.Scheduler.AutoCancelSpec, renewalService.RunAutoCancelJob},
		{"rollover", config.Scheduler.RolloverSpec, renewalService.RunRolloverJob},
		{"rate-refresh", config.Scheduler.RateRefreshSpec, renewalService.RunRateRefreshJob},
		{"retention-cleanup", config.Scheduler.RetentionSpec, renewalService.RunRetentionJob},
	}

	for _, job := range jobs {
		name, run := job.name, job.run
		if _, err := engine.AddFunc(job.spec, func() {
			lg.Info("scheduled job starting", "job", name)
			if err := run(context.Background()); err != nil {
				lg.Error("scheduled job failed", "job", name, "error", err)
				return
			}
			lg.Info("scheduled job finished", "job", name)
		}); err != nil {
			lg.Error("invalid cron spec", "job", name, "spec", job.spec, "error", err)
			os.Exit(1)
		}
		lg.Info("scheduled job registered", "job", name, "spec", job.spec)
	}

	engine.Start()
	lg.Info("scheduler started", "jobs", len(jobs))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	lg.Info("received signal, stopping scheduler", "signal", sig)
	<-engine.Stop().Done()
	lg.Info("scheduler stopped")
}
