package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/catalog"
	"github.com/wytlabs/cardops/internal/core/events"
	"github.com/wytlabs/cardops/internal/entry"
	entrypostgres "github.com/wytlabs/cardops/internal/entry/postgres"
	"github.com/wytlabs/cardops/internal/ingest"
	"github.com/wytlabs/cardops/internal/notification"
	notificationpostgres "github.com/wytlabs/cardops/internal/notification/postgres"
	"github.com/wytlabs/cardops/internal/ratesource"
	"github.com/wytlabs/cardops/internal/renewal"
	renewalpostgres "github.com/wytlabs/cardops/internal/renewal/postgres"
	"github.com/wytlabs/cardops/internal/transport"
	"github.com/wytlabs/cardops/internal/transport/rest"
	"github.com/wytlabs/cardops/internal/user"
	userpostgres "github.com/wytlabs/cardops/internal/user/postgres"
	"github.com/wytlabs/cardops/pkg/logger"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type serverDependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Router     *chi.Mux
	Logger     *slog.Logger
	Dispatcher *notification.Dispatcher
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Dispatcher.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*serverDependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
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

	notificationRepo := notificationpostgres.NewNotificationRepository(gormDB)
	notificationService := notification.NewService(notificationRepo, bus, lg)

	userRepo := userpostgres.NewUserRepository(gormDB)
	entryRepo := entrypostgres.NewEntryRepository(gormDB)
	renewalLogRepo := renewalpostgres.NewRenewalLogRepository(gormDB)

	entryService := entry.NewService(entryRepo, lg)
	ingestService := ingest.NewService(entryRepo, lg)

	rateClient := ratesource.NewClient(ratesource.Config{
		QuoteURL: config.Rates.QuoteURL,
		APIKey:   config.Rates.APIKey,
		Timeout:  config.Rates.Timeout,
	}, lg)

	renewalService := renewal.NewService(
		entryRepo, renewalLogRepo, userRepo,
		notificationService, rateClient, bus,
		renewal.Config{
			ReminderLeadDays:   config.Scheduler.ReminderLeadDays,
			AutoCancelLeadDays: config.Scheduler.AutoCancelLeadDays,
			RetentionDays:      config.Scheduler.RetentionDays,
			BaseCurrency:       config.Rates.BaseCurrency,
		}, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Dependencies{
		DB:     db.DB,
		Logger: lg,

		JWTSecret:  config.Security.JWTSecret,
		CronSecret: config.Security.CronSecret,

		OpenAPIPath: "api/openapi.yml",

		IngestHandler:       ingest.NewHandler(ingestService, lg),
		EntryHandler:        entry.NewHandler(entryService, lg),
		RenewalHandler:      renewal.NewHandler(renewalService, lg),
		NotificationHandler: notification.NewHandler(notificationService, lg),
		UserHandler:         user.NewHandler(userRepo, lg),
		CatalogHandler:      catalog.NewHandler(transport.NewBaseHandler(lg)),
	})

	return &serverDependencies{
		Config:     config,
		DB:         db,
		Router:     router,
		Logger:     lg,
		Dispatcher: dispatcher,
	}, nil
}

// initDB opens the pgx-backed connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-open pool so both share one set
// of connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
