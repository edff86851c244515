package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application Layer
	appService "remindme/internal/application/service"

	// Infrastructure Layer
	"remindme/internal/infrastructure/database/sqlite"
	"remindme/internal/infrastructure/mail"
	"remindme/internal/infrastructure/qstash"
	"remindme/internal/infrastructure/scheduler"

	// Interfaces Layer
	"remindme/internal/interfaces/api/handler"
	"remindme/internal/interfaces/api/router"

	// Packages
	"remindme/internal/pkg/config"
	appLogger "remindme/internal/pkg/logger"
	"remindme/internal/pkg/metrics"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
)

func gracefulShutdown(apiServer *http.Server, schedulerService appService.SchedulerService, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("Shutting down gracefully, press Ctrl+C again to force")

	// Stop the scheduler first so no tick runs against a closing store.
	log.Println("Stopping scheduler...")
	schedulerService.Stop()
	log.Println("Scheduler stopped.")

	log.Println("Closing database connection...")
	if err := sqlite.CloseDB(); err != nil {
		log.Printf("Error closing database: %v", err)
	} else {
		log.Println("Database connection closed.")
	}

	// Give in-flight requests five seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// --- Initialization ---
	appLog := appLogger.New()
	appLog.Info("Logger initialized.")

	cfg, err := config.Load()
	if err != nil {
		appLog.Error("Invalid configuration", err)
		os.Exit(1)
	}

	// --- Infrastructure ---
	db := sqlite.NewDB(cfg.DBPath)
	reminderRepo := sqlite.NewReminderRepository(db)
	appLog.Info("Database and repositories initialized.")

	mailClient := mail.NewClient(mail.Config{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		From:       cfg.MailFrom,
		RatePerSec: cfg.MailRatePerSec,
	}, appLog)

	// --- Application Services ---
	dispatcherSvc := appService.NewDispatcherService(mailClient, appLog)
	engineSvc := appService.NewEngineService(reminderRepo, dispatcherSvc, appLog, cfg.TickInterval, cfg.StaleThreshold)

	// The scheduler drives the engine either by polling it on an internal
	// cron or by registering callbacks with the external delayed-callback
	// service; both sides of the switch satisfy the same interface.
	var schedulerSvc appService.SchedulerService
	if cfg.UsePolling {
		cronRunner := scheduler.NewScheduler(appLog)
		schedulerSvc = appService.NewPollingScheduler(engineSvc, cronRunner, appLog, cfg.TickInterval, cfg.CleanupCron)
	} else {
		qstashClient := qstash.NewClient(cfg.QStashURL, cfg.QStashToken, appLog)
		schedulerSvc = appService.NewEventScheduler(qstashClient, reminderRepo, appLog, cfg.WebhookBaseURL, cfg.CleanupCron)
	}

	reminderSvc := appService.NewReminderService(reminderRepo, schedulerSvc, appLog)
	appLog.Info("Application services initialized.")

	// --- Start Scheduling ---
	if err := schedulerSvc.Start(context.Background()); err != nil {
		appLog.Error("Failed to start scheduler", err)
		os.Exit(1)
	}

	// --- API Handlers ---
	receiver := qstash.NewReceiver(cfg.CurrentSigningKey, cfg.NextSigningKey)
	reminderHandler := handler.NewReminderHandler(reminderSvc, appLog)
	webhookHandler := handler.NewWebhookHandler(receiver, engineSvc, appLog)
	healthHandler := handler.NewHealthHandler(schedulerSvc, func(ctx context.Context) error {
		return sqlite.Ping(ctx, db)
	})
	appLog.Info("API handlers initialized.")

	// --- Router ---
	metrics.Register()
	routerCfg := &router.Config{
		ReminderHandler: reminderHandler,
		WebhookHandler:  webhookHandler,
		HealthHandler:   healthHandler,
		Logger:          appLog,
	}
	echoRouter := router.NewRouter(routerCfg)

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start Server & Shutdown Handling ---
	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, schedulerSvc, done)

	mode := "event"
	if cfg.UsePolling {
		mode = "polling"
	}
	appLog.Info(fmt.Sprintf("Server starting on port %d in %s mode", cfg.Port, mode))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server ListenAndServe error", err)
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for graceful shutdown signal
	<-done
	appLog.Info("Graceful shutdown complete.")
}
