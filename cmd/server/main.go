package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zzpri-tracker/internal/config"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/logging"
	"zzpri-tracker/internal/notify"
	"zzpri-tracker/internal/server"
	"zzpri-tracker/internal/storage"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	database.Init(cfg.DBDSN)

	if cfg.SeedDemo {
		if err := database.SeedDemoData(time.Now().UTC()); err != nil {
			slog.Error("failed to seed demo data", "err", err)
		}
	}

	store, err := storage.NewLocalStore(cfg.StorageDir)
	if err != nil {
		slog.Error("failed to open document storage", "dir", cfg.StorageDir, "err", err)
		os.Exit(1)
	}

	reminder := &notify.BreachReminder{
		Mailer: notify.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		},
		Recipient: cfg.DPOEmail,
		Window:    cfg.ReminderWindow,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SMTPHost != "" && cfg.DPOEmail != "" {
		go reminder.Run(ctx, cfg.ReminderInterval)
	} else {
		slog.Warn("breach reminders disabled: SMTP_HOST or DPO_EMAIL not set")
	}

	r := server.NewRouter(cfg, server.Deps{Store: store, Reminder: reminder})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
}
