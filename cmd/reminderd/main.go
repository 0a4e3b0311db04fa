package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/careling/booking-api/config"
	"github.com/careling/booking-api/internal/notifier"
	"github.com/careling/booking-api/internal/repository/postgres"
	"github.com/careling/booking-api/internal/service/reminder"
	"github.com/careling/booking-api/pkg/clock"
	"github.com/careling/booking-api/pkg/logger"
	"github.com/careling/booking-api/pkg/messaging/redis"
	"github.com/careling/booking-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		lg.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &lg.ZL)
	if err != nil {
		lg.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	apptRepo := postgres.NewAppointmentRepository(db)

	emailSender := notifier.NewEmailNotifier(notifier.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	smsSender := notifier.NewSMSNotifier(broker, cfg.Reminder.SMSChannel)

	svc := reminder.NewService(
		apptRepo,
		emailSender,
		smsSender,
		clock.New(),
		lg,
		metrics.New("booking"),
		reminder.Options{
			WindowStartHoursAhead: cfg.Reminder.WindowStartHoursAhead,
			WindowEndHoursAhead:   cfg.Reminder.WindowEndHoursAhead,
			GraceHours:            cfg.Reminder.GraceHours,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		lg.Info("Shutting down...")
		cancel()
	}()

	if cfg.Reminder.PollInterval <= 0 {
		// Single sweep; cadence belongs to the external trigger (cron etc).
		if _, err := svc.Dispatch(ctx); err != nil {
			lg.Fatal(err, "Reminder sweep failed")
		}
		return
	}

	setupHealthAndMetrics(lg)
	run(ctx, svc, cfg.Reminder.PollInterval, lg)
}

func run(ctx context.Context, svc *reminder.Service, interval time.Duration, lg *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lg.Info("Reminder worker started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			lg.Info("Reminder worker shutting down")
			return
		case <-ticker.C:
			if _, err := svc.Dispatch(ctx); err != nil {
				lg.Error(err, "Reminder sweep failed")
			}
		}
	}
}

func setupHealthAndMetrics(lg *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			lg.ZL.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
}
