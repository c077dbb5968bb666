package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eventyard/eventyard-backend/internal/cron"
	"github.com/eventyard/eventyard-backend/internal/events"
	"github.com/eventyard/eventyard-backend/internal/hotels"
	"github.com/eventyard/eventyard-backend/internal/maillog"
	"github.com/eventyard/eventyard-backend/internal/notifications"
	"github.com/eventyard/eventyard-backend/internal/reservations"
	"github.com/eventyard/eventyard-backend/pkg/config"
	"github.com/eventyard/eventyard-backend/pkg/db"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	"github.com/eventyard/eventyard-backend/pkg/mailer"
	"github.com/eventyard/eventyard-backend/pkg/metrics"
	"github.com/eventyard/eventyard-backend/pkg/migrate"
	"github.com/eventyard/eventyard-backend/pkg/redis"
)

const lockKeyFormat = "ey:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	jobs, err := buildJobs(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Reservations.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildJobs assembles the background jobs. The check-in reminder job is only
// registered when a mail relay is configured; the other jobs have no external
// dependencies beyond the database.
func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) ([]cron.Job, error) {
	gdb := dbClient.DB()

	reservationRepo := reservations.NewRepository(gdb)
	notificationRepo := notifications.NewRepository(gdb)

	notificationsSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		return nil, err
	}

	reservationsSvc, err := reservations.NewService(reservations.ServiceParams{
		DB:        dbClient,
		Repo:      reservationRepo,
		HotelRepo: hotels.NewRepository(gdb),
		EventRepo: events.NewRepository(gdb),
		Notifier:  notificationsSvc,
		Logger:    logg,
		Config:    cfg.Reservations,
	})
	if err != nil {
		return nil, err
	}

	expiryJob, err := cron.NewReservationExpiryJob(cron.ReservationExpiryJobParams{
		Logger:       logg,
		Reservations: reservationsSvc,
	})
	if err != nil {
		return nil, err
	}

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger: logg,
		Repo:   notificationRepo,
	})
	if err != nil {
		return nil, err
	}

	jobs := []cron.Job{expiryJob, cleanupJob}

	if cfg.Mailer.RelayURL != "" {
		relay, err := mailer.NewClient(cfg.Mailer, logg, metrics.NewMailerMetrics(prometheus.DefaultRegisterer))
		if err != nil {
			return nil, err
		}
		reminderJob, err := cron.NewCheckinReminderJob(cron.CheckinReminderJobParams{
			Logger:       logg,
			Reservations: reservationRepo,
			MailLog:      maillog.NewRepository(gdb),
			Sender:       relay,
			LeadTime:     cfg.Reservations.ReminderLeadTime,
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, reminderJob)
	} else {
		logg.Warn(context.Background(), "mail relay not configured, skipping check-in reminder job")
	}

	return jobs, nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
