package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eventyard/eventyard-backend/api/routes"
	"github.com/eventyard/eventyard-backend/internal/attendance"
	"github.com/eventyard/eventyard-backend/internal/events"
	"github.com/eventyard/eventyard-backend/internal/favorites"
	"github.com/eventyard/eventyard-backend/internal/hotels"
	"github.com/eventyard/eventyard-backend/internal/marketplace"
	"github.com/eventyard/eventyard-backend/internal/notifications"
	"github.com/eventyard/eventyard-backend/internal/providers"
	"github.com/eventyard/eventyard-backend/internal/reservations"
	"github.com/eventyard/eventyard-backend/internal/reviews"
	"github.com/eventyard/eventyard-backend/internal/tickets"
	"github.com/eventyard/eventyard-backend/internal/users"
	"github.com/eventyard/eventyard-backend/pkg/config"
	"github.com/eventyard/eventyard-backend/pkg/db"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	"github.com/eventyard/eventyard-backend/pkg/mailer"
	"github.com/eventyard/eventyard-backend/pkg/metrics"
	"github.com/eventyard/eventyard-backend/pkg/migrate"
	"github.com/eventyard/eventyard-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	svcs, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildServices constructs every repository and domain service sharing the
// one database client. The mailer is optional; provider moderation falls back
// to in-app notifications only when no relay is configured.
func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	gdb := dbClient.DB()

	userRepo := users.NewRepository(gdb)
	eventRepo := events.NewRepository(gdb)
	hotelRepo := hotels.NewRepository(gdb)
	reservationRepo := reservations.NewRepository(gdb)
	providerRepo := providers.NewRepository(gdb)
	reviewRepo := reviews.NewRepository(gdb)
	favoriteRepo := favorites.NewRepository(gdb)
	ticketRepo := tickets.NewRepository(gdb)
	marketRepo := marketplace.NewRepository(gdb)
	notificationRepo := notifications.NewRepository(gdb)
	attendanceRepo := attendance.NewRepository(gdb)

	var svcs routes.Services

	usersSvc, err := users.NewService(userRepo)
	if err != nil {
		return svcs, err
	}

	notificationsSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		return svcs, err
	}

	eventsSvc, err := events.NewService(events.ServiceParams{Repo: eventRepo})
	if err != nil {
		return svcs, err
	}

	hotelsSvc, err := hotels.NewService(hotels.ServiceParams{
		Repo:      hotelRepo,
		EventRepo: eventRepo,
	})
	if err != nil {
		return svcs, err
	}

	reservationsSvc, err := reservations.NewService(reservations.ServiceParams{
		DB:        dbClient,
		Repo:      reservationRepo,
		HotelRepo: hotelRepo,
		EventRepo: eventRepo,
		Notifier:  notificationsSvc,
		Logger:    logg,
		Config:    cfg.Reservations,
	})
	if err != nil {
		return svcs, err
	}

	providerParams := providers.ServiceParams{
		Repo:     providerRepo,
		UserRepo: userRepo,
		Notifier: notificationsSvc,
		Logger:   logg,
	}
	if cfg.Mailer.RelayURL != "" {
		relay, err := mailer.NewClient(cfg.Mailer, logg, metrics.NewMailerMetrics(prometheus.DefaultRegisterer))
		if err != nil {
			return svcs, err
		}
		providerParams.Mailer = relay
	}

	providersSvc, err := providers.NewService(providerParams)
	if err != nil {
		return svcs, err
	}

	reviewsSvc, err := reviews.NewService(reviews.ServiceParams{
		DB:           dbClient,
		Repo:         reviewRepo,
		ProviderRepo: providerRepo,
	})
	if err != nil {
		return svcs, err
	}

	favoritesSvc, err := favorites.NewService(favoriteRepo)
	if err != nil {
		return svcs, err
	}

	attendanceSvc, err := attendance.NewService(attendance.ServiceParams{
		Repo:     attendanceRepo,
		Notifier: notificationsSvc,
	})
	if err != nil {
		return svcs, err
	}

	ticketsSvc, err := tickets.NewService(tickets.ServiceParams{
		Repo:       ticketRepo,
		EventRepo:  eventRepo,
		Attendance: attendanceSvc,
		Logger:     logg,
	})
	if err != nil {
		return svcs, err
	}

	marketplaceSvc, err := marketplace.NewService(marketplace.ServiceParams{
		DB:       dbClient,
		Repo:     marketRepo,
		Notifier: notificationsSvc,
		Logger:   logg,
		Config:   cfg.Marketplace,
	})
	if err != nil {
		return svcs, err
	}

	svcs = routes.Services{
		Users:         usersSvc,
		Events:        eventsSvc,
		Hotels:        hotelsSvc,
		Reservations:  reservationsSvc,
		Providers:     providersSvc,
		Reviews:       reviewsSvc,
		Favorites:     favoritesSvc,
		Tickets:       ticketsSvc,
		Marketplace:   marketplaceSvc,
		Notifications: notificationsSvc,
		Attendance:    attendanceSvc,
	}
	return svcs, nil
}
