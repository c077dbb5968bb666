package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventyard/eventyard-backend/api/controllers"
	"github.com/eventyard/eventyard-backend/api/middleware"
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
	"github.com/eventyard/eventyard-backend/pkg/enums"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	pkgredis "github.com/eventyard/eventyard-backend/pkg/redis"
)

// Services groups every domain service the router mounts.
type Services struct {
	Users         users.Service
	Events        events.Service
	Hotels        hotels.Service
	Reservations  reservations.Service
	Providers     providers.Service
	Reviews       reviews.Service
	Favorites     favorites.Service
	Tickets       tickets.Service
	Marketplace   marketplace.Service
	Notifications notifications.Service
	Attendance    attendance.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, svcs.Users, logg))
		r.Use(middleware.RateLimit(redisClient, cfg.RateLimit, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.Me(svcs.Users, logg))
			r.Put("/me", controllers.UpdateMe(svcs.Users, logg))
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", controllers.ListEvents(svcs.Events, logg))
			r.Post("/", controllers.CreateEvent(svcs.Events, logg))
			r.Get("/mine", controllers.ListMyEvents(svcs.Events, logg))
			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", controllers.GetEvent(svcs.Events, logg))
				r.Patch("/", controllers.UpdateEvent(svcs.Events, logg))
				r.Get("/hotel-packages", controllers.ListEventHotelPackages(svcs.Hotels, logg))
				r.Get("/reservations", controllers.ListEventReservations(svcs.Reservations, logg))
				r.Get("/tickets", controllers.ListEventTickets(svcs.Tickets, logg))
				r.Post("/scan", controllers.ScanTicket(svcs.Tickets, logg))
			})
		})

		r.Route("/hotel-packages", func(r chi.Router) {
			r.Post("/", controllers.CreateHotelPackage(svcs.Hotels, logg))
			r.Route("/{packageID}", func(r chi.Router) {
				r.Get("/", controllers.GetHotelPackage(svcs.Hotels, logg))
				r.Patch("/", controllers.UpdateHotelPackage(svcs.Hotels, logg))
				r.Get("/availability", controllers.PackageAvailability(svcs.Hotels, logg))
				r.Post("/room-types", controllers.AddRoomType(svcs.Hotels, logg))
			})
		})
		r.Patch("/room-types/{roomTypeID}", controllers.UpdateRoomType(svcs.Hotels, logg))

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", controllers.CreateReservation(svcs.Reservations, logg))
			r.Get("/", controllers.ListMyReservations(svcs.Reservations, logg))
			r.Route("/{reservationID}", func(r chi.Router) {
				r.Get("/", controllers.GetReservation(svcs.Reservations, logg))
				r.Post("/confirm", controllers.ConfirmReservation(svcs.Reservations, logg))
				r.Post("/cancel", controllers.CancelReservation(svcs.Reservations, logg))
				r.Post("/refund", controllers.RefundReservation(svcs.Reservations, logg))
			})
		})

		r.Route("/providers", func(r chi.Router) {
			r.Get("/", controllers.ListProviders(svcs.Providers, logg))
			r.Post("/apply", controllers.ApplyProvider(svcs.Providers, logg))
			r.Get("/status", controllers.ProviderStatus(svcs.Providers, logg))
			r.Route("/{providerID}", func(r chi.Router) {
				r.Get("/", controllers.GetProvider(svcs.Providers, logg))
				r.Get("/reviews", controllers.ListProviderReviews(svcs.Reviews, logg))
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", controllers.CreateReview(svcs.Reviews, logg))
			r.Route("/{reviewID}", func(r chi.Router) {
				r.Patch("/", controllers.UpdateReview(svcs.Reviews, logg))
				r.Delete("/", controllers.DeleteReview(svcs.Reviews, logg))
				r.Post("/helpful", controllers.VoteReviewHelpful(svcs.Reviews, logg))
			})
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.ListFavorites(svcs.Favorites, logg))
			r.Post("/toggle", controllers.ToggleFavorite(svcs.Favorites, logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", controllers.IssueTicket(svcs.Tickets, logg))
			r.Get("/mine", controllers.ListMyTickets(svcs.Tickets, logg))
			r.Post("/{ticketID}/unscan", controllers.UnscanTicket(svcs.Tickets, logg))
		})

		r.Route("/marketplace", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(svcs.Marketplace, logg))
				r.Post("/", controllers.CreateProduct(svcs.Marketplace, logg))
				r.Get("/mine", controllers.ListMyProducts(svcs.Marketplace, logg))
				r.Route("/{productID}", func(r chi.Router) {
					r.Get("/", controllers.GetProduct(svcs.Marketplace, logg))
					r.Patch("/", controllers.UpdateProduct(svcs.Marketplace, logg))
					r.Post("/restock", controllers.RestockProduct(svcs.Marketplace, logg))
				})
			})
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(svcs.Marketplace, logg))
				r.Put("/", controllers.UpsertCartItem(svcs.Marketplace, logg))
				r.Delete("/{productID}", controllers.RemoveCartItem(svcs.Marketplace, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(svcs.Marketplace, logg))
				r.Post("/", controllers.PlaceOrder(svcs.Marketplace, logg))
				r.Route("/{orderID}", func(r chi.Router) {
					r.Get("/", controllers.GetOrder(svcs.Marketplace, logg))
					r.Post("/cancel", controllers.CancelOrder(svcs.Marketplace, logg))
				})
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Get("/attendance/history", controllers.MyAttendanceHistory(svcs.Attendance, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Route("/providers", func(r chi.Router) {
				r.Get("/pending", controllers.ListPendingProviders(svcs.Providers, logg))
				r.Post("/{providerID}/approve", controllers.ApproveProvider(svcs.Providers, logg))
				r.Post("/{providerID}/reject", controllers.RejectProvider(svcs.Providers, logg))
			})
		})
	})

	return r
}
