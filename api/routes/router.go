package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/controllers"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/middleware"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/accounts"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/budgets"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/events"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/inventory"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/products"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/redemptions"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/config"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	accountsService accounts.Service,
	productsService products.Service,
	inventoryService inventory.Service,
	eventsService events.Service,
	redemptionsService redemptions.Service,
	budgetsService budgets.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/points", func(r chi.Router) {
			r.Get("/me", controllers.GetMyAccount(accountsService, logg))
			r.Get("/me/transactions", controllers.ListMyTransactions(accountsService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/{productID}", controllers.GetProduct(productsService, logg))
			r.Get("/{productID}/cost-history", controllers.ListProductCostHistory(productsService, logg))
			r.Get("/{productID}/stock", controllers.GetStock(inventoryService, logg))
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", controllers.ListEvents(eventsService, logg))
			r.Get("/{eventID}", controllers.GetEvent(eventsService, logg))
			r.Get("/{eventID}/participants", controllers.ListEventParticipants(eventsService, logg))
			r.Get("/{eventID}/awards", controllers.ListEventAwards(eventsService, logg))
			r.Get("/{eventID}/pool", controllers.GetEventPool(eventsService, logg))
			r.Post("/{eventID}/participants", controllers.RegisterForEvent(eventsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))
				r.Post("/", controllers.CreateEvent(eventsService, logg))
				r.Post("/{eventID}/publish", controllers.PublishEvent(eventsService, logg))
				r.Post("/{eventID}/activate", controllers.ActivateEvent(eventsService, logg))
				r.Post("/{eventID}/complete", controllers.CompleteEvent(eventsService, logg))
				r.Post("/{eventID}/cancel", controllers.CancelEvent(eventsService, logg))
				r.Post("/{eventID}/awards", controllers.AwardEventPoints(eventsService, logg))
				r.Post("/{eventID}/awards/bulk", controllers.BulkAwardEventPoints(eventsService, logg))
			})
		})

		r.Route("/redemptions", func(r chi.Router) {
			r.Get("/", controllers.ListMyRedemptions(redemptionsService, logg))
			r.Post("/", controllers.RequestRedemption(redemptionsService, logg))
			r.Get("/{redemptionID}", controllers.GetRedemption(redemptionsService, logg))
			r.Post("/{redemptionID}/cancel", controllers.CancelRedemption(redemptionsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))
				r.Post("/{redemptionID}/approve", controllers.ApproveRedemption(redemptionsService, logg))
				r.Post("/{redemptionID}/reject", controllers.RejectRedemption(redemptionsService, logg))
				r.Post("/{redemptionID}/deliver", controllers.DeliverRedemption(redemptionsService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Get("/ping", controllers.AdminPing())

			r.Route("/points", func(r chi.Router) {
				r.Get("/{userID}", controllers.GetUserAccount(accountsService, logg))
				r.Get("/{userID}/transactions", controllers.ListUserTransactions(accountsService, logg))
				r.Post("/{userID}/credit", controllers.AdminCreditPoints(accountsService, logg))
				r.Post("/{userID}/debit", controllers.AdminDebitPoints(accountsService, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Put("/{productID}/points-cost", controllers.SetProductPointsCost(productsService, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/low-stock", controllers.ListLowStock(inventoryService, logg))
				r.Post("/{productID}/stock", controllers.AddStock(inventoryService, logg))
				r.Post("/{productID}/adjust", controllers.AdjustStock(inventoryService, logg))
			})

			r.Route("/redemptions", func(r chi.Router) {
				r.Get("/", controllers.ListRedemptionsByStatus(redemptionsService, logg))
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Put("/", controllers.SetBudget(budgetsService, logg))
				r.Get("/", controllers.ListBudgetsByMonth(budgetsService, logg))
				r.Get("/{adminID}", controllers.GetBudget(budgetsService, logg))
				r.Post("/validate", controllers.ValidateAward(budgetsService, logg))
			})
		})
	})

	return r
}
