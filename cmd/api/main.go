package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Harshal-behare/RewardPointsSystem-sub000/api/routes"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/accounts"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/budgets"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/events"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/inventory"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/products"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/redemptions"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/internal/users"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/config"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/db"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/logger"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/metrics"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/migrate"
	"github.com/Harshal-behare/RewardPointsSystem-sub000/pkg/redis"
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

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	workflowMetrics := metrics.NewWorkflowMetrics(promRegistry)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)

	accountsService, err := accounts.NewService(accounts.NewRepository(gormDB), dbClient, usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create points ledger service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(products.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	budgetsService, err := budgets.NewService(budgets.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create budgets service", err)
		os.Exit(1)
	}

	eventsService, err := events.NewService(events.NewRepository(gormDB), dbClient, usersRepo, accountsService, budgetsService, workflowMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create events service", err)
		os.Exit(1)
	}

	redemptionsService, err := redemptions.NewService(redemptions.NewRepository(gormDB), dbClient, productsService, accountsService, inventoryService, workflowMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create redemptions service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promRegistry,
			accountsService,
			productsService,
			inventoryService,
			eventsService,
			redemptionsService,
			budgetsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
