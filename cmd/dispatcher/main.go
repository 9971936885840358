package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"district/cmd/dispatcher/jobs"
	"district/internal/clock"
	"district/internal/config"
	"district/internal/database"
	"district/internal/degraded"
	"district/internal/dispatch"
	"district/internal/external"
	"district/internal/logger"
	"district/internal/messaging"
	"district/internal/repository"
	"district/internal/service"
)

func main() {
	cfg := config.Load()
	cfg.NATS.ClientID = "district-dispatcher"
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer natsClient.Close()

	repos := repository.NewRepositories()
	paymentClient := external.NewPaymentClient(cfg.Payment)
	services := service.NewServices(db, repos, degraded.NewQueue(cfg.DegradedCapacity),
		nil, paymentClient, clock.NewSystem(), service.Options{
			HoldTimeout:     cfg.HoldTimeout,
			OfferTTL:        cfg.OfferTTL,
			DefaultCurrency: cfg.DefaultCurrency,
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := dispatch.NewRelay(db, repos.Outbox, natsClient, cfg.DispatchBatch, cfg.DispatchInterval)
	go relay.Run(ctx)

	sweep := jobs.NewLifecycleSweep(services.Bookings, cfg.SweepInterval)
	sweep.Start(ctx)

	logger.Get().Info("Dispatcher started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down dispatcher...")
	sweep.Stop()
	cancel()
	logger.Get().Info("Dispatcher stopped")
}
