package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"district/internal/cache"
	"district/internal/clock"
	"district/internal/config"
	"district/internal/database"
	"district/internal/degraded"
	"district/internal/external"
	"district/internal/handlers"
	"district/internal/logger"
	"district/internal/metrics"
	"district/internal/middleware"
	"district/internal/repository"
	"district/internal/service"
)

type Server struct {
	router    *gin.Engine
	config    *config.Config
	db        *database.DB
	snapshots *cache.SnapshotCache
	services  *service.Services
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	snapshots, err := cache.NewSnapshotCache(cfg.Cache)
	if err != nil {
		logger.Get().Warn("Snapshot cache disabled", "error", err)
		snapshots = nil
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)
	queue := degraded.NewQueue(cfg.DegradedCapacity)
	metrics.RegisterDegradedQueueSize(queue.Size)

	repos := repository.NewRepositories()
	services := service.NewServices(db, repos, queue, snapshots, paymentClient, clock.NewSystem(), service.Options{
		HoldTimeout:     cfg.HoldTimeout,
		OfferTTL:        cfg.OfferTTL,
		DefaultCurrency: cfg.DefaultCurrency,
	})

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:    router,
		config:    cfg,
		db:        db,
		snapshots: snapshots,
		services:  services,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.db)

	api := s.router.Group("/api")
	{
		inventory := api.Group("/inventory")
		{
			inventory.POST("/seed", h.SeedInventory)
			inventory.GET("", h.ListInventory)
			inventory.GET("/:event_id", h.GetEventInventory)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("/:id", h.GetBooking)
			bookings.POST("/:id/confirm", h.ConfirmPayment)
			bookings.POST("/:id/cancel", h.CancelBooking)
		}

		tables := api.Group("/tables")
		{
			tables.POST("", h.CreateTableSlot)
			tables.GET("", h.ListTableSlots)
			tables.POST("/:slot_id/book", h.BookTable)
		}

		api.POST("/events/:event_id/waitlist", h.JoinWaitlist)
		api.GET("/waitlist/:id", h.GetWaitlistStatus)

		degradedGroup := api.Group("/degraded")
		{
			degradedGroup.GET("/bookings", h.ListDegradedBookings)
			degradedGroup.POST("/bookings/:request_id/retry", h.RetryDegradedBooking)
		}

		outbox := api.Group("/outbox")
		{
			outbox.GET("/events", h.ListOutboxEvents)
			outbox.POST("/events/:id/mark-published", h.MarkOutboxPublished)
		}
	}

	s.router.GET("/health", h.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) Cleanup() error {
	if s.snapshots != nil {
		if err := s.snapshots.Close(); err != nil {
			logger.Get().Error("Error closing snapshot cache", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
