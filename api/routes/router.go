package routes

import (
	"context"
	"net/http"
	"time"

	"busline/internal/analytics"
	"busline/internal/bookings"
	"busline/internal/buses"
	"busline/internal/notifications"
	"busline/internal/points"
	"busline/internal/seats"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher notifications.Publisher

	cacheService cache.Service
	busService   buses.Service
	seatService  seats.Service
	pointService points.Service
}

// NewRouter creates a new router instance. publisher may be nil.
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher) *Router {
	r := &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
	}
	if db.Redis != nil {
		r.cacheService = cache.NewService(db.Redis)
	}
	return r
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	if err := points.RegisterValidators(); err != nil {
		return err
	}

	r.setupHealthRoutes(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		// buses first: seats, points and bookings authorize against it
		r.setupBusRoutes(api)
		r.setupSeatRoutes(api)
		r.setupPointRoutes(api)
		r.setupBookingRoutes(api)
		r.setupAnalyticsRoutes(api)
	}
	return nil
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := r.db.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "busline-api",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "busline-api",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		cacheStatus := "disabled"
		if r.cacheService != nil {
			cacheStatus = "ok"
			if err := r.cacheService.Ping(c.Request.Context()); err != nil {
				cacheStatus = "unreachable"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "operational",
			"api_version":   r.config.APIVersion,
			"cache":         cacheStatus,
			"kafka_enabled": r.config.Kafka.Enabled,
			"timestamp":     time.Now(),
		})
	})
}

func (r *Router) setupBusRoutes(rg *gin.RouterGroup) {
	busRepo := buses.NewRepository(r.db.PostgreSQL)
	if r.cacheService != nil {
		r.busService = buses.NewServiceWithCache(busRepo, r.cacheService)
	} else {
		r.busService = buses.NewService(busRepo)
	}

	buses.SetupBusRoutes(rg, buses.NewController(r.busService), r.config)
}

func (r *Router) setupSeatRoutes(rg *gin.RouterGroup) {
	var holds *seats.HoldStore
	if r.db.Redis != nil {
		holds = seats.NewHoldStore(r.db.Redis)
	} else {
		logger.GetDefault().Warn("Redis not configured, seat holds disabled")
	}

	r.seatService = seats.NewService(seats.NewRepository(r.db.PostgreSQL), holds, r.busService, r.cacheService, r.config)
	seats.SetupSeatRoutes(rg, seats.NewController(r.seatService), r.config)
}

func (r *Router) setupPointRoutes(rg *gin.RouterGroup) {
	r.pointService = points.NewService(points.NewRepository(r.db.PostgreSQL), r.busService, r.cacheService)
	points.SetupPointRoutes(rg, points.NewController(r.pointService), r.config)
}

func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	var idempotency *bookings.IdempotencyStore
	if r.db.Redis != nil {
		idempotency = bookings.NewIdempotencyStore(r.db.Redis, r.config.Redis.IdempotencyTTL)
	}

	bookingService := bookings.NewService(
		bookings.NewRepository(r.db.PostgreSQL),
		r.seatService,
		r.pointService,
		r.busService,
		r.publisher,
		idempotency,
		bookings.WithTicketOptions(bookings.TicketOptions{FontFile: r.config.TicketFontFile}),
	)
	bookings.SetupBookingRoutes(rg, bookings.NewController(bookingService), r.config)
}

func (r *Router) setupAnalyticsRoutes(rg *gin.RouterGroup) {
	analyticsService := analytics.NewService(analytics.NewRepository(r.db.PostgreSQL), r.busService, r.cacheService)
	analytics.SetupAnalyticsRoutes(rg, analytics.NewController(analyticsService), r.config)
}
