package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/cache"
	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/database"
	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/obs"
	"github.com/iliyamo/hotel-booking/internal/pricing"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/router"
	"github.com/iliyamo/hotel-booking/internal/search"
	"github.com/iliyamo/hotel-booking/internal/supplier"
	"github.com/iliyamo/hotel-booking/internal/tracing"
)

const serviceName = "hotel-booking"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("database migrate failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it the cache and the rate limiter are off.
	rdb, err := config.NewRedisClient(config.RedisOptions())
	if err != nil {
		logger.Warn("redis unavailable, cache and rate limiting disabled", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	shutdownTracing, err := tracing.Init(tracing.Config{
		Endpoint:    cfg.TracingEndpoint,
		ServiceName: serviceName,
		Environment: cfg.Env,
	})
	if err != nil {
		logger.Error("tracing init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	metrics := obs.NewMetrics()
	supplierClient := supplier.NewClient(cfg.SupplierBaseURL, cfg.SupplierAPIKey, cfg.SupplierTimeout, metrics)
	pricer := pricing.NewCalculator(repository.NewPricingConfigRepo(db))

	hotels := repository.NewHotelRepo(db)
	history := repository.NewHistoryRepo(db)

	cacheCfg := config.LoadCacheConfig()
	searchSvc := search.NewService(search.Deps{
		Supplier: supplierClient,
		Cache:    cacheStore(cacheCfg, rdb),
		Hotels:   hotels,
		Pricer:   pricer,
		Meta:     repository.NewMetaSearchRepo(db),
		Metrics:  metrics,
		Logger:   logger,
	}, search.Options{
		CachePrefix:    cacheCfg.Prefix,
		SearchTTL:      cacheCfg.SearchTTL,
		AutosuggestTTL: cacheCfg.AutosuggestTTL,
	})

	var publisher booking.Publisher
	if cfg.AMQPURL != "" {
		publisher = queue.NewPublisher(cfg.AMQPURL)
		consumer := queue.NewConsumer(cfg.AMQPURL, history, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("booking consumer stopped", "error", err)
			}
		}()
	} else {
		logger.Info("AMQP url not set, booking events disabled")
	}

	bookingSvc := booking.NewService(booking.Deps{
		Supplier:     supplierClient,
		Hotels:       hotels,
		Policies:     repository.NewBookingPolicyRepo(db),
		Transactions: repository.NewTransactionRepo(db),
		History:      history,
		Pricer:       pricer,
		Publisher:    publisher,
		Logger:       logger,
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Tracing(serviceName))
	e.Use(metrics.Middleware())
	e.Use(middleware.BlockedIP(repository.NewBlockedIPRepo(db), logger))
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb, metrics, logger))

	router.RegisterRoutes(e, metrics.Handler())
	router.RegisterAuth(e, handler.NewAuthHandler(handler.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	bookings := handler.NewBookingHandler(bookingSvc)
	router.RegisterHotels(e, handler.NewSearchHandler(searchSvc), bookings, cfg.JWTSecret)
	router.RegisterAdmin(e, bookings, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}

// cacheStore returns nil when caching is disabled or Redis is down; the
// search service then always asks the supplier.
func cacheStore(cfg config.CacheConfig, rdb *redis.Client) cache.Store {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return cache.NewRedisStore(rdb)
}
