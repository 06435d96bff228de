package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/hotelbooking/config"
	"github.com/Domenick1991/hotelbooking/internal/bootstrap"
	"github.com/Domenick1991/hotelbooking/internal/cache"
	"github.com/Domenick1991/hotelbooking/internal/logger"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
	"github.com/Domenick1991/hotelbooking/internal/service/rooms"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		lg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		lg.Fatal("apply schema", zap.Error(err))
	}

	rates, err := cfg.RateTable()
	if err != nil {
		lg.Fatal("pricing", zap.Error(err))
	}
	loc, err := cfg.Booking.Location()
	if err != nil {
		lg.Fatal("timezone", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.RoomsCacheTTL())
	defer redisCache.Close()

	publisher, brokerCheck := bootstrap.NewEventPublisher(cfg, lg)
	defer publisher.Close()

	roomRepo := repository.NewRoomRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	transactor := repository.NewTransactor(pool)

	roomService := rooms.NewRoomService(roomRepo, transactor, redisCache, rates, lg.Named("rooms"))
	bookingService := booking.NewBookingService(
		bookingRepo,
		roomRepo,
		transactor,
		rates,
		publisher,
		cfg.Kafka.BookingTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLocation(loc),
		booking.WithLogger(lg.Named("booking")),
	)

	health := map[string]bootstrap.HealthCheck{
		"postgres": pool.Ping,
		"redis":    redisCache.Ping,
	}
	if brokerCheck != nil {
		health["broker"] = brokerCheck
	}

	svc := bootstrap.Services{Rooms: roomService, Bookings: bookingService, Health: health}
	if err := bootstrap.Run(ctx, cfg, svc, lg); err != nil {
		lg.Fatal("server error", zap.Error(err))
	}
}
