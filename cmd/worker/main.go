package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/hotelbooking/config"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"github.com/Domenick1991/hotelbooking/internal/logger"
	"github.com/Domenick1991/hotelbooking/internal/notify"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
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

	rates, err := cfg.RateTable()
	if err != nil {
		lg.Fatal("pricing", zap.Error(err))
	}

	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		repository.NewRoomRepository(pool),
		repository.NewTransactor(pool),
		rates,
		nil,
		"",
		booking.WithLogger(lg.Named("booking")),
	)

	if cfg.Events.Driver == config.EventsDriverKafka {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, lg)
		defer consumer.Close()

		sender := notify.NewSender(lg.Named("notify"))
		go func() {
			if err := consumer.Consume(ctx, sender.Send); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("consumer stopped", zap.Error(err))
			}
		}()
	} else {
		lg.Info("notifications consumer disabled", zap.String("driver", cfg.Events.Driver))
	}

	auditTicker := time.NewTicker(cfg.Worker.AuditInterval())
	defer auditTicker.Stop()

	for {
		select {
		case <-auditTicker.C:
			audit(ctx, bookingService, lg)
		case <-ctx.Done():
			lg.Info("shutting down worker")
			return
		}
	}
}

func audit(ctx context.Context, svc booking.BookingUseCase, lg *zap.Logger) {
	violations, err := svc.AuditOverlaps(ctx)
	if err != nil && !errors.Is(err, domain.ErrConsistency) {
		lg.Warn("overlap audit failed", zap.Error(err))
		return
	}
	for _, v := range violations {
		lg.Error("overlapping bookings", zap.Int("room", v.Room), zap.Int64("first", v.First), zap.Int64("second", v.Second), zap.Error(v))
	}
}
