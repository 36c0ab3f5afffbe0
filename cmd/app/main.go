package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderio/tourbooking/config"
	"github.com/wanderio/tourbooking/internal/bootstrap"
	"github.com/wanderio/tourbooking/internal/cache"
	"github.com/wanderio/tourbooking/internal/kafka"
	"github.com/wanderio/tourbooking/internal/repository"
	"github.com/wanderio/tourbooking/internal/service/booking"
	"github.com/wanderio/tourbooking/internal/service/catalog"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.CatalogCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	subjectRepo := repository.NewSubjectRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	catalogService := catalog.NewCatalogService(subjectRepo, redisCache)

	opts := []booking.BookingServiceOption{
		booking.WithPublishTimeout(time.Duration(cfg.Booking.PublishTimeoutSeconds) * time.Second),
	}
	if cfg.Booking.AllowPaymentCorrections {
		opts = append(opts, booking.WithPaymentCorrections())
	}
	bookingService := booking.NewBookingService(
		bookingRepo,
		subjectRepo,
		producer,
		cfg.Kafka.NotificationsTopic,
		opts...,
	)

	if err := bootstrap.Run(ctx, cfg, catalogService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
