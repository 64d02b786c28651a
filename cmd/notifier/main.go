package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/shop-pos/internal/bootstrap"
	"github.com/example/shop-pos/internal/config"
	"github.com/example/shop-pos/internal/email"
	"github.com/example/shop-pos/internal/infrastructure/kafka"
	"github.com/example/shop-pos/internal/notification"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(os.Getenv("POS_CONFIG"))
	if err != nil {
		log.Fatalf("[Notifier] Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("[Notifier] %v", err)
	}

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Shop POS - Email Notification Service")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] SMTP: %s:%d", cfg.SMTP.Host, cfg.SMTP.Port)
	log.Printf("[Notifier] From: %s", cfg.SMTP.From)
	log.Printf("[Notifier] To: %v", cfg.Notifier.To)

	if len(cfg.Notifier.To) == 0 {
		log.Println("[Notifier] No recipients configured (notifier.to); emails will be skipped")
	}

	// Settings and customers are read fresh from the shop's document store
	docs, closeDocs, err := bootstrap.OpenDocumentStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("[Notifier] Failed to open document store: %v", err)
	}
	defer closeDocs()

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	handler := notification.NewHandler(
		emailSvc,
		notification.NewDocumentState(docs),
		cfg.Notifier.To,
		cfg.Shop.LowStockThreshold,
		loc,
	)

	// Daily pending credit digest
	scheduler := gocron.NewScheduler(loc)
	if _, err := scheduler.Every(1).Day().At(cfg.Notifier.DigestAt).Do(func() {
		if err := handler.SendPendingDigest(ctx, time.Now()); err != nil {
			log.Printf("[Notifier] Pending digest failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("[Notifier] Failed to schedule digest: %v", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()
	log.Printf("[Notifier] Pending digest scheduled daily at %s", cfg.Notifier.DigestAt)

	if cfg.KafkaEnabled() {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		defer consumer.Close()

		go func() {
			log.Printf("[Notifier] Listening to topic %s as %s", cfg.Kafka.Topic, cfg.Kafka.GroupID)
			if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
				log.Printf("[Notifier] Consumer error: %v", err)
			}
		}()
	} else {
		log.Println("[Notifier] No Kafka brokers configured; low stock alerts are off")
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
}
