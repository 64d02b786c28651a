package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/shop-pos/internal/api"
	"github.com/example/shop-pos/internal/bootstrap"
	"github.com/example/shop-pos/internal/command"
	"github.com/example/shop-pos/internal/config"
	"github.com/example/shop-pos/internal/domain/customer"
	"github.com/example/shop-pos/internal/domain/product"
	"github.com/example/shop-pos/internal/domain/sale"
	"github.com/example/shop-pos/internal/domain/settings"
	"github.com/example/shop-pos/internal/infrastructure/kafka"
	"github.com/example/shop-pos/internal/infrastructure/store"
	"github.com/example/shop-pos/internal/query"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(os.Getenv("POS_CONFIG"))
	if err != nil {
		log.Fatalf("[API] Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Shop POS")
	log.Println("[API] ========================================")
	log.Printf("[API] Storage: %s", cfg.Storage.Driver)
	log.Printf("[API] Time zone: %s", loc)

	docs, closeDocs, err := bootstrap.OpenDocumentStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("[API] Failed to open document store: %v", err)
	}
	defer closeDocs()

	// Events go to Kafka only when brokers are configured
	var publisher store.Publisher
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Printf("[API] Kafka: %v topic %s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	events := store.NewEventLog(publisher)

	// Initialize domain services
	settingsSvc, err := settings.NewService(ctx, docs, events)
	if err != nil {
		log.Fatalf("[API] Failed to load settings: %v", err)
	}
	productSvc, err := product.NewService(ctx, docs, events)
	if err != nil {
		log.Fatalf("[API] Failed to load products: %v", err)
	}
	saleSvc, err := sale.NewService(ctx, docs, events, loc)
	if err != nil {
		log.Fatalf("[API] Failed to load sales: %v", err)
	}
	customerSvc, err := customer.NewService(ctx, docs, events)
	if err != nil {
		log.Fatalf("[API] Failed to load customers: %v", err)
	}

	if cfg.Shop.SeedDefaults {
		seeded, err := productSvc.Seed(ctx, product.DefaultProducts())
		if err != nil {
			log.Fatalf("[API] Failed to seed products: %v", err)
		}
		if seeded {
			log.Println("[API] Seeded default products")
		}
	}

	// Initialize handlers
	cmdHandler := command.NewHandler(settingsSvc, productSvc, saleSvc, customerSvc)
	queryHandler := query.NewHandler(settingsSvc, productSvc, saleSvc, customerSvc, cfg.Shop.LowStockThreshold)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	router := api.NewRouter(api.NewHandlers(cmdHandler, queryHandler), reg, cfg.HTTP.WebDir)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
