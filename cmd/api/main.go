package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkristof/go-storefront/internal/cart"
	"github.com/mkristof/go-storefront/internal/catalog"
	"github.com/mkristof/go-storefront/internal/checkout"
	"github.com/mkristof/go-storefront/internal/config"
	"github.com/mkristof/go-storefront/internal/httpx"
	kafkax "github.com/mkristof/go-storefront/internal/kafka"
	"github.com/mkristof/go-storefront/internal/orders"
	"github.com/mkristof/go-storefront/internal/payment"
	"github.com/mkristof/go-storefront/internal/postgres"
	"github.com/mkristof/go-storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for order lifecycle events
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prod.Start(ctx)

	// Stores & services
	cat := &catalog.PGCatalog{DB: db}
	carts := &cart.PGStore{DB: db}
	orderStore := &orders.PGStore{DB: db}
	locks := cart.NewUserLocks()

	cartSvc := cart.NewService(carts, cat, locks, cfg.CatalogTimeout)
	mat := &checkout.Materializer{
		Carts:          carts,
		Catalog:        cat,
		Orders:         orderStore,
		Gateway:        payment.StubGateway{},
		Locks:          locks,
		Idem:           &checkout.RedisIdem{Client: rdb, Window: cfg.IdemWindow},
		Producer:       prod,
		Service:        cfg.ServiceName,
		CatalogTimeout: cfg.CatalogTimeout,
		PaymentTimeout: cfg.PaymentTimeout,
	}

	router := httpx.NewRouter()
	(&httpx.CartHandler{Service: cartSvc}).Register(router)
	(&httpx.OrdersHandler{
		Materializer: mat,
		Orders:       orderStore,
		Catalog:      cat,
		Redis:        rdb,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
