package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amnamine/AccessoiresHF/internal/cart"
	"github.com/amnamine/AccessoiresHF/internal/catalog"
	"github.com/amnamine/AccessoiresHF/internal/config"
	"github.com/amnamine/AccessoiresHF/internal/db"
	"github.com/amnamine/AccessoiresHF/internal/events"
	httpserver "github.com/amnamine/AccessoiresHF/internal/http"
	"github.com/amnamine/AccessoiresHF/internal/order"
	"github.com/amnamine/AccessoiresHF/internal/session"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lshortfile)

	dsn := cfg.DatabaseDSN
	if dsn == "" {
		dsn = db.GetDSN()
	}
	if err := db.RunMigrations(dsn, logger); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	database := db.MustOpen(dsn)
	defer database.Close()

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Fatalf("open pgx pool: %v", err)
	}
	defer pool.Close()

	productRepo := catalog.NewPostgresRepository(pool)
	sessionStore := session.NewPostgresStore(database)
	orderRepo := order.NewRepository(database)

	cartEngine := cart.NewEngine(sessionStore, productRepo)
	placement := order.NewPlacementEngine(orderRepo, cartEngine)

	var orderPublisher httpserver.OrderEventsPublisher
	if cfg.RabbitURL != "" {
		rabbitConn := events.MustDialRabbit()
		defer rabbitConn.Close()

		sequenceRepo := events.NewSequenceRepository(database)
		publisher, err := events.NewRabbitOrderEventsPublisher(rabbitConn, sequenceRepo)
		if err != nil {
			logger.Fatalf("create order publisher: %v", err)
		}
		defer publisher.Close()
		orderPublisher = publisher
	} else {
		logger.Printf("RABBITMQ_URL not set, OrderPlaced events disabled")
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Cart:     httpserver.NewCartHandler(cartEngine),
		Checkout: httpserver.NewCheckoutHandler(placement, orderPublisher, logger),
		Orders:   httpserver.NewOrderHandler(orderRepo),
		Catalog:  httpserver.NewCatalogHandler(productRepo),
		Admin:    httpserver.NewAdminHandler(orderRepo, productRepo),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("storefront listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
}
