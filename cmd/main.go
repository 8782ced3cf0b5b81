package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/ledger-service/internal/command"
	"github.com/eaglebank/ledger-service/internal/config"
	"github.com/eaglebank/ledger-service/internal/handler"
	"github.com/eaglebank/ledger-service/internal/projection"
	"github.com/eaglebank/ledger-service/internal/query"
	"github.com/eaglebank/ledger-service/internal/repository"
	"github.com/eaglebank/ledger-service/shared/events"
	redisClient "github.com/eaglebank/ledger-service/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Database connection (write store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)
	store := repository.NewStore(db)

	userReadRepo := repository.NewUserReadRepository(db, redis.Client, cfg.ViewTTL)
	accountReadRepo := repository.NewAccountReadRepository(db, redis.Client, cfg.ViewTTL)
	transactionReadRepo := repository.NewTransactionReadRepository(db, redis.Client, cfg.TransactionViewTTL)

	userCmds := command.NewUserCommandService(store, userReadRepo, accountReadRepo, publisher)
	accountCmds := command.NewAccountCommandService(store, accountReadRepo, transactionReadRepo, publisher)
	transactionCmds := command.NewTransactionCommandService(store, accountReadRepo, transactionReadRepo, publisher)

	router := handler.NewRouter(
		handler.NewUserHandler(userCmds, query.NewUserQueryService(userReadRepo)),
		handler.NewAccountHandler(accountCmds, query.NewAccountQueryService(accountReadRepo)),
		handler.NewTransactionHandler(transactionCmds, query.NewTransactionQueryService(transactionReadRepo)),
		cfg.CORSAllowOrigins,
	)

	// Read-model projector
	projector := projection.NewProjector(userReadRepo, accountReadRepo, transactionReadRepo)
	subscriberDone := make(chan struct{})
	go func() {
		defer close(subscriberDone)
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "ledger-projector",
			Consumer: cfg.ConsumerName,
			Streams:  projector.Streams(),
			Handler:  projector.Handle,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Subscriber stopped: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("Ledger service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
	<-subscriberDone
	log.Println("Ledger service stopped")
}
