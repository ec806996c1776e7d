package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/things-api/internal/adapter/handler"
	"github.com/rl1809/things-api/internal/adapter/storage"
	"github.com/rl1809/things-api/internal/config"
	"github.com/rl1809/things-api/internal/core/service"
	"github.com/rl1809/things-api/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger := log.New(os.Stdout, "things ", log.LstdFlags)

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store, err)
	}
	defer store.Close()
	logger.Printf("using %s store", cfg.Store)

	// Optional document cache in front of the store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		store = storage.NewCachedStore(store, rdb, ttl)
		logger.Printf("document cache enabled (redis %s, ttl %s)", cfg.RedisAddr, ttl)
	}

	things := service.NewThingService(store)

	mux := http.NewServeMux()
	httpHandler := handler.NewHTTPHandler(things, logger)
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler.Logging(logger)(mux),
	}

	go func() {
		logger.Printf("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Println("HTTP server stopped")
}

func openStore(ctx context.Context, cfg config.Config) (port.DocumentStore, error) {
	switch cfg.Store {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			return nil, err
		}
		return storage.NewMySQLStore(db), nil

	case "badger", "":
		return storage.NewBadgerStore(storage.BadgerOptions{Path: cfg.DataDir})

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
