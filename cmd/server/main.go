package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"letsgohome/internal/cache"
	"letsgohome/internal/config"
	"letsgohome/internal/repository"
	"letsgohome/internal/service"
	"letsgohome/internal/transport/rest"
	"letsgohome/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// Session store: Redis when configured, otherwise in-memory
	var store cache.SessionStore
	if cfg.RedisAddr != "" {
		addr := cfg.RedisAddr
		// Remove redis:// prefix if present
		if len(addr) > 8 && addr[:8] == "redis://" {
			addr = addr[8:]
		}

		rdb := redis.NewClient(&redis.Options{
			Addr: addr,
		})
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal("Failed to ping Redis:", err)
		}
		log.Println("Connected to Redis")

		store = cache.NewSessionStore(rdb)
	} else {
		log.Println("Warning: REDIS_ADDR not set, using in-memory session store")
		store = cache.NewMemoryStore()
	}

	// Durable session archive (optional)
	var sessionRepo repository.SessionRepo
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer mongoClient.Disconnect(ctx)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			log.Fatal("Failed to ping MongoDB:", err)
		}
		log.Println("Connected to MongoDB")

		sessionRepo = repository.NewSessionRepo(mongoClient.Database("letsgohome"))
	} else {
		log.Println("Warning: MONGO_URI not set, running without session archive")
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize services
	sessionSvc := service.NewSessionService(store, sessionRepo)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	sessionSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		SessionService: sessionSvc,
		WSHub:          wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/sessions")
		log.Println("  GET  /v1/sessions/{id}")
		log.Println("  POST /v1/sessions/{id}/join")
		log.Println("  POST /v1/sessions/{id}/click")
		log.Println("  POST /v1/sessions/{id}/unclick")
		log.Println("  WS   /v1/ws/sessions/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
