// Command seed creates a demo session against a running Redis (and
// optionally MongoDB), then prints its ID. Handy for poking at the API
// without a frontend.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"letsgohome/internal/cache"
	"letsgohome/internal/config"
	"letsgohome/internal/model"
	"letsgohome/internal/repository"
	"letsgohome/internal/service"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to ping Redis: %v", err)
	}
	store := cache.NewSessionStore(rdb)

	var sessionRepo repository.SessionRepo
	if cfg.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(ctx)
		sessionRepo = repository.NewSessionRepo(client.Database("letsgohome"))
	}

	svc := service.NewSessionService(store, sessionRepo)

	session, err := svc.Create(ctx, "g_demo1", "go home", &model.ThresholdRule{
		Type:  model.ThresholdAbsolute,
		Value: 2,
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	if _, err := svc.Join(ctx, session.ID, "g_demo2"); err != nil {
		log.Fatalf("Failed to join session: %v", err)
	}
	if _, err := svc.Join(ctx, session.ID, "g_demo3"); err != nil {
		log.Fatalf("Failed to join session: %v", err)
	}

	snap, err := svc.GetPublicState(ctx, session.ID)
	if err != nil {
		log.Fatalf("Failed to read session: %v", err)
	}

	fmt.Printf("Seeded session %s (%d participants, threshold %s %d)\n",
		session.ID, snap.TotalParticipants, snap.ThresholdRule.Type, snap.ThresholdRule.Value)
}
