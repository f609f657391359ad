// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"wander/internal/ai"
	"wander/internal/config"
	httptransport "wander/internal/http"
	"wander/internal/infra"
	"wander/internal/modules/conversation"
	"wander/internal/modules/generation"
	"wander/internal/modules/quota"
	"wander/internal/places"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.AI.RequestsPerMinute)/60.0), 1)
	planner, err := ai.NewGeminiPlanner(ctx, cfg.AI.GeminiKey, cfg.AI.Model, float32(cfg.AI.Temperature), limiter)
	if err != nil {
		log.Fatalf("gemini init: %v", err)
	}
	defer planner.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var quotaSvc *quota.Service
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatal(err)
		}
		defer dbPool.Close()
		quotaSvc = quota.NewService(quota.NewStore(dbPool))
	} else {
		log.Print("WANDER_DB_DSN not set; generation quota disabled")
	}

	var enricher generation.Enricher
	if cfg.Maps.APIKey != "" {
		e, err := places.NewEnricher(cfg.Maps.APIKey,
			places.NewCache(1024, time.Hour),
			rate.NewLimiter(rate.Limit(5), 10))
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		enricher = e
	} else {
		log.Print("WANDER_MAPS_API_KEY not set; venue enrichment disabled")
	}

	convStore := conversation.NewRedisStore(redisClient, cfg.Session.TTL)
	composer := conversation.NewComposer(rand.New(rand.NewSource(time.Now().UnixNano())))
	convSvc := conversation.NewService(convStore, composer, cfg.Session.TTL)

	registry := generation.NewRegistry(generation.NewOrchestrator(planner, enricher))

	router := httptransport.NewRouter(convSvc, registry, quotaSvc)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
