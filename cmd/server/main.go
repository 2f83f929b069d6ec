package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"placement-crm/backend/internal/auth"
	"placement-crm/backend/internal/config"
	"placement-crm/backend/internal/db"
	"placement-crm/backend/internal/dsr"
	"placement-crm/backend/internal/handlers"
	"placement-crm/backend/internal/llm"
	"placement-crm/backend/internal/llm/contract"
	"placement-crm/backend/internal/middleware"
	"placement-crm/backend/internal/realtime"
	"placement-crm/backend/internal/router"
	"placement-crm/backend/internal/whatsapp"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	authService, err := auth.NewService(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}
	hub := realtime.NewHub()

	provider, err := whatsapp.NewProvider(&cfg)
	if err != nil {
		log.Fatalf("failed to init whatsapp provider: %v", err)
	}

	generator := llm.New(&contract.Config{
		ProviderName: cfg.LLMProvider,
		APIKey:       cfg.LLMAPIKey,
		ModelName:    cfg.LLMModel,
		BaseURL:      cfg.LLMBaseURL,
		Temperature:  0.7,
		MaxTokens:    1024,
	})
	if generator == nil {
		log.Printf("llm provider %q not recognized, reports will use fallback summaries", cfg.LLMProvider)
	}

	dsrStore := dsr.NewStore(store, cfg.MasterKey)
	dsrService := dsr.NewService(dsrStore, dsr.NewGenerator(generator))
	dsrLimiter := dsr.NewLimiter(10, time.Minute)

	api := handlers.NewAPI(store, authService, hub)
	api.Provider = provider
	api.Ingestor = whatsapp.NewIngestor(store)
	api.DSRService = dsrService
	api.DSRLimiter = dsrLimiter
	api.Summarizer = generator
	api.DSRSecret = cfg.DSRSecret

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if cfg.RedisURL != "" {
		queue, err := dsr.NewQueue(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to init redis queue: %v", err)
		}
		api.DSRQueue = queue
		worker := &dsr.Worker{Queue: queue, Service: dsrService, Limiter: dsrLimiter}
		go worker.Start(workerCtx)
	}

	limiter := middleware.NewRateLimiter(120, time.Minute)
	rt := router.New(api, authService, limiter, cfg.FrontendOrigin, hub)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rt,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
