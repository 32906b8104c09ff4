package main

import (
	"context"
	"log"
	"net/http"

	"github.com/paywise/checkout-api/internal/config"
	"github.com/paywise/checkout-api/internal/payment"
	"github.com/redis/go-redis/v9"
)

type apiConfig struct {
	paymentSvc  *payment.Service
	jwtSecret   string
	redisClient *redis.Client
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Unable to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Unable to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis successfully")

	paymentSvc, err := payment.NewService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		log.Fatalf("Failed to initialize payment service: %v", err)
	}

	apiCfg := apiConfig{
		paymentSvc:  paymentSvc,
		jwtSecret:   cfg.JWTSecret,
		redisClient: redisClient,
	}

	// Setup router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", apiCfg.healthHandler)

	// Protected checkout routes (require JWT, rate limited)
	authMiddleware := AuthMiddleware(apiCfg.jwtSecret)
	rateLimitMiddleware := RateLimitMiddleware(apiCfg.redisClient, cfg.RateLimit)

	createHandler := rateLimitMiddleware(
		authMiddleware(http.HandlerFunc(apiCfg.createCheckoutSessionHandler)),
	)
	mux.Handle("POST /api/v1/checkout/sessions", createHandler)

	getHandler := rateLimitMiddleware(
		authMiddleware(http.HandlerFunc(apiCfg.getCheckoutSessionHandler)),
	)
	mux.Handle("GET /api/v1/checkout/sessions/{id}", getHandler)

	// Webhook route (no auth - verified by signature)
	mux.HandleFunc("POST /api/v1/webhooks/stripe", apiCfg.stripeWebhookHandler)

	handler := middlewareCors(
		RequestIDMiddleware(
			SecurityHeadersMiddleware(
				LoggingMiddleware(
					RecoveryMiddleware(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
