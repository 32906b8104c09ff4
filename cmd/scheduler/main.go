package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paywise/checkout-api/internal/config"
	"github.com/paywise/checkout-api/internal/jobs"
	"github.com/paywise/checkout-api/internal/payment"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	paymentSvc, err := payment.NewService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		log.Fatalf("Failed to initialize payment service: %v", err)
	}

	lookback := time.Duration(cfg.ReconcileLookbackHours) * time.Hour
	batchSize := int64(cfg.ReconcileBatchSize)

	c := cron.New(cron.WithSeconds())

	// Checkout session reconciliation sweep, every 15 minutes.
	_, err = c.AddFunc("0 */15 * * * *", func() {
		log.Println("Starting checkout session reconciliation...")

		if err := jobs.ReconcileCheckoutSessions(paymentSvc, lookback, batchSize); err != nil {
			log.Printf("ERROR: Reconciliation failed: %v", err)
			return
		}

		log.Println("Checkout session reconciliation completed successfully")
	})
	if err != nil {
		log.Fatalf("Failed to schedule reconciliation job: %v", err)
	}

	c.Start()
	log.Println("Cron scheduler started successfully")
	log.Printf("Scheduled jobs: checkout session reconciliation every 15 minutes (lookback %s, batch %d)", lookback, batchSize)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down cron scheduler...")

	ctx := c.Stop()
	<-ctx.Done()

	log.Println("Cron scheduler stopped successfully")
}
