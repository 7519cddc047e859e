package services

import (
	"log"
	"os"
	"time"
)

// StartScheduler starts the task scheduler for periodic tasks
func StartScheduler() {
	log.Println("Starting task scheduler...")

	// Sweep expired subscriptions on a timer
	go startSubscriptionSweep()
}

// startSubscriptionSweep expires stale subscriptions on an interval. The
// sweep runs independently of any request, so an account nobody reads still
// loses access when its subscription lapses.
func startSubscriptionSweep() {
	interval := time.Hour
	if v := os.Getenv("PREMIUM_SWEEP_INTERVAL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("Invalid PREMIUM_SWEEP_INTERVAL %q, using default: %v", v, err)
		} else {
			interval = parsed
		}
	}

	log.Printf("Subscription sweep scheduled every %v", interval)

	for {
		if _, err := SweepExpiredSubscriptions(time.Now()); err != nil {
			log.Printf("Subscription sweep failed: %v", err)
		}
		time.Sleep(interval)
	}
}
