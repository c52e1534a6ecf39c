package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"purohit/internal/tracking/feed"
	"purohit/internal/tracking/reducer"
	"purohit/pkg/client"
	"purohit/pkg/config"
	"purohit/pkg/model"
)

const ServiceName = "watcher"

// watcher tails one booking the way the customer's tracking screen does:
// subscribe to the live feeds first, then seed with a snapshot fetch, and
// fold every patch through the reducer.
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	bookingID := os.Getenv("WATCHER_BOOKING_ID")
	customerID := os.Getenv("WATCHER_CUSTOMER_ID")
	if bookingID == "" || customerID == "" {
		cfg.Log.Fatal("WATCHER_BOOKING_ID and WATCHER_CUSTOMER_ID must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	state := reducer.State{}

	subscriber := feed.NewSubscriber(
		feed.NewMongoStreamFactory(cfg),
		feed.ResubscribePolicy{
			Enabled:        cfg.FeedResubscribe,
			InitialBackoff: cfg.FeedResubscribeBackoff,
			MaxBackoff:     cfg.FeedResubscribeMax,
			MaxAttempts:    cfg.FeedResubscribeRetries,
		},
		cfg.Log,
	)
	subscriber.OnError(func(err error) {
		cfg.Log.Warn("Tracking feed error", "booking_id", bookingID, "error", err)
	})

	subscription, err := subscriber.Subscribe(ctx, bookingID,
		func(patch model.JourneyPatch) {
			mu.Lock()
			state = reducer.Apply(state, patch)
			logState(cfg, bookingID, state)
			mu.Unlock()
		},
		func(patch model.LocationPatch) {
			mu.Lock()
			state = reducer.Apply(state, patch)
			logState(cfg, bookingID, state)
			mu.Unlock()
		},
	)
	if err != nil {
		cfg.Log.Fatal("Failed to subscribe to tracking feeds", "booking_id", bookingID, "error", err)
	}

	// Subscribing before fetching means any update racing the fetch arrives
	// as a patch instead of being missed.
	trackingClient := client.NewTrackingClient(cfg.TrackingAPIURL)
	snapshot, err := trackingClient.Snapshot(ctx, bookingID, customerID)
	if err != nil {
		subscription.Unsubscribe()
		cfg.Log.Fatal("Failed to fetch tracking snapshot", "booking_id", bookingID, "error", err)
	}

	mu.Lock()
	state = reducer.Seed(state, *snapshot)
	logState(cfg, bookingID, state)
	mu.Unlock()

	cfg.Log.Info("Watching booking", "booking_id", bookingID)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	cfg.Log.Info("Shutdown signal received", "signal", sig)

	subscription.Unsubscribe()
	cfg.Log.Info("Watcher stopped", "booking_id", bookingID)
}

func logState(cfg *config.Config, bookingID string, state reducer.State) {
	if state.Snapshot == nil {
		cfg.Log.Info("Tracking state pending snapshot", "booking_id", bookingID)
		return
	}

	fields := []any{
		"booking_id", bookingID,
		"status", state.Snapshot.Status,
		"journey_started", state.Snapshot.JourneyStarted,
	}
	if state.Snapshot.EstimatedArrival != nil {
		fields = append(fields, "estimated_arrival", state.Snapshot.EstimatedArrival)
	}
	if loc := state.Snapshot.CurrentLocation; loc != nil {
		fields = append(fields, "latitude", loc.Latitude, "longitude", loc.Longitude)
	}
	cfg.Log.Info("Tracking state updated", fields...)
}
