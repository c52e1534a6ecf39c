package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"purohit/internal/sampler"
	"purohit/internal/tracker"
	"purohit/pkg/client"
	"purohit/pkg/config"
)

const ServiceName = "tracker"

// Demo route: a short drive through Bengaluru. The real device swaps the
// route replay for the platform geolocator behind the same interface.
var demoRoute = []sampler.Position{
	{Latitude: 12.9716, Longitude: 77.5946},
	{Latitude: 12.9726, Longitude: 77.5958},
	{Latitude: 12.9739, Longitude: 77.5971},
	{Latitude: 12.9753, Longitude: 77.5986},
	{Latitude: 12.9768, Longitude: 77.5999},
}

func main() {
	cfg := config.Load(ServiceName)

	bookingID := os.Getenv("TRACKER_BOOKING_ID")
	priestID := os.Getenv("TRACKER_PRIEST_ID")
	if bookingID == "" || priestID == "" {
		cfg.Log.Fatal("TRACKER_BOOKING_ID and TRACKER_PRIEST_ID must be set")
	}

	api := client.NewTrackingClient(cfg.TrackingAPIURL)

	opts := sampler.Options{
		HighAccuracy: cfg.GeoHighAccuracy,
		Timeout:      cfg.GeoTimeout,
		MaximumAge:   cfg.GeoMaximumAge,
		Continuous:   true,
	}
	geo := sampler.NewRouteGeolocator(demoRoute, cfg.LocationUpdateInterval)
	source := sampler.New(geo, opts, cfg.Log)

	journey := tracker.New(api, source, bookingID, priestID, cfg.LocationUpdateInterval, cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	eta := time.Now().Add(30 * time.Minute)
	cfg.Log.Info("Starting journey tracker",
		"booking_id", bookingID,
		"priest_id", priestID,
		"interval", cfg.LocationUpdateInterval,
	)

	if err := journey.Run(ctx, &eta); err != nil && err != context.Canceled {
		cfg.Log.Fatal("Journey tracker failed", "error", err)
	}

	cfg.Log.Info("Journey tracker stopped")
}
