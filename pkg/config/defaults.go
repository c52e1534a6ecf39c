package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "purohit"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// One location write per tick while a journey is active, plus one
	// immediately on activation.
	DefaultLocationUpdateInterval = 10 * time.Second

	DefaultTrackingAPIURL = "http://localhost:8080"

	DefaultGeoHighAccuracy = true
	DefaultGeoTimeout      = 15 * time.Second
	DefaultGeoMaximumAge   = 10 * time.Second

	// Resubscription on change-feed transport drop is off by default; the
	// driver's own resumability covers the common cases.
	DefaultFeedResubscribe        = false
	DefaultFeedResubscribeBackoff = 1 * time.Second
	DefaultFeedResubscribeMax     = 30 * time.Second
	DefaultFeedResubscribeRetries = 5
)
