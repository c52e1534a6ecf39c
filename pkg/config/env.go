package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLocationUpdateInterval = "LOCATION_UPDATE_INTERVAL"
	EnvGeoHighAccuracy        = "GEO_HIGH_ACCURACY"
	EnvGeoTimeout             = "GEO_TIMEOUT"
	EnvGeoMaximumAge          = "GEO_MAXIMUM_AGE"

	EnvTrackingAPIURL = "TRACKING_API_URL"

	EnvFeedResubscribe        = "FEED_RESUBSCRIBE"
	EnvFeedResubscribeBackoff = "FEED_RESUBSCRIBE_BACKOFF"
	EnvFeedResubscribeMax     = "FEED_RESUBSCRIBE_MAX_BACKOFF"
	EnvFeedResubscribeRetries = "FEED_RESUBSCRIBE_RETRIES"
)
