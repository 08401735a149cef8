package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "fitbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Advisory slot lock tuning. The TTL bounds how long a crashed holder can
	// wedge a slot; the wait timeout is the store-level lock-wait duration a
	// blocked request tolerates before failing with a timeout.
	DefaultSlotLockTTL           = 10 * time.Second
	DefaultSlotLockRetryInterval = 50 * time.Millisecond
	DefaultSlotLockWaitTimeout   = 5 * time.Second

	DefaultMaxSessionDurationMin = 480

	DefaultPaginationLimit = 100
)
