package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "railbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMaterializeHorizonDays = 30
	DefaultMaterializeInterval    = 24 * time.Hour

	DefaultHoldTTL             = 15 * time.Minute
	DefaultProcessingWindow    = 2 * time.Minute
	DefaultHoldSweepInterval   = 30 * time.Second
	DefaultTicketSweepInterval = 10 * time.Minute
	DefaultDepartureGrace      = 1 * time.Hour
	DefaultSweepBatchSize      = 100

	// A hold flips one inventory document per (seat, segment); capping the
	// seats per request bounds the size of the hold transaction.
	DefaultMaxSeatsPerHold = 10

	DefaultSeatMapCacheTTL = 5 * time.Second
)
