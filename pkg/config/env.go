package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvMaterializeHorizonDays = "MATERIALIZE_HORIZON_DAYS"
	EnvMaterializeInterval    = "MATERIALIZE_INTERVAL"

	EnvHoldTTL             = "HOLD_TTL"
	EnvProcessingWindow    = "PROCESSING_WINDOW"
	EnvHoldSweepInterval   = "HOLD_SWEEP_INTERVAL"
	EnvTicketSweepInterval = "TICKET_SWEEP_INTERVAL"
	EnvDepartureGrace      = "DEPARTURE_GRACE"
	EnvSweepBatchSize      = "SWEEP_BATCH_SIZE"
	EnvMaxSeatsPerHold     = "MAX_SEATS_PER_HOLD"

	EnvSeatMapCacheTTL = "SEAT_MAP_CACHE_TTL"
)
