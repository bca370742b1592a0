package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"railbook/pkg/client"
	"railbook/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MaterializeHorizonDays int
	MaterializeInterval    time.Duration

	HoldTTL             time.Duration
	ProcessingWindow    time.Duration
	HoldSweepInterval   time.Duration
	TicketSweepInterval time.Duration
	DepartureGrace      time.Duration
	SweepBatchSize      int
	MaxSeatsPerHold     int

	SeatMapCacheTTL time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),

		Port: getEnvStr(EnvPort, DefaultPort),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		MaterializeHorizonDays: getEnvNum(EnvMaterializeHorizonDays, DefaultMaterializeHorizonDays),
		MaterializeInterval:    getEnvDuration(EnvMaterializeInterval, DefaultMaterializeInterval),

		HoldTTL:             getEnvDuration(EnvHoldTTL, DefaultHoldTTL),
		ProcessingWindow:    getEnvDuration(EnvProcessingWindow, DefaultProcessingWindow),
		HoldSweepInterval:   getEnvDuration(EnvHoldSweepInterval, DefaultHoldSweepInterval),
		TicketSweepInterval: getEnvDuration(EnvTicketSweepInterval, DefaultTicketSweepInterval),
		DepartureGrace:      getEnvDuration(EnvDepartureGrace, DefaultDepartureGrace),
		SweepBatchSize:      getEnvNum(EnvSweepBatchSize, DefaultSweepBatchSize),
		MaxSeatsPerHold:     getEnvNum(EnvMaxSeatsPerHold, DefaultMaxSeatsPerHold),

		SeatMapCacheTTL: getEnvDuration(EnvSeatMapCacheTTL, DefaultSeatMapCacheTTL),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.MaterializeHorizonDays < 1 {
		errors = append(errors, fmt.Sprintf("MaterializeHorizonDays must be at least 1, got: %d", cfg.MaterializeHorizonDays))
	}
	if cfg.MaterializeInterval <= 0 {
		errors = append(errors, fmt.Sprintf("MaterializeInterval must be positive, got: %s", cfg.MaterializeInterval))
	}

	if cfg.HoldTTL <= 0 {
		errors = append(errors, fmt.Sprintf("HoldTTL must be positive, got: %s", cfg.HoldTTL))
	}
	if cfg.ProcessingWindow <= 0 {
		errors = append(errors, fmt.Sprintf("ProcessingWindow must be positive, got: %s", cfg.ProcessingWindow))
	}
	if cfg.HoldSweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("HoldSweepInterval must be positive, got: %s", cfg.HoldSweepInterval))
	}
	if cfg.HoldSweepInterval >= cfg.HoldTTL {
		errors = append(errors, fmt.Sprintf("HoldSweepInterval (%s) must be shorter than HoldTTL (%s)", cfg.HoldSweepInterval, cfg.HoldTTL))
	}
	if cfg.TicketSweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("TicketSweepInterval must be positive, got: %s", cfg.TicketSweepInterval))
	}
	if cfg.DepartureGrace < 0 {
		errors = append(errors, fmt.Sprintf("DepartureGrace cannot be negative, got: %s", cfg.DepartureGrace))
	}
	if cfg.SweepBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("SweepBatchSize must be positive, got: %d", cfg.SweepBatchSize))
	}
	if cfg.MaxSeatsPerHold < 1 {
		errors = append(errors, fmt.Sprintf("MaxSeatsPerHold must be at least 1, got: %d", cfg.MaxSeatsPerHold))
	}
	if cfg.SeatMapCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SeatMapCacheTTL must be positive, got: %s", cfg.SeatMapCacheTTL))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"port", cfg.Port,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"materialize_horizon_days", cfg.MaterializeHorizonDays,
		"materialize_interval", cfg.MaterializeInterval,
		"hold_ttl", cfg.HoldTTL,
		"processing_window", cfg.ProcessingWindow,
		"hold_sweep_interval", cfg.HoldSweepInterval,
		"ticket_sweep_interval", cfg.TicketSweepInterval,
		"departure_grace", cfg.DepartureGrace,
		"sweep_batch_size", cfg.SweepBatchSize,
		"max_seats_per_hold", cfg.MaxSeatsPerHold,
		"seat_map_cache_ttl", cfg.SeatMapCacheTTL,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
