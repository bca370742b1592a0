package main

import (
	"context"

	"railbook/internal/events"
	invrepo "railbook/internal/inventory/repository"
	"railbook/internal/schedules/handler"
	"railbook/internal/schedules/repository"
	"railbook/internal/schedules/service"
	"railbook/internal/worker"
	"railbook/pkg/app"
	"railbook/pkg/config"
	kafkaconfig "railbook/pkg/kafka/config"
)

const ServiceName = "materializer"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Materializer service")

	publisher, err := events.New(kafkaconfig.Load(), ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}

	templateRepo := repository.NewMongoTemplateRepository(cfg)
	trainRepo := repository.NewMongoTrainRepository(cfg)
	journeyRepo := repository.NewMongoJourneyRepository(cfg)
	inventoryRepo := invrepo.NewMongoSeatInventoryRepository(cfg)

	materializer := service.NewMaterializerService(
		templateRepo,
		trainRepo,
		journeyRepo,
		inventoryRepo,
		publisher,
		cfg,
	)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewJourneyHandler(materializer, cfg.Log))
	serverApp.AddWorker(worker.NewRunner("horizon-materializer", cfg.MaterializeInterval, true, func(ctx context.Context) error {
		return materializer.MaterializeHorizon(ctx)
	}, cfg.Log))
	serverApp.AddCloser(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})

	cfg.Log.Info("Materializer service initialized", "database", cfg.MongoDatabaseName, "horizon_days", cfg.MaterializeHorizonDays)
	serverApp.Run()
}
